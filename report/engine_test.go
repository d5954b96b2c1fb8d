package report

import (
	"testing"
	"time"

	"trelliq-api/domain"
)

var testNow = time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)

func testRegistry() *domain.Registry {
	return domain.NewRegistry([]domain.Group{
		{
			Name: "Grupo 1",
			Responsibles: []domain.Responsible{
				{Handle: "jamillyfreitass", Name: "Jamily"},
				{Handle: "leonardoferreiracardoso5", Name: "Leo"},
			},
			OpeningStages:   []string{"EM PROCESSO DE CONTEÚDO"},
			FinishingStages: []string{"EM PROCESSO DE MONTAGEM", "EM PROCESSO DE ENVIO"},
			DoneStages:      []string{"FEITOS", "FEITO"},
		},
		{
			Name: "Grupo 2",
			Responsibles: []domain.Responsible{
				{Handle: "fazstudioart", Name: "Luiz"},
			},
			OpeningStages:   []string{"PROCESSO DE CRIAÇÃO"},
			FinishingStages: []string{"EM PROCESSO DE MONTAGEM", "EM PROCESSO DE ENVIO"},
			DoneStages:      []string{"FEITOS", "FEITO"},
		},
	})
}

func newTestEngine() *Engine {
	return NewEngine(Options{
		Registry: testRegistry(),
		ListStatuses: map[string]domain.Status{
			"PLANEJANDO ESTRATÉGIAS":          domain.StatusPlanning,
			"ATIVIDADES RECORRENTES":          domain.StatusRecurring,
			"EM PROCESSO DE CONTEÚDO":         domain.StatusInProgress,
			"EM PROCESSO DE MONTAGEM":         domain.StatusInProgress,
			"AGUARDANDO RETORNO DE CORREÇÕES": domain.StatusBlocked,
			"FEITOS":                          domain.StatusCompleted,
		},
		ContentCreators: []string{"jamillyfreitass", "leonardoferreiracardoso5"},
		ContentList:     "EM PROCESSO DE CONTEÚDO",
		Now:             func() time.Time { return testNow },
	})
}

func testLists() []domain.List {
	return []domain.List{
		{ID: "l-done", Name: "FEITOS"},
		{ID: "l-content", Name: "EM PROCESSO DE CONTEÚDO"},
		{ID: "l-assembly", Name: "EM PROCESSO DE MONTAGEM"},
		{ID: "l-plan", Name: "PLANEJANDO ESTRATÉGIAS"},
		{ID: "l-recurring", Name: "ATIVIDADES RECORRENTES"},
		{ID: "l-blocked", Name: "AGUARDANDO RETORNO DE CORREÇÕES"},
		{ID: "l-third", Name: "AGUARDANDO RETORNO DE TERCEIROS"},
	}
}

func testMembers() []domain.Member {
	return []domain.Member{
		{ID: "m-jamily", Username: "jamillyfreitass", FullName: "Jamily Freitas"},
		{ID: "m-leo", Username: "leonardoferreiracardoso5", FullName: "Leonardo Cardoso"},
		{ID: "m-luiz", Username: "fazstudioart", FullName: "Luiz Faz"},
		{ID: "m-sam", Username: "samuelpiske1", FullName: "Samuel Piske"},
	}
}

func testWindow() Window {
	return NewWindow(
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	)
}

func TestBuildReportRunsFullPipeline(t *testing.T) {
	e := newTestEngine()
	board := domain.Board{
		Name:    "Marketing",
		Lists:   testLists(),
		Members: testMembers(),
		Cards: []domain.Card{
			{ID: "c1", Name: "Post A", ListID: "l-done", MemberIDs: []string{"m-luiz"}, Due: "2025-03-10T12:00:00Z", DateLastActivity: "2025-03-11T09:00:00Z"},
			{ID: "c2", Name: "Post B", ListID: "l-assembly", MemberIDs: []string{"m-sam"}, DateLastActivity: "2025-03-12T09:00:00Z"},
		},
	}

	result := e.BuildReport(board, testWindow(), nil)

	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if result.Summary.TotalTasks != 2 {
		t.Fatalf("expected 2 unique tasks, got %d", result.Summary.TotalTasks)
	}
	if len(result.Collaborators) != 2 {
		t.Fatalf("expected 2 collaborators, got %d", len(result.Collaborators))
	}
}

func TestBuildReportGroupFilter(t *testing.T) {
	e := newTestEngine()
	board := domain.Board{
		Name:    "Marketing",
		Lists:   testLists(),
		Members: testMembers(),
		Cards: []domain.Card{
			{ID: "c1", Name: "Post A", ListID: "l-assembly", MemberIDs: []string{"m-luiz"}, DateLastActivity: "2025-03-11T09:00:00Z"},
			{ID: "c2", Name: "Post B", ListID: "l-assembly", MemberIDs: []string{"m-sam"}, DateLastActivity: "2025-03-12T09:00:00Z"},
		},
	}

	result := e.BuildReport(board, testWindow(), []string{"Grupo 2"})
	if len(result.Rows) != 1 || result.Rows[0].Group != "Grupo 2" {
		t.Fatalf("expected only Grupo 2 rows, got %#v", result.Rows)
	}

	result = e.BuildReport(board, testWindow(), []string{domain.NoGroup})
	if len(result.Rows) != 1 || result.Rows[0].Group != "" {
		t.Fatalf("expected only ungrouped rows, got %#v", result.Rows)
	}
}

func TestBuildReportIsDeterministic(t *testing.T) {
	e := newTestEngine()
	board := domain.Board{
		Name:    "Marketing",
		Lists:   testLists(),
		Members: testMembers(),
		Cards: []domain.Card{
			{ID: "c1", Name: "Post A", ListID: "l-assembly", MemberIDs: []string{"m-jamily", "m-luiz", "m-sam"}, DateLastActivity: "2025-03-11T09:00:00Z"},
			{ID: "c2", Name: "Post B", ListID: "l-content", MemberIDs: []string{"m-leo", "m-jamily"}, DateLastActivity: "2025-03-12T09:00:00Z"},
		},
	}

	first := e.BuildReport(board, testWindow(), nil)
	for i := 0; i < 5; i++ {
		again := e.BuildReport(board, testWindow(), nil)
		if len(again.Rows) != len(first.Rows) {
			t.Fatalf("row count changed between runs: %d vs %d", len(again.Rows), len(first.Rows))
		}
		for j := range first.Rows {
			if again.Rows[j] != first.Rows[j] {
				t.Fatalf("row %d changed between runs: %#v vs %#v", j, again.Rows[j], first.Rows[j])
			}
		}
		for j := range first.Collaborators {
			if again.Collaborators[j].Collaborator != first.Collaborators[j].Collaborator {
				t.Fatalf("collaborator order changed between runs")
			}
		}
	}
}

func TestNewEngineCanonicalisesTables(t *testing.T) {
	e := NewEngine(Options{
		ListStatuses: map[string]domain.Status{"  feitos  ": domain.StatusCompleted},
		ContentList:  " em processo de conteúdo ",
		Now:          func() time.Time { return testNow },
	})
	if _, ok := e.listStatuses["FEITOS"]; !ok {
		t.Fatalf("expected list name to be upper-cased and trimmed, got %#v", e.listStatuses)
	}
	if !e.isContentList("Em Processo De Conteúdo") {
		t.Fatal("expected content list match to ignore case")
	}
}

func TestNewEngineNilRegistry(t *testing.T) {
	e := NewEngine(Options{Now: func() time.Time { return testNow }})
	if e.Registry() == nil {
		t.Fatal("expected non-nil registry")
	}
	if _, ok := e.Registry().GroupFor("anyone"); ok {
		t.Fatal("expected empty registry to resolve nobody")
	}
}
