package domain

import "testing"

func sampleGroups() []Group {
	return []Group{
		{
			Name: "Grupo 1",
			Responsibles: []Responsible{
				{Handle: "jamillyfreitass", Name: "Jamily"},
				{Handle: "shared", Name: "Shared One"},
			},
			FinishingStages: []string{"EM PROCESSO DE MONTAGEM"},
			DoneStages:      []string{"FEITOS", "FEITO"},
		},
		{
			Name: "Grupo 2",
			Responsibles: []Responsible{
				{Handle: "fazstudioart", Name: "Luiz"},
				{Handle: "shared", Name: "Shared Two"},
			},
		},
	}
}

func TestRegistryGroupFor(t *testing.T) {
	r := NewRegistry(sampleGroups())

	g, ok := r.GroupFor("fazstudioart")
	if !ok || g.Name != "Grupo 2" {
		t.Fatalf("unexpected lookup result: %#v, %v", g, ok)
	}
	if _, ok := r.GroupFor("nobody"); ok {
		t.Fatal("expected miss for unknown handle")
	}
}

func TestRegistryFirstGroupWinsOnDuplicateHandle(t *testing.T) {
	r := NewRegistry(sampleGroups())
	g, ok := r.GroupFor("shared")
	if !ok || g.Name != "Grupo 1" {
		t.Fatalf("expected first declaration to win, got %#v", g)
	}
}

func TestRegistryGroupsPreservesOrder(t *testing.T) {
	r := NewRegistry(sampleGroups())
	names := r.GroupNames()
	if len(names) != 2 || names[0] != "Grupo 1" || names[1] != "Grupo 2" {
		t.Fatalf("unexpected order: %#v", names)
	}
}

func TestGroupStageMatching(t *testing.T) {
	g := sampleGroups()[0]

	if !g.InDoneStage("feitos") {
		t.Fatal("expected case-insensitive done-stage match")
	}
	if !g.InDoneStage("FEITOS DA SEMANA") {
		t.Fatal("expected substring done-stage match")
	}
	if g.InDoneStage("EM PROCESSO DE MONTAGEM") {
		t.Fatal("finishing stage is not a done stage")
	}
	if !g.FinishedForReviewer("Em Processo de Montagem") {
		t.Fatal("expected finishing-stage match")
	}
}

func TestIsReviewStage(t *testing.T) {
	if !IsReviewStage("EM PROCESSO DE REVISÃO") {
		t.Fatal("expected review stage")
	}
	if !IsReviewStage("em processo de edição e revisão") {
		t.Fatal("expected case-insensitive review stage")
	}
	if IsReviewStage("FEITOS") {
		t.Fatal("unexpected review stage")
	}
}

func TestGroupResponsibleNames(t *testing.T) {
	names := sampleGroups()[0].ResponsibleNames()
	if len(names) != 2 || names[0] != "Jamily" {
		t.Fatalf("unexpected names: %#v", names)
	}
}
