package report

import (
	"strings"
	"time"

	"trelliq-api/domain"
)

// Engine derives task, collaborator and group reports from an immutable board
// snapshot. All lookup tables are fixed at construction; every call allocates
// fresh output, so concurrent report generation over the same snapshot is safe.
type Engine struct {
	registry        *domain.Registry
	listStatuses    map[string]domain.Status
	contentCreators map[string]struct{}
	contentList     string
	now             func() time.Time
}

// Options configures an Engine.
type Options struct {
	// Registry maps member handles to marketing groups.
	Registry *domain.Registry
	// ListStatuses maps exact upper-cased list names to a status.
	ListStatuses map[string]domain.Status
	// ContentCreators are the handles whose view of a card's status flips to
	// completed as soon as the card leaves ContentList.
	ContentCreators []string
	// ContentList is the single list in which content creators work.
	ContentList string
	// Now supplies the reference time for lateness; defaults to time.Now.
	Now func() time.Time
}

// NewEngine builds an engine from the given options. List names in the status
// table and the content list name are canonicalised to upper case.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		registry:        opts.Registry,
		listStatuses:    make(map[string]domain.Status, len(opts.ListStatuses)),
		contentCreators: make(map[string]struct{}, len(opts.ContentCreators)),
		contentList:     canonicalListName(opts.ContentList),
		now:             opts.Now,
	}
	if e.registry == nil {
		e.registry = domain.NewRegistry(nil)
	}
	for name, status := range opts.ListStatuses {
		e.listStatuses[canonicalListName(name)] = status
	}
	for _, handle := range opts.ContentCreators {
		e.contentCreators[handle] = struct{}{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Registry exposes the injected group registry.
func (e *Engine) Registry() *domain.Registry {
	return e.registry
}

// Result bundles everything one report generation produces.
type Result struct {
	Rows          []domain.TaskReport         `json:"rows"`
	Collaborators []domain.CollaboratorReport `json:"collaborators"`
	Summary       domain.ReportSummary        `json:"summary"`
}

// BuildReport runs the full pipeline: window filter, row generation, group
// filter, then aggregation. groupNames narrows the output to the named groups
// (domain.NoGroup selects ungrouped rows); nil or empty keeps everything.
func (e *Engine) BuildReport(board domain.Board, w Window, groupNames []string) Result {
	rows := e.Generate(board, w)
	rows = FilterRowsByGroup(rows, groupNames)
	return Result{
		Rows:          rows,
		Collaborators: e.Collaborators(rows),
		Summary:       e.Summarize(rows),
	}
}

func (e *Engine) isContentCreator(handle string) bool {
	_, ok := e.contentCreators[handle]
	return ok
}

func (e *Engine) isContentList(listName string) bool {
	return e.contentList != "" && canonicalListName(listName) == e.contentList
}

func canonicalListName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
