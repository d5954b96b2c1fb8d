package domain

import "strings"

// Responsible is one person inside a group. Handle matches Member.Username.
type Responsible struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

// Group is a static marketing group with its stage-name lists. Stage names are
// matched as substrings of the upper-cased list name a card sits in.
type Group struct {
	Name            string        `json:"name"`
	Responsibles    []Responsible `json:"responsibles"`
	OpeningStages   []string      `json:"openingStages"`
	FinishingStages []string      `json:"finishingStages"`
	DoneStages      []string      `json:"doneStages"`
}

// ResponsibleNames returns the display names of the group's responsibles.
func (g Group) ResponsibleNames() []string {
	names := make([]string, len(g.Responsibles))
	for i, r := range g.Responsibles {
		names[i] = r.Name
	}
	return names
}

// FinishedForReviewer reports whether a card in the named list has reached one
// of the group's finishing stages.
func (g Group) FinishedForReviewer(listName string) bool {
	return stageMatches(listName, g.FinishingStages)
}

// InDoneStage reports whether a card in the named list sits in one of the
// group's done stages.
func (g Group) InDoneStage(listName string) bool {
	return stageMatches(listName, g.DoneStages)
}

func stageMatches(listName string, stages []string) bool {
	stage := StageOf(listName)
	for _, s := range stages {
		if s != "" && strings.Contains(stage, s) {
			return true
		}
	}
	return false
}

// StageOf is the canonical stage label for a list name.
func StageOf(listName string) string {
	return strings.ToUpper(listName)
}

// IsReviewStage reports whether the list name denotes a review stage.
func IsReviewStage(listName string) bool {
	return strings.Contains(StageOf(listName), "REVISÃO")
}

// Registry maps member handles to at most one group. It is built once at
// startup and injected into the report engine; lookups never mutate it.
type Registry struct {
	groups   []Group
	byHandle map[string]int
}

// NewRegistry builds a registry from the given groups. When a handle appears
// in more than one group the first group wins.
func NewRegistry(groups []Group) *Registry {
	r := &Registry{
		groups:   append([]Group(nil), groups...),
		byHandle: make(map[string]int),
	}
	for i, g := range r.groups {
		for _, resp := range g.Responsibles {
			if _, ok := r.byHandle[resp.Handle]; !ok {
				r.byHandle[resp.Handle] = i
			}
		}
	}
	return r
}

// GroupFor returns the group a handle belongs to.
func (r *Registry) GroupFor(handle string) (Group, bool) {
	i, ok := r.byHandle[handle]
	if !ok {
		return Group{}, false
	}
	return r.groups[i], true
}

// Groups returns the registered groups in declaration order.
func (r *Registry) Groups() []Group {
	return append([]Group(nil), r.groups...)
}

// GroupNames returns the registered group names in declaration order.
func (r *Registry) GroupNames() []string {
	names := make([]string, len(r.groups))
	for i, g := range r.groups {
		names[i] = g.Name
	}
	return names
}
