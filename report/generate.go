package report

import (
	"strings"

	"trelliq-api/domain"
)

// Generate expands the cards that survive the window filter into report rows.
//
// A card with no resolvable members produces exactly one unassigned row. A
// card with members produces one row per distinct group its members belong to
// (never one per member of the same group), with the collaborator field
// holding the joined display names of that group's members on the card, plus
// one row per member with no group. The first group member's handle drives the
// viewer-specific status and lateness for the group row.
func (e *Engine) Generate(board domain.Board, w Window) []domain.TaskReport {
	filtered := e.FilterCards(board, w)
	rows := make([]domain.TaskReport, 0, len(filtered))

	for _, card := range filtered {
		listName := domain.ListNotFound
		if list, ok := findList(board.Lists, card.ListID); ok {
			listName = list.Name
		}

		cardMembers := resolveMembers(board.Members, card.MemberIDs)
		if len(cardMembers) == 0 {
			rows = append(rows, e.unassignedRow(card, listName, board.Lists))
			continue
		}

		grouped, ungrouped := e.partitionByGroup(cardMembers)
		for _, bg := range grouped {
			rows = append(rows, e.groupRow(card, listName, board.Lists, bg))
		}
		for _, m := range ungrouped {
			rows = append(rows, e.memberRow(card, listName, board.Lists, m))
		}
	}
	return rows
}

// resolveMembers looks up card member ids in the board member list, preserving
// the card's own idMembers order: that order decides which member's handle
// becomes the group row's lead. Dangling ids are dropped; a card whose ids all
// dangle falls back to an unassigned row.
func resolveMembers(members []domain.Member, ids []string) []domain.Member {
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		for _, m := range members {
			if m.ID == id {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

type boardGroup struct {
	group   domain.Group
	members []domain.Member
}

// partitionByGroup splits card members into per-group buckets (first-touch
// order, so output is deterministic) and the remainder with no group.
func (e *Engine) partitionByGroup(members []domain.Member) ([]boardGroup, []domain.Member) {
	var grouped []boardGroup
	index := make(map[string]int)
	var ungrouped []domain.Member

	for _, m := range members {
		g, ok := e.registry.GroupFor(m.Username)
		if !ok {
			ungrouped = append(ungrouped, m)
			continue
		}
		i, seen := index[g.Name]
		if !seen {
			index[g.Name] = len(grouped)
			grouped = append(grouped, boardGroup{group: g})
			i = len(grouped) - 1
		}
		grouped[i].members = append(grouped[i].members, m)
	}
	return grouped, ungrouped
}

func (e *Engine) unassignedRow(card domain.Card, listName string, lists []domain.List) domain.TaskReport {
	status := e.Status(card, lists)
	row := e.baseRow(card, listName, status, e.DaysLate(card))
	row.Collaborator = domain.UnassignedCollaborator
	return row
}

func (e *Engine) groupRow(card domain.Card, listName string, lists []domain.List, bg boardGroup) domain.TaskReport {
	names := make([]string, len(bg.members))
	for i, m := range bg.members {
		names[i] = m.FullName
	}
	lead := bg.members[0].Username

	status := e.StatusFor(card, lists, lead)
	row := e.baseRow(card, listName, status, e.DaysLateFor(card, lists, lead))
	row.Collaborator = strings.Join(names, domain.CollaboratorSeparator)
	row.Group = bg.group.Name
	row.FinishedForReview = bg.group.FinishedForReviewer(listName)
	row.Done = bg.group.InDoneStage(listName)
	return row
}

func (e *Engine) memberRow(card domain.Card, listName string, lists []domain.List, m domain.Member) domain.TaskReport {
	status := e.StatusFor(card, lists, m.Username)
	row := e.baseRow(card, listName, status, e.DaysLateFor(card, lists, m.Username))
	row.Collaborator = m.FullName
	return row
}

func (e *Engine) baseRow(card domain.Card, listName string, status domain.Status, daysLate int) domain.TaskReport {
	notes := card.Desc
	if notes == "" {
		notes = listName
	}
	row := domain.TaskReport{
		TaskID:       card.ID,
		TaskName:     card.Name,
		ListName:     listName,
		DueDate:      formatDueDate(card.Due),
		CreatedAt:    card.DateLastActivity,
		Status:       status,
		DaysLate:     daysLate,
		Notes:        notes,
		CurrentStage: domain.StageOf(listName),
		InReview:     domain.IsReviewStage(listName),
	}
	if status == domain.StatusCompleted {
		row.CompletedAt = card.DateLastActivity
	}
	return row
}
