package report

import (
	"strings"

	"trelliq-api/domain"
)

// doneListKeywords mark a list as holding delivered work. Matching is
// case-insensitive but accent-sensitive, as the source board names are.
// CONCLUÍ catches both CONCLUÍDO and CONCLUÍDAS.
var doneListKeywords = []string{"FEITO", "FEITOS", "CONCLUÍ", "FINALIZADO", "COMPLETO", "DONE", "FINISHED"}

func isDoneListName(name string) bool {
	upper := canonicalListName(name)
	for _, kw := range doneListKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func doneListIDs(lists []domain.List) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, l := range lists {
		if isDoneListName(l.Name) {
			ids[l.ID] = struct{}{}
		}
	}
	return ids
}

// FilterCards selects the cards relevant to the reporting window. Cards in a
// done list are anchored to their due date: a delivery belongs to the period
// its deadline fell in, not to when someone last touched the card. Everything
// else is anchored to last activity. Archived cards and cards missing the
// anchoring timestamp are dropped; a malformed timestamp is treated as absent.
func (e *Engine) FilterCards(board domain.Board, w Window) []domain.Card {
	done := doneListIDs(board.Lists)
	out := make([]domain.Card, 0, len(board.Cards))
	for _, card := range board.Cards {
		if card.Closed {
			continue
		}
		if _, inDone := done[card.ListID]; inDone {
			due, ok := parseTimestamp(card.Due)
			if ok && w.Contains(due) {
				out = append(out, card)
			}
			continue
		}
		activity, ok := parseTimestamp(card.DateLastActivity)
		if ok && w.Contains(activity) {
			out = append(out, card)
		}
	}
	return out
}
