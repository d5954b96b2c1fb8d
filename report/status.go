package report

import (
	"strings"

	"trelliq-api/domain"
)

var (
	blockedKeywords  = []string{"BLOQUEADA", "PARADA", "AGUARDANDO"}
	planningKeywords = []string{"PLANEJ", "PLAN"}
	recurringKeyword = "RECORREN"
	// A list named like "AGUARDANDO RETORNO DE TERCEIROS" means the work left
	// the team's hands; for reporting purposes it counts as delivered.
	thirdPartyKeywords = []string{"AGUARDANDO", "RETORNO", "TERCEIRO"}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func containsAll(s string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return true
}

func findList(lists []domain.List, id string) (domain.List, bool) {
	for _, l := range lists {
		if l.ID == id {
			return l, true
		}
	}
	return domain.List{}, false
}

// Status derives the viewer-agnostic status of a card from the list it sits
// in. The first matching rule wins.
func (e *Engine) Status(card domain.Card, lists []domain.List) domain.Status {
	if card.Closed {
		return domain.StatusCompleted
	}
	list, ok := findList(lists, card.ListID)
	if !ok {
		return domain.StatusInProgress
	}
	upper := canonicalListName(list.Name)

	if isDoneListName(list.Name) {
		return domain.StatusCompleted
	}
	if containsAll(upper, thirdPartyKeywords) {
		return domain.StatusCompleted
	}
	if status, ok := e.listStatuses[upper]; ok {
		if status != domain.StatusCompleted && e.isOverdue(card) {
			return domain.StatusLate
		}
		return status
	}
	if containsAny(upper, blockedKeywords) {
		return domain.StatusBlocked
	}
	if containsAny(upper, planningKeywords) {
		return domain.StatusPlanning
	}
	if strings.Contains(upper, recurringKeyword) {
		return domain.StatusRecurring
	}
	if e.isOverdue(card) {
		return domain.StatusLate
	}
	return domain.StatusInProgress
}

// StatusFor derives the status of a card as seen by a specific member. For
// content creators the card is in progress (or late) only while it sits in the
// content list; once it moves anywhere else their part is done. Everyone else
// gets the viewer-agnostic status.
func (e *Engine) StatusFor(card domain.Card, lists []domain.List, handle string) domain.Status {
	if card.Closed {
		return domain.StatusCompleted
	}
	if !e.isContentCreator(handle) {
		return e.Status(card, lists)
	}
	list, ok := findList(lists, card.ListID)
	if !ok {
		return domain.StatusInProgress
	}
	if e.isContentList(list.Name) {
		if e.isOverdue(card) {
			return domain.StatusLate
		}
		return domain.StatusInProgress
	}
	return domain.StatusCompleted
}

// DaysLate is the whole calendar days a card is past its due date, never
// negative. Archived cards and cards without a parseable due date are 0.
func (e *Engine) DaysLate(card domain.Card) int {
	if card.Closed {
		return 0
	}
	due, ok := parseTimestamp(card.Due)
	if !ok {
		return 0
	}
	days := daysBetween(due, e.now())
	if days < 0 {
		return 0
	}
	return days
}

// DaysLateFor is DaysLate from a specific member's viewpoint: a content
// creator stops accruing lateness the moment the card leaves the content list.
func (e *Engine) DaysLateFor(card domain.Card, lists []domain.List, handle string) int {
	if !e.isContentCreator(handle) {
		return e.DaysLate(card)
	}
	list, ok := findList(lists, card.ListID)
	if !ok || !e.isContentList(list.Name) {
		return 0
	}
	return e.DaysLate(card)
}

func (e *Engine) isOverdue(card domain.Card) bool {
	due, ok := parseTimestamp(card.Due)
	if !ok {
		return false
	}
	return daysBetween(due, e.now()) > 0
}
