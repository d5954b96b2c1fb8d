package report

import (
	"math"
	"sort"
	"strings"

	"trelliq-api/domain"
)

// FilterRowsByGroup keeps only rows whose group is in names; domain.NoGroup
// selects rows without a group. Nil or empty names keeps every row.
func FilterRowsByGroup(rows []domain.TaskReport, names []string) []domain.TaskReport {
	if len(names) == 0 {
		return rows
	}
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	out := make([]domain.TaskReport, 0, len(rows))
	for _, row := range rows {
		name := row.Group
		if name == "" {
			name = domain.NoGroup
		}
		if _, ok := keep[name]; ok {
			out = append(out, row)
		}
	}
	return out
}

// dedupeByTaskID keeps the first row seen for each task id. Row fan-out by
// group is intentional, so any unique-task count must go through here.
func dedupeByTaskID(rows []domain.TaskReport) []domain.TaskReport {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.TaskReport, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.TaskID]; ok {
			continue
		}
		seen[row.TaskID] = struct{}{}
		out = append(out, row)
	}
	return out
}

type statusCounts struct {
	completed  int
	inProgress int
	late       int
	blocked    int
}

func countByStatus(rows []domain.TaskReport) statusCounts {
	var c statusCounts
	for _, row := range rows {
		switch row.Status {
		case domain.StatusCompleted:
			c.completed++
		case domain.StatusInProgress:
			c.inProgress++
		case domain.StatusLate:
			c.late++
		case domain.StatusBlocked:
			c.blocked++
		}
	}
	return c
}

// Summarize rolls the rows up into the board-wide report summary. Totals are
// computed over task-id-deduplicated rows; per-group sections re-filter and
// re-deduplicate so a task spanning several groups counts once in each group
// but once overall.
func (e *Engine) Summarize(rows []domain.TaskReport) domain.ReportSummary {
	unique := dedupeByTaskID(rows)
	counts := countByStatus(unique)

	collaborators := make(map[string]struct{})
	for _, row := range unique {
		for _, name := range splitCollaborators(row.Collaborator) {
			collaborators[name] = struct{}{}
		}
	}

	summary := domain.ReportSummary{
		TotalTasks:         len(unique),
		CompletedTasks:     counts.completed,
		InProgressTasks:    counts.inProgress,
		LateTasks:          counts.late,
		OverdueTasks:       counts.late,
		BlockedTasks:       counts.blocked,
		TotalCollaborators: len(collaborators),
	}

	for _, g := range e.registry.Groups() {
		groupRows := rowsForGroup(rows, g.Name)
		summary.GroupSummaries = append(summary.GroupSummaries, groupSummary(g.Name, g.ResponsibleNames(), groupRows))
	}
	if ungrouped := rowsForGroup(rows, ""); len(ungrouped) > 0 {
		summary.GroupSummaries = append(summary.GroupSummaries, groupSummary(domain.NoGroup, nil, ungrouped))
	}
	return summary
}

func rowsForGroup(rows []domain.TaskReport, name string) []domain.TaskReport {
	var out []domain.TaskReport
	for _, row := range rows {
		if row.Group == name {
			out = append(out, row)
		}
	}
	return out
}

func groupSummary(name string, responsibles []string, rows []domain.TaskReport) domain.GroupSummary {
	unique := dedupeByTaskID(rows)
	counts := countByStatus(unique)

	onTime, lateDeliveries := 0, 0
	for _, row := range unique {
		if row.Status != domain.StatusCompleted || row.DueDate == DueDateUnset {
			continue
		}
		if row.DaysLate == 0 {
			onTime++
		} else {
			lateDeliveries++
		}
	}

	return domain.GroupSummary{
		Group:            name,
		Responsibles:     responsibles,
		TotalTasks:       len(unique),
		CompletedTasks:   counts.completed,
		InProgressTasks:  counts.inProgress,
		LateTasks:        counts.late,
		BlockedTasks:     counts.blocked,
		OnTimeDeliveries: onTime,
		LateDeliveries:   lateDeliveries,
	}
}

// Collaborators aggregates rows per person. Comma-joined collaborator fields
// are expanded into one task copy per named person first; each person's copies
// are then deduplicated by (task name, group) rather than by task id, so a
// recurring task under the same name and group collapses into one entry.
func (e *Engine) Collaborators(rows []domain.TaskReport) []domain.CollaboratorReport {
	byName := make(map[string][]domain.TaskReport)
	var order []string

	for _, row := range rows {
		for _, name := range splitCollaborators(row.Collaborator) {
			if _, ok := byName[name]; !ok {
				order = append(order, name)
			}
			cp := row
			cp.Collaborator = name
			byName[name] = append(byName[name], cp)
		}
	}

	reports := make([]domain.CollaboratorReport, 0, len(order))
	for _, name := range order {
		reports = append(reports, collaboratorReport(name, byName[name]))
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CompletionRate > reports[j].CompletionRate
	})
	return reports
}

func collaboratorReport(name string, tasks []domain.TaskReport) domain.CollaboratorReport {
	seen := make(map[string]struct{}, len(tasks))
	unique := make([]domain.TaskReport, 0, len(tasks))
	for _, t := range tasks {
		group := t.Group
		if group == "" {
			group = domain.NoGroup
		}
		key := t.TaskName + "\x00" + group
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, t)
	}

	counts := countByStatus(unique)
	total := len(unique)

	rate := 0.0
	if total > 0 {
		rate = float64(counts.completed) / float64(total) * 100
	}

	lateSum, lateCount := 0, 0
	for _, t := range unique {
		if t.DaysLate > 0 && (t.Status == domain.StatusLate || t.Status == domain.StatusInProgress) {
			lateSum += t.DaysLate
			lateCount++
		}
	}
	avgLate := 0
	if lateCount > 0 {
		// Halves round away from zero: a 2.5-day mean reports as 3.
		avgLate = int(math.Round(float64(lateSum) / float64(lateCount)))
	}

	sort.SliceStable(unique, func(i, j int) bool {
		ri, rj := statusRank(unique[i].Status), statusRank(unique[j].Status)
		if ri != rj {
			return ri < rj
		}
		return unique[i].TaskName < unique[j].TaskName
	})

	return domain.CollaboratorReport{
		Collaborator:    name,
		TotalTasks:      total,
		CompletedTasks:  counts.completed,
		InProgressTasks: counts.inProgress,
		PendingTasks:    total - counts.completed,
		LateTasks:       counts.late,
		BlockedTasks:    counts.blocked,
		CompletionRate:  rate,
		AverageDaysLate: avgLate,
		Tasks:           unique,
	}
}

// Late tasks surface first, then delivered work, then everything else.
func statusRank(s domain.Status) int {
	switch s {
	case domain.StatusLate:
		return 0
	case domain.StatusCompleted:
		return 1
	default:
		return 2
	}
}

func splitCollaborators(field string) []string {
	if !strings.Contains(field, ",") {
		return []string{field}
	}
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}
