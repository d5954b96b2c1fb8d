package domain

// Status is the coarse lifecycle state of a task as derived from the list the
// card currently sits in.
type Status string

const (
	StatusCompleted  Status = "Completed"
	StatusInProgress Status = "In Progress"
	StatusLate       Status = "Late"
	StatusBlocked    Status = "Blocked"
	StatusPlanning   Status = "Planning"
	StatusRecurring  Status = "Recurring"
)

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusLate, StatusBlocked, StatusPlanning, StatusRecurring:
		return true
	}
	return false
}

// Sentinel values used when a reference cannot be resolved. Rows carry these
// literals instead of failing.
const (
	UnassignedCollaborator = "Unassigned"
	ListNotFound           = "List not found"
	NoGroup                = "No Group"
)

// CollaboratorSeparator joins the display names of card members that share a
// group into a single row's collaborator field.
const CollaboratorSeparator = ", "

// TaskReport is one row of the generated report. TaskID is inherited from the
// source card and is deliberately not unique across rows: a card assigned to
// members of several groups produces one row per distinct group, plus one row
// per ungrouped member. Consumers counting tasks must deduplicate by TaskID.
type TaskReport struct {
	TaskID            string `json:"taskId"`
	Collaborator      string `json:"collaborator"`
	TaskName          string `json:"taskName"`
	ListName          string `json:"listName"`
	DueDate           string `json:"dueDate"`
	CreatedAt         string `json:"createdAt,omitempty"`
	CompletedAt       string `json:"completedAt,omitempty"`
	Status            Status `json:"status"`
	DaysLate          int    `json:"daysLate"`
	Notes             string `json:"notes,omitempty"`
	Group             string `json:"group,omitempty"`
	CurrentStage      string `json:"currentStage,omitempty"`
	FinishedForReview bool   `json:"finishedForReview,omitempty"`
	Done              bool   `json:"done,omitempty"`
	InReview          bool   `json:"inReview,omitempty"`
}

// CollaboratorReport aggregates one person's deduplicated rows.
type CollaboratorReport struct {
	Collaborator    string       `json:"collaborator"`
	TotalTasks      int          `json:"totalTasks"`
	CompletedTasks  int          `json:"completedTasks"`
	InProgressTasks int          `json:"inProgressTasks"`
	PendingTasks    int          `json:"pendingTasks"`
	LateTasks       int          `json:"lateTasks"`
	BlockedTasks    int          `json:"blockedTasks"`
	CompletionRate  float64      `json:"completionRate"`
	AverageDaysLate int          `json:"averageDaysLate"`
	Tasks           []TaskReport `json:"tasks"`
}

// GroupSummary aggregates one group's deduplicated rows.
type GroupSummary struct {
	Group             string   `json:"group"`
	Responsibles      []string `json:"responsibles"`
	TotalTasks        int      `json:"totalTasks"`
	CompletedTasks    int      `json:"completedTasks"`
	InProgressTasks   int      `json:"inProgressTasks"`
	LateTasks         int      `json:"lateTasks"`
	BlockedTasks      int      `json:"blockedTasks"`
	OnTimeDeliveries  int      `json:"onTimeDeliveries"`
	LateDeliveries    int      `json:"lateDeliveries"`
}

// ReportSummary is the board-wide rollup over unique tasks.
type ReportSummary struct {
	TotalTasks         int            `json:"totalTasks"`
	CompletedTasks     int            `json:"completedTasks"`
	InProgressTasks    int            `json:"inProgressTasks"`
	LateTasks          int            `json:"lateTasks"`
	OverdueTasks       int            `json:"overdueTasks"`
	BlockedTasks       int            `json:"blockedTasks"`
	TotalCollaborators int            `json:"totalCollaborators"`
	GroupSummaries     []GroupSummary `json:"groupSummaries"`
}
