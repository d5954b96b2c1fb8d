package domain

// ExportJob is a request to render a generated report to a tabular format.
// Jobs are enqueued to the export queue and consumed by the export worker.
type ExportJob struct {
	// ID carries the idempotency key when the job is enqueued.
	ID             string   `json:"id,omitempty"`
	IdempotencyKey string   `json:"idempotencyKey"`
	BoardID        string   `json:"boardId"`
	Format         string   `json:"format"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Groups         []string `json:"groups,omitempty"`
	Timestamp      int64    `json:"timestamp"`
}

// ExportEnvelope wraps an export job with the user requesting it.
type ExportEnvelope struct {
	UserID string    `json:"userId"`
	Job    ExportJob `json:"job"`
}
