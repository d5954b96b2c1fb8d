package api

const (
	// Full board exports run large; anything bigger than this is rejected.
	postBoardMaxSize = 16 << 20 // 16 MiB

	postExportMaxSize = 64 * 1024 // 64 KiB
)

// POST /api/boards response body
type boardResponse struct {
	BoardID string `json:"boardId"`
	Name    string `json:"name"`
	Cards   int    `json:"cards"`
	Lists   int    `json:"lists"`
	Members int    `json:"members"`
}

// 400 body for structural validation failures; one message per violation.
type validationErrorResponse struct {
	Errors []string `json:"errors"`
}

// POST /api/reports request body
type reportRequest struct {
	BoardID string   `json:"boardId"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Groups  []string `json:"groups,omitempty"`
}

// POST /api/exports response body
type postExportResponse struct {
	IdempotencyKeys []string `json:"idempotencyKeys,omitempty"`
	Error           string   `json:"error,omitempty"`
}

const dateLayout = "2006-01-02"
