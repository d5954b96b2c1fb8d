package api

import (
	"context"

	"trelliq-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	SaveBoard(ctx context.Context, userID string, board domain.Board) error
	FetchBoard(ctx context.Context, userID, boardID string) (domain.Board, error)
	FetchSettings(ctx context.Context, userID string) (domain.Settings, error)
	EnqueueExports(ctx context.Context, userID string, jobs []domain.ExportJob) error
}

// BoardNotFoundError is returned when a requested board snapshot does not
// exist for the user.
type BoardNotFoundError interface {
	error
	BoardNotFound()
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate export jobs.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
	// AddMany records the keys in one round trip; the result marks which keys
	// were newly added.
	AddMany(ctx context.Context, userID string, keys []string) ([]bool, error)
}
