package storage

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"trelliq-api/domain"
)

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	boardTable       *aztables.Client
	settingsTable    *aztables.Client
	exportQueue      queueClient
	queueConcurrency int
}

// New creates a Storage instance from the given connection string.
func New(connStr, boardsTable, settingsTable, exportQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	bt := svc.NewClient(boardsTable)
	st := svc.NewClient(settingsTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, exportQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		boardTable:       bt,
		settingsTable:    st,
		exportQueue:      eq,
		queueConcurrency: queueConcurrencyForCPU(),
	}, nil
}

func queueConcurrencyForCPU() int {
	n := runtime.GOMAXPROCS(0) * 2
	if n < 2 {
		n = 2
	}
	if n > 16 {
		n = 16
	}
	return n
}

type notFoundError struct {
	boardID string
}

func (e notFoundError) Error() string {
	return "board not found: " + e.boardID
}

func (e notFoundError) BoardNotFound() {}

// Board snapshots are immutable documents; the whole export is stored as one
// JSON property instead of being split over entity columns.
type boardEntity struct {
	aztables.Entity
	Name    string `json:"Name"`
	Payload string `json:"Payload"`
}

// SaveBoard stores a board snapshot for the given user.
func (s *Storage) SaveBoard(ctx context.Context, userID string, board domain.Board) error {
	payload, err := json.Marshal(board)
	if err != nil {
		return err
	}
	ent := boardEntity{
		Entity: aztables.Entity{
			PartitionKey: userID,
			RowKey:       board.ID,
		},
		Name:    board.Name,
		Payload: string(payload),
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.boardTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// FetchBoard retrieves a stored board snapshot for the given user.
func (s *Storage) FetchBoard(ctx context.Context, userID, boardID string) (domain.Board, error) {
	resp, err := s.boardTable.GetEntity(ctx, userID, boardID, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Board{}, notFoundError{boardID: boardID}
		}
		return domain.Board{}, err
	}
	var ent boardEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Board{}, err
	}
	var board domain.Board
	if err := json.Unmarshal([]byte(ent.Payload), &board); err != nil {
		return domain.Board{}, err
	}
	if board.ID == "" {
		board.ID = ent.RowKey
	}
	return board, nil
}

func decodeSettingsEntity(data []byte) (domain.Settings, error) {
	var raw struct {
		DefaultWindowDays int  `json:"DefaultWindowDays"`
		IncludeUngrouped  bool `json:"IncludeUngrouped"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{DefaultWindowDays: raw.DefaultWindowDays, IncludeUngrouped: raw.IncludeUngrouped}, nil
}

func defaultSettings() domain.Settings {
	return domain.Settings{DefaultWindowDays: 7, IncludeUngrouped: true}
}

// FetchSettings retrieves report defaults for the given user. Users without a
// stored row get the built-in defaults.
func (s *Storage) FetchSettings(ctx context.Context, userID string) (domain.Settings, error) {
	ent, err := s.settingsTable.GetEntity(ctx, userID, userID, nil)
	if err != nil {
		if isNotFound(err) {
			return defaultSettings(), nil
		}
		return domain.Settings{}, err
	}
	return decodeSettingsEntity(ent.Value)
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// EnqueueExports sends the given export jobs to the export queue. Jobs are
// enqueued concurrently up to the configured limit; the first failure wins and
// remaining sends still run to completion.
func (s *Storage) EnqueueExports(ctx context.Context, userID string, jobs []domain.ExportJob) error {
	if len(jobs) == 0 {
		return nil
	}

	limit := s.queueConcurrency
	if limit <= 0 {
		limit = 1
	}
	if limit > len(jobs) {
		limit = len(jobs)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, job := range jobs {
		env := domain.ExportEnvelope{UserID: userID, Job: job}
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(msg string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := s.exportQueue.EnqueueMessage(ctx, msg, nil); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(string(data))
	}

	wg.Wait()
	return firstErr
}
