package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"trelliq-api/domain"
)

type fakeQueue struct {
	mu       sync.Mutex
	messages []string
	inFlight int
	peak     int
	err      error
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.err != nil {
		return azqueue.EnqueueMessagesResponse{}, f.err
	}

	f.mu.Lock()
	f.messages = append(f.messages, content)
	f.mu.Unlock()
	return azqueue.EnqueueMessagesResponse{}, nil
}

func (f *fakeQueue) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

func TestEnqueueExportsWrapsJobsInEnvelopes(t *testing.T) {
	q := &fakeQueue{}
	s := &Storage{exportQueue: q, queueConcurrency: 4}

	jobs := []domain.ExportJob{
		{ID: "j1", BoardID: "b1", Format: "csv"},
		{ID: "j2", BoardID: "b1", Format: "xlsx"},
	}
	if err := s.EnqueueExports(context.Background(), "user", jobs); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	msgs := q.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	seen := make(map[string]bool)
	for _, msg := range msgs {
		var env domain.ExportEnvelope
		if err := json.Unmarshal([]byte(msg), &env); err != nil {
			t.Fatalf("invalid envelope: %v", err)
		}
		if env.UserID != "user" {
			t.Fatalf("unexpected user: %q", env.UserID)
		}
		seen[env.Job.ID] = true
	}
	if !seen["j1"] || !seen["j2"] {
		t.Fatalf("missing jobs in queue: %#v", seen)
	}
}

func TestEnqueueExportsBoundsConcurrency(t *testing.T) {
	q := &fakeQueue{}
	s := &Storage{exportQueue: q, queueConcurrency: 2}

	jobs := make([]domain.ExportJob, 20)
	for i := range jobs {
		jobs[i] = domain.ExportJob{ID: "j", BoardID: "b1"}
	}
	if err := s.EnqueueExports(context.Background(), "user", jobs); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if q.peak > 2 {
		t.Fatalf("expected at most 2 concurrent sends, saw %d", q.peak)
	}
	if len(q.Messages()) != 20 {
		t.Fatalf("expected all jobs enqueued, got %d", len(q.Messages()))
	}
}

func TestEnqueueExportsPropagatesFirstError(t *testing.T) {
	q := &fakeQueue{err: errors.New("queue down")}
	s := &Storage{exportQueue: q, queueConcurrency: 2}

	err := s.EnqueueExports(context.Background(), "user", []domain.ExportJob{{ID: "j1", BoardID: "b1"}})
	if err == nil || err.Error() != "queue down" {
		t.Fatalf("expected queue error, got %v", err)
	}
}

func TestEnqueueExportsEmpty(t *testing.T) {
	s := &Storage{}
	if err := s.EnqueueExports(context.Background(), "user", nil); err != nil {
		t.Fatalf("expected nil for empty batch, got %v", err)
	}
}

func TestDecodeSettingsEntity(t *testing.T) {
	data := []byte(`{"PartitionKey": "u", "RowKey": "u", "DefaultWindowDays": 30, "IncludeUngrouped": true}`)
	settings, err := decodeSettingsEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if settings.DefaultWindowDays != 30 || !settings.IncludeUngrouped {
		t.Fatalf("unexpected settings: %#v", settings)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()
	if s.DefaultWindowDays <= 0 {
		t.Fatalf("expected positive default window, got %d", s.DefaultWindowDays)
	}
}

func TestNotFoundErrorMarksBoardNotFound(t *testing.T) {
	var err error = notFoundError{boardID: "b1"}

	type boardNotFound interface {
		error
		BoardNotFound()
	}
	var nf boardNotFound
	if !errors.As(err, &nf) {
		t.Fatal("expected notFoundError to satisfy the marker interface")
	}
}

func TestQueueConcurrencyForCPUWithinBounds(t *testing.T) {
	n := queueConcurrencyForCPU()
	if n < 2 || n > 16 {
		t.Fatalf("concurrency out of bounds: %d", n)
	}
}
