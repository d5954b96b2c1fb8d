package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"trelliq-api/domain"
)

type exportBatch struct {
	userID string
	jobs   []domain.ExportJob
	added  []string // dedupe keys recorded for this batch (for rollback on enqueue failure)
}

var (
	once           sync.Once
	batches        chan exportBatch
	workerCount    int
	batchBuf       int
	enqueueTimeout time.Duration
	handoffTimeout time.Duration
	bg             = context.Background()
	globalStore    Storage
	globalDeduper  Deduper
	globalLog      *log.Logger
	workerWG       sync.WaitGroup
)

// shutdownExportDispatcher stops worker goroutines and clears shared state. It is intended for tests.
func shutdownExportDispatcher() {
	if batches != nil {
		close(batches)
		batches = nil
	}

	workerWG.Wait()

	globalStore = nil
	globalDeduper = nil
	globalLog = nil
	workerCount = 0
	batchBuf = 0
	enqueueTimeout = 0
	handoffTimeout = 0
	once = sync.Once{}
	workerWG = sync.WaitGroup{}
}

func initExportDispatcher(store Storage, deduper Deduper, log *log.Logger) {
	once.Do(func() {
		globalStore = store
		globalDeduper = deduper
		if log == nil {
			panic("Logger is not initialized")
		}
		globalLog = log

		workerCount = envInt("EXPORT_WORKERS", 8)
		batchBuf = envInt("EXPORT_BUFFER", 1024)
		enqueueTimeout = envDur("EXPORT_TIMEOUT", 60*time.Second)
		handoffTimeout = envDur("EXPORT_HANDOFF_TIMEOUT", 15*time.Millisecond)

		batches = make(chan exportBatch, batchBuf)
		for i := 0; i < workerCount; i++ {
			workerWG.Add(1)
			go worker(i, batches)
		}
		globalLog.Infof("export dispatcher started, workers: %d, buffer: %d, timeout: %v, handoff: %v", workerCount, batchBuf, enqueueTimeout, handoffTimeout)
	})
}

func newEnqueueContext() (context.Context, context.CancelFunc) {
	timeout := enqueueTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(bg, timeout)
}

func worker(id int, batchCh <-chan exportBatch) {
	defer workerWG.Done()
	for b := range batchCh {
		ctx, cancel := context.WithTimeout(bg, enqueueTimeout)
		err := globalStore.EnqueueExports(ctx, b.userID, b.jobs)
		cancel()

		if err != nil {
			for _, k := range b.added {
				if rerr := globalDeduper.Remove(bg, b.userID, k); rerr != nil {
					globalLog.Errorf("dedupe rollback failed, err: %v, key: %s, user: %s", rerr, k, b.userID)
				}
			}
			globalLog.Errorf("export enqueue failed, err: %v, user: %s, count: %d, worker: %d", err, b.userID, len(b.jobs), id)
		}
	}
}

func tryEnqueueExport(b exportBatch) bool {
	if batches == nil {
		return false
	}

	if ok, closed := trySendNonBlocking(batches, b); closed {
		return false
	} else if ok {
		return true
	}

	if handoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(handoffTimeout)
	defer timer.Stop()

	ok, closed := sendWithTimer(batches, b, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking(ch chan exportBatch, b exportBatch) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- b:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan exportBatch, b exportBatch, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- b:
		return true, false
	case <-timer:
		return false, false
	}
}
