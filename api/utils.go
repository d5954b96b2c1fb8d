package api

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"trelliq-api/domain"
)

var (
	lastTimestamp int64
)

func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// finalizeExports stamps each job with a monotonic timestamp and fills in
// missing idempotency keys. Generated keys double as the job ID so a retried
// request maps back to the same queued work.
func finalizeExports(jobs []domain.ExportJob) []string {
	keys := make([]string, len(jobs))
	for i := range jobs {
		ts := nextTimestamp()
		jobs[i].Timestamp = ts
		if jobs[i].IdempotencyKey == "" {
			jobs[i].IdempotencyKey = strconv.FormatInt(ts, 36)
		}
		if jobs[i].ID == "" {
			jobs[i].ID = jobs[i].IdempotencyKey
		}
		keys[i] = jobs[i].IdempotencyKey
	}
	return keys
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envDur(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
