package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wisesobriety/wisesober/utils"
)

// EnrichmentQueue attaches summaries to saved check-ins in the background.
// When enabled, Save returns as soon as the bare record is persisted (its
// summary reads as absent, i.e. pending) and a single worker drains the
// queue sequentially, one generation call at a time. Jobs are best-effort:
// a dropped or failed job leaves the record summaryless, and the backfill
// operation picks it up later.
type EnrichmentQueue struct {
	store *CheckInStore
	jobs  chan enrichmentJob
	stop  chan struct{}
	done  chan struct{}
}

type enrichmentJob struct {
	jobID    string
	recordID string
}

// perJobTimeout bounds one generation+persist cycle so a hung upstream call
// cannot wedge the worker forever.
const perJobTimeout = 2 * time.Minute

func NewEnrichmentQueue(store *CheckInStore, depth int) *EnrichmentQueue {
	if depth <= 0 {
		depth = 64
	}
	return &EnrichmentQueue{
		store: store,
		jobs:  make(chan enrichmentJob, depth),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (q *EnrichmentQueue) Start() {
	go q.run()
}

// Stop signals the worker and waits for the in-flight job to finish.
func (q *EnrichmentQueue) Stop() {
	close(q.stop)
	<-q.done
}

// Enqueue schedules summary generation for a stored record. Returns the job
// id, or "" when the queue is full (the record stays pending for backfill).
func (q *EnrichmentQueue) Enqueue(recordID string) string {
	job := enrichmentJob{jobID: uuid.NewString(), recordID: recordID}
	select {
	case q.jobs <- job:
		return job.jobID
	default:
		if utils.Sugar != nil {
			utils.Sugar.Warnf("enrichment queue full, dropping job for check-in %s", recordID)
		}
		return ""
	}
}

func (q *EnrichmentQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case job := <-q.jobs:
			ctx, cancel := context.WithTimeout(context.Background(), perJobTimeout)
			_, err := q.store.AttachSummary(ctx, job.recordID)
			cancel()
			if err != nil && utils.Sugar != nil {
				utils.Sugar.Errorf("enrichment job %s failed for check-in %s: %v", job.jobID, job.recordID, err)
			}
		}
	}
}
