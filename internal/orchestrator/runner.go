// Package orchestrator drives one sync run: every enabled adapter
// fetches concurrently, each batch is merged into the store, and the
// run outcome is aggregated and persisted.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/merge"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/metrics"
)

// Trigger receives the merged batches of a completed run. Evaluation
// errors never affect the run outcome.
type Trigger interface {
	Fire(ctx context.Context, batches []domain.MergeBatch)
}

// Runner fans sync work out across adapters. An adapter's failure is
// isolated: the other adapters finish and their batches still merge.
type Runner struct {
	sources []ports.Source
	engine  *merge.Engine
	store   ports.Store
	trigger Trigger

	// AdapterDeadline bounds one adapter's fetch; Deadline bounds the
	// whole run. Zero means unbounded.
	AdapterDeadline time.Duration
	Deadline        time.Duration

	now   func() time.Time
	newID func() string
}

func New(sources []ports.Source, engine *merge.Engine, store ports.Store, trigger Trigger) *Runner {
	return &Runner{
		sources: sources,
		engine:  engine,
		store:   store,
		trigger: trigger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Sync runs every adapter once and returns the persisted run record.
// The returned error is non-nil only when the run as a whole failed
// (every adapter produced nothing).
func (r *Runner) Sync(ctx context.Context) (domain.SyncRun, error) {
	// Deadlines bound fetching only. Store writes and alert delivery
	// run detached, so records collected under an expired budget are
	// still persisted.
	storeCtx := context.WithoutCancel(ctx)
	if r.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Deadline)
		defer cancel()
	}

	run := domain.SyncRun{
		ID:        r.newID(),
		StartedAt: r.now().UTC(),
	}
	log.Printf("sync %s: starting %d adapters", run.ID, len(r.sources))

	batches := make([]domain.MergeBatch, len(r.sources))
	var wg sync.WaitGroup
	for i, src := range r.sources {
		wg.Add(1)
		go func(i int, src ports.Source) {
			defer wg.Done()
			batches[i] = r.syncOne(ctx, src)
		}(i, src)
	}
	wg.Wait()

	run.FinishedAt = r.now().UTC()
	run.Batches = batches
	run.Status = aggregate(batches)
	log.Printf("sync %s: %s (%s)", run.ID, run.Status, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	if err := r.store.SaveRun(storeCtx, run); err != nil {
		log.Printf("sync %s: save run log: %v", run.ID, err)
	}

	if r.trigger != nil {
		r.trigger.Fire(storeCtx, batches)
	}

	if run.Status == domain.RunFailure {
		return run, &RunError{Run: run}
	}
	return run, nil
}

func (r *Runner) syncOne(ctx context.Context, src ports.Source) domain.MergeBatch {
	fetchCtx := ctx
	if r.AdapterDeadline > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.AdapterDeadline)
		defer cancel()
	}

	name := src.Name()
	records, _, err := src.Fetch(fetchCtx, "")
	metrics.RecordsFetched.WithLabelValues(string(name)).Add(float64(len(records)))

	// Merge with a context detached from the fetch deadline: a timed
	// out fetch returns its partial records, and losing them to the
	// same expired deadline would turn degradation into data loss.
	batch := r.engine.Merge(context.WithoutCancel(ctx), name, records)
	if err != nil {
		batch.Partial = len(records) > 0
		batch.FetchError = err.Error()
		log.Printf("sync: %s fetch: %v (%d records kept)", name, err, len(records))
	}
	return batch
}

// aggregate maps per-adapter outcomes to the run status. Everything
// clean is success; everything empty-with-error is failure; any mix is
// a partial failure.
func aggregate(batches []domain.MergeBatch) domain.RunStatus {
	clean, dead := 0, 0
	for _, b := range batches {
		switch {
		case b.FetchError == "" && b.Failed == 0:
			clean++
		case b.Attempted == 0 && b.FetchError != "":
			dead++
		}
	}
	switch {
	case clean == len(batches):
		return domain.RunSuccess
	case dead == len(batches):
		return domain.RunFailure
	default:
		return domain.RunPartialFailure
	}
}

// RunError reports a run in which no adapter produced data.
type RunError struct {
	Run domain.SyncRun
}

func (e *RunError) Error() string {
	return "sync " + e.Run.ID + ": all adapters failed"
}
