// Package merge implements the idempotent dedup/merge of canonical
// record batches into the shared store.
package merge

import (
	"context"
	"log"
	"sync"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/metrics"
)

// Engine merges adapter batches into the store. It is safe for
// concurrent use by independent adapters: merges for the same source
// are serialized with a per-source mutex, and the store's
// insert-if-absent keeps even racing same-source merges from
// double-inserting a native id. The lock covers one record's
// check-and-insert only, never a network fetch.
type Engine struct {
	store ports.Store

	mu    sync.Mutex
	locks map[domain.Source]*sync.Mutex
}

func New(store ports.Store) *Engine {
	return &Engine{store: store, locks: make(map[domain.Source]*sync.Mutex)}
}

func (e *Engine) sourceLock(source domain.Source) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[source]
	if !ok {
		l = &sync.Mutex{}
		e.locks[source] = l
	}
	return l
}

// Merge inserts records in order, skipping those already present under
// (source, native_id). A single record's write failure is recorded and
// the rest of the batch continues.
func (e *Engine) Merge(ctx context.Context, source domain.Source, records []domain.Record) domain.MergeBatch {
	batch := domain.MergeBatch{Source: source, Attempted: len(records)}
	lock := e.sourceLock(source)

	for _, rec := range records {
		lock.Lock()
		inserted, err := e.insertIfAbsent(ctx, rec)
		lock.Unlock()

		switch {
		case err != nil:
			batch.Failed++
			batch.Failures = append(batch.Failures, domain.RecordFailure{
				NativeID: rec.NativeID,
				Reason:   err.Error(),
			})
			log.Printf("merge %s: write %s failed: %v", source, rec.NativeID, err)
		case inserted:
			batch.Inserted++
			batch.Records = append(batch.Records, rec)
		default:
			batch.Skipped++
		}
	}

	metrics.RecordsInserted.WithLabelValues(string(source)).Add(float64(batch.Inserted))
	metrics.RecordsSkipped.WithLabelValues(string(source)).Add(float64(batch.Skipped))
	metrics.RecordsFailed.WithLabelValues(string(source)).Add(float64(batch.Failed))
	return batch
}

// insertIfAbsent checks existence first so stores whose Insert cannot
// distinguish "conflict" from "written" still report skips correctly;
// the store-level conflict clause remains the backstop under races.
func (e *Engine) insertIfAbsent(ctx context.Context, rec domain.Record) (bool, error) {
	exists, err := e.store.Exists(ctx, rec.Source, rec.NativeID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return e.store.Insert(ctx, rec)
}
