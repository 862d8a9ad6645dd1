package merge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

// fakeStore is an in-memory Store keyed on (source, native_id).
type fakeStore struct {
	rows    map[string]domain.Record
	failIDs map[string]bool // native ids whose insert fails
	inserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]domain.Record), failIDs: make(map[string]bool)}
}

func key(source domain.Source, nativeID string) string {
	return string(source) + "\x00" + nativeID
}

func (s *fakeStore) Exists(_ context.Context, source domain.Source, nativeID string) (bool, error) {
	_, ok := s.rows[key(source, nativeID)]
	return ok, nil
}

func (s *fakeStore) Insert(_ context.Context, rec domain.Record) (bool, error) {
	if s.failIDs[rec.NativeID] {
		return false, errors.New("disk full")
	}
	k := key(rec.Source, rec.NativeID)
	if _, ok := s.rows[k]; ok {
		return false, nil
	}
	s.rows[k] = rec
	s.inserts++
	return true, nil
}

func (s *fakeStore) SaveRun(context.Context, domain.SyncRun) error { return nil }

func (s *fakeStore) SaveGenerated(context.Context, domain.GeneratedContent) error { return nil }
func (s *fakeStore) RecentRecords(context.Context, domain.Source, int) ([]domain.Record, error) {
	return nil, nil
}
func (s *fakeStore) Close() {}

func makeRecords(source domain.Source, n int) []domain.Record {
	recs := make([]domain.Record, n)
	for i := range recs {
		recs[i] = domain.Record{
			Source:     source,
			NativeID:   strconv.Itoa(i),
			CapturedAt: time.Now(),
			Text:       fmt.Sprintf("record %d", i),
		}
	}
	return recs
}

func TestMergeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	e := New(store)
	recs := makeRecords(domain.SourceForum, 10)

	first := e.Merge(context.Background(), domain.SourceForum, recs)
	if first.Inserted != 10 || first.Skipped != 0 || first.Failed != 0 {
		t.Fatalf("first merge = %+v, want 10 inserted", first)
	}

	second := e.Merge(context.Background(), domain.SourceForum, recs)
	if second.Inserted != 0 {
		t.Errorf("second merge inserted %d, want 0", second.Inserted)
	}
	if second.Skipped != 10 {
		t.Errorf("second merge skipped %d, want 10", second.Skipped)
	}
	if store.inserts != 10 {
		t.Errorf("store saw %d inserts, want 10", store.inserts)
	}
}

func TestMergeContinuesPastRecordFailures(t *testing.T) {
	store := newFakeStore()
	store.failIDs["3"] = true
	store.failIDs["7"] = true
	e := New(store)

	batch := e.Merge(context.Background(), domain.SourceVideo, makeRecords(domain.SourceVideo, 10))
	if batch.Inserted != 8 {
		t.Errorf("inserted %d, want 8", batch.Inserted)
	}
	if batch.Failed != 2 {
		t.Errorf("failed %d, want 2", batch.Failed)
	}
	if len(batch.Failures) != 2 {
		t.Fatalf("got %d failure entries, want 2", len(batch.Failures))
	}
	if batch.Failures[0].NativeID != "3" || batch.Failures[1].NativeID != "7" {
		t.Errorf("failure ids = %v, want [3 7]", batch.Failures)
	}
}

func TestDedupKeyIsScopedPerSource(t *testing.T) {
	store := newFakeStore()
	e := New(store)

	a := e.Merge(context.Background(), domain.SourceShortPost, []domain.Record{
		{Source: domain.SourceShortPost, NativeID: "42"},
	})
	b := e.Merge(context.Background(), domain.SourceVideo, []domain.Record{
		{Source: domain.SourceVideo, NativeID: "42"},
	})
	if a.Inserted != 1 || b.Inserted != 1 {
		t.Errorf("inserted %d and %d, want 1 and 1: same native id under different sources must both insert",
			a.Inserted, b.Inserted)
	}
}

func TestMergeKeepsInsertedRecordsForRuleEvaluation(t *testing.T) {
	store := newFakeStore()
	e := New(store)
	recs := makeRecords(domain.SourceForum, 3)

	e.Merge(context.Background(), domain.SourceForum, recs[:2])
	batch := e.Merge(context.Background(), domain.SourceForum, recs)

	if len(batch.Records) != 1 {
		t.Fatalf("batch kept %d records, want 1 (only the new one)", len(batch.Records))
	}
	if batch.Records[0].NativeID != "2" {
		t.Errorf("kept record %q, want 2", batch.Records[0].NativeID)
	}
}
