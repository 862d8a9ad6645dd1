package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func sampleRecord() domain.Record {
	published := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return domain.Record{
		Source:      domain.SourceForum,
		NativeID:    "1abc",
		CapturedAt:  time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
		PublishedAt: &published,
		Text:        "Go 1.25 released",
		Author:      "gopher99",
		URL:         "https://www.reddit.com/r/golang/comments/1abc/",
		Engagement:  map[string]int64{"score": 1520, "comments": 210},
		Raw:         map[string]any{"subreddit": "golang"},
	}
}

func TestInsertAndExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	exists, err := s.Exists(ctx, rec.Source, rec.NativeID)
	if err != nil || exists {
		t.Fatalf("Exists before insert = (%v, %v), want (false, nil)", exists, err)
	}

	inserted, err := s.Insert(ctx, rec)
	if err != nil || !inserted {
		t.Fatalf("Insert = (%v, %v), want (true, nil)", inserted, err)
	}

	exists, err = s.Exists(ctx, rec.Source, rec.NativeID)
	if err != nil || !exists {
		t.Fatalf("Exists after insert = (%v, %v), want (true, nil)", exists, err)
	}
}

func TestInsertIgnoresDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	if _, err := s.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Text = "changed text"
	inserted, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("duplicate insert reported as written")
	}

	// The first write wins; rows are never updated in place.
	recs, err := s.RecentRecords(ctx, rec.Source, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Text != "Go 1.25 released" {
		t.Errorf("stored record = %+v, want original text", recs)
	}
}

func TestInsertSameIDDifferentSources(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sampleRecord()
	b := sampleRecord()
	b.Source = domain.SourceVideo

	insA, err := s.Insert(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	insB, err := s.Insert(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if !insA || !insB {
		t.Errorf("inserted = (%v, %v), want both true: key is (source, native_id)", insA, insB)
	}
}

func TestRecentRecordsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	if _, err := s.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	recs, err := s.RecentRecords(ctx, rec.Source, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	got := recs[0]
	if got.NativeID != rec.NativeID || got.Author != rec.Author || got.URL != rec.URL {
		t.Errorf("got %+v", got)
	}
	if got.Engagement["score"] != 1520 {
		t.Errorf("engagement = %v", got.Engagement)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(*rec.PublishedAt) {
		t.Errorf("published_at = %v, want %v", got.PublishedAt, rec.PublishedAt)
	}
	if got.Raw["subreddit"] != "golang" {
		t.Errorf("raw = %v", got.Raw)
	}
}

func TestInsertNilOptionalFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := domain.Record{
		Source:     domain.SourceTrendSeries,
		NativeID:   "golang:2026-08-25",
		CapturedAt: time.Now().UTC(),
		Engagement: map[string]int64{"interest": 78},
	}
	if _, err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert with nil optionals: %v", err)
	}

	recs, err := s.RecentRecords(ctx, rec.Source, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].PublishedAt != nil || recs[0].Author != "" {
		t.Errorf("got %+v", recs)
	}
}

func TestSaveRunAndGenerated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := domain.SyncRun{
		ID:         "run-1",
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Status:     domain.RunSuccess,
		Batches: []domain.MergeBatch{
			{Source: domain.SourceForum, Attempted: 5, Inserted: 5},
		},
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	gc := domain.GeneratedContent{
		Prompt:      "Go 1.25 release",
		Content:     "copy",
		Model:       "gemini-2.5-flash",
		ContentType: "tweet",
		Tone:        "playful",
	}
	if err := s.SaveGenerated(ctx, gc); err != nil {
		t.Fatalf("SaveGenerated: %v", err)
	}
}
