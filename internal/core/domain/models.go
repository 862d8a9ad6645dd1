package domain

import "time"

// Source identifies the origin adapter of a record.
type Source string

const (
	SourceShortPost   Source = "shortpost"
	SourceVideo       Source = "video"
	SourceForum       Source = "forum"
	SourceTrendSeries Source = "trends"

	// SourceGenerated tags rows produced by the generation service,
	// kept in their own table.
	SourceGenerated Source = "generated"
)

// Record is the normalized representation for all sources.
// (Source, NativeID) is the global dedup key in the store.
type Record struct {
	Source      Source
	NativeID    string
	CapturedAt  time.Time
	PublishedAt *time.Time // origin-reported, nil when the source has none
	Text        string
	Author      string
	URL         string
	Engagement  map[string]int64 // metric set varies by source
	Raw         map[string]any   // original payload, preserved for audit
}

// RecordFailure describes one record the merge engine could not store.
type RecordFailure struct {
	NativeID string
	Reason   string
}

// MergeBatch is the result of merging one adapter's fetch into the store.
type MergeBatch struct {
	Source     Source
	Attempted  int
	Inserted   int
	Skipped    int // already present under (source, native_id)
	Failed     int
	Failures   []RecordFailure // in record order
	Records    []Record        // inserted records, for rule evaluation
	Partial    bool            // the fetch itself ended early (rate limit, deadline)
	FetchError string          // adapter error, if any
}

// RunStatus is the overall outcome of one sync run.
type RunStatus string

const (
	RunSuccess        RunStatus = "success"
	RunPartialFailure RunStatus = "partial_failure"
	RunFailure        RunStatus = "failure"
)

// SyncRun is one execution of the orchestrator across all configured
// adapters. Never mutated after completion.
type SyncRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
	Batches    []MergeBatch
}

// Alert is a notification emitted when a configured rule matched newly
// merged data.
type Alert struct {
	Rule     string
	Source   Source
	NativeID string // empty for aggregate alerts
	Message  string
}

// GeneratedContent is one output of the generation service, persisted
// alongside the ingested records.
type GeneratedContent struct {
	ID          int64
	Prompt      string
	Content     string
	Model       string
	ContentType string
	Tone        string
	CreatedAt   time.Time
}
