package ports

import (
	"context"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

// Source fetches raw content from one external API and maps it to
// canonical records. Fetch pages from cursor until the adapter's item
// budget, end-of-results, or ctx deadline, whichever comes first. On a
// retry-exhausted rate limit or an expired deadline it returns the
// records collected so far together with the error, so partial
// progress is never discarded.
type Source interface {
	Name() domain.Source
	Fetch(ctx context.Context, cursor string) (records []domain.Record, nextCursor string, err error)
}

// Store is the durable tabular store shared by all adapters. Insert
// must be atomic insert-if-absent on (source, native_id); it reports
// whether a row was actually written.
type Store interface {
	Exists(ctx context.Context, source domain.Source, nativeID string) (bool, error)
	Insert(ctx context.Context, rec domain.Record) (inserted bool, err error)
	SaveRun(ctx context.Context, run domain.SyncRun) error
	SaveGenerated(ctx context.Context, gc domain.GeneratedContent) error
	RecentRecords(ctx context.Context, source domain.Source, limit int) ([]domain.Record, error)
	Close()
}

// GenerateOptions shape one generation request.
type GenerateOptions struct {
	ContentType string // "tweet", "short ad copy", "blog post intro", ...
	Tone        string // "engaging", "professional", ...
	Keywords    []string
}

// Brain is the external text-generation service.
type Brain interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (text string, model string, err error)
}

// Sink delivers one alert message to an operator channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, message string) error
}
