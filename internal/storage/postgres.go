package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
)

// PostgresStore is the primary tabular store. All adapters share it;
// the (source, native_id) primary key plus ON CONFLICT DO NOTHING make
// Insert an atomic insert-if-absent, so concurrent merges for the same
// source cannot double-insert a native id.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

var _ ports.Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	s := &PostgresStore{Pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS records (
			source TEXT NOT NULL,
			native_id TEXT NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			published_at TIMESTAMPTZ,
			content TEXT,
			author TEXT,
			url TEXT,
			engagement JSONB,
			raw JSONB,
			PRIMARY KEY (source, native_id)
		)`,
		`CREATE TABLE IF NOT EXISTS generated_content (
			id BIGSERIAL PRIMARY KEY,
			prompt TEXT NOT NULL,
			content TEXT NOT NULL,
			model TEXT,
			content_type TEXT,
			tone TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			batches JSONB
		)`,
	}
	for _, q := range queries {
		if _, err := s.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, source domain.Source, nativeID string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM records WHERE source=$1 AND native_id=$2)",
		string(source), nativeID).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) Insert(ctx context.Context, rec domain.Record) (bool, error) {
	engagement, raw, err := marshalMaps(rec)
	if err != nil {
		return false, err
	}
	tag, err := s.Pool.Exec(ctx,
		`INSERT INTO records (source, native_id, captured_at, published_at, content, author, url, engagement, raw)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (source, native_id) DO NOTHING`,
		string(rec.Source), rec.NativeID, rec.CapturedAt, rec.PublishedAt,
		nullable(rec.Text), nullable(rec.Author), nullable(rec.URL), engagement, raw)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run domain.SyncRun) error {
	batches, err := json.Marshal(batchSummaries(run.Batches))
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO sync_runs (id, started_at, finished_at, status, batches)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.StartedAt, run.FinishedAt, string(run.Status), batches)
	return err
}

func (s *PostgresStore) SaveGenerated(ctx context.Context, gc domain.GeneratedContent) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO generated_content (prompt, content, model, content_type, tone)
		 VALUES ($1, $2, $3, $4, $5)`,
		gc.Prompt, gc.Content, gc.Model, gc.ContentType, gc.Tone)
	return err
}

func (s *PostgresStore) RecentRecords(ctx context.Context, source domain.Source, limit int) ([]domain.Record, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT source, native_id, captured_at, published_at, content, author, url, engagement, raw
		 FROM records WHERE source=$1 ORDER BY captured_at DESC LIMIT $2`,
		string(source), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Record
	for rows.Next() {
		var (
			rec                 domain.Record
			src                 string
			publishedAt         *time.Time
			content, author, u  *string
			engagementB, rawB   []byte
		)
		if err := rows.Scan(&src, &rec.NativeID, &rec.CapturedAt, &publishedAt,
			&content, &author, &u, &engagementB, &rawB); err != nil {
			return nil, err
		}
		rec.Source = domain.Source(src)
		rec.PublishedAt = publishedAt
		rec.Text = deref(content)
		rec.Author = deref(author)
		rec.URL = deref(u)
		if err := unmarshalMaps(engagementB, rawB, &rec); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (s *PostgresStore) Close() {
	s.Pool.Close()
}

// batchSummary is the persisted per-batch run-log shape. Record bodies
// live in the records table already; only counts go in the run log.
type batchSummary struct {
	Source    string                 `json:"source"`
	Attempted int                    `json:"attempted"`
	Inserted  int                    `json:"inserted"`
	Skipped   int                    `json:"skipped"`
	Failed    int                    `json:"failed"`
	Partial   bool                   `json:"partial,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Failures  []domain.RecordFailure `json:"failures,omitempty"`
}

func batchSummaries(batches []domain.MergeBatch) []batchSummary {
	out := make([]batchSummary, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchSummary{
			Source:    string(b.Source),
			Attempted: b.Attempted,
			Inserted:  b.Inserted,
			Skipped:   b.Skipped,
			Failed:    b.Failed,
			Partial:   b.Partial,
			Error:     b.FetchError,
			Failures:  b.Failures,
		})
	}
	return out
}

func marshalMaps(rec domain.Record) (engagement, raw []byte, err error) {
	if len(rec.Engagement) > 0 {
		if engagement, err = json.Marshal(rec.Engagement); err != nil {
			return nil, nil, fmt.Errorf("marshal engagement: %w", err)
		}
	}
	if len(rec.Raw) > 0 {
		if raw, err = json.Marshal(rec.Raw); err != nil {
			return nil, nil, fmt.Errorf("marshal raw: %w", err)
		}
	}
	return engagement, raw, nil
}

func unmarshalMaps(engagement, raw []byte, rec *domain.Record) error {
	if len(engagement) > 0 {
		if err := json.Unmarshal(engagement, &rec.Engagement); err != nil {
			return fmt.Errorf("unmarshal engagement: %w", err)
		}
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Raw); err != nil {
			return fmt.Errorf("unmarshal raw: %w", err)
		}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
