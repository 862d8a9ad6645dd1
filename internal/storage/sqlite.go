package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
)

// SQLiteStore is the local single-file store used when no DATABASE_URL
// is configured. Same logical schema as Postgres; INSERT OR IGNORE
// gives the atomic insert-if-absent.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL allows concurrent readers while a writer is active.
	// busy_timeout reduces SQLITE_BUSY errors under contention between
	// concurrent adapter merges.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS records (
			source TEXT NOT NULL,
			native_id TEXT NOT NULL,
			captured_at TIMESTAMP NOT NULL,
			published_at TIMESTAMP,
			content TEXT,
			author TEXT,
			url TEXT,
			engagement TEXT,
			raw TEXT,
			PRIMARY KEY (source, native_id)
		)`,
		`CREATE TABLE IF NOT EXISTS generated_content (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prompt TEXT NOT NULL,
			content TEXT NOT NULL,
			model TEXT,
			content_type TEXT,
			tone TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			status TEXT NOT NULL,
			batches TEXT
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, source domain.Source, nativeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM records WHERE source=? AND native_id=?)",
		string(source), nativeID).Scan(&exists)
	return exists, err
}

func (s *SQLiteStore) Insert(ctx context.Context, rec domain.Record) (bool, error) {
	engagement, raw, err := marshalMaps(rec)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (source, native_id, captured_at, published_at, content, author, url, engagement, raw)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Source), rec.NativeID, rec.CapturedAt, rec.PublishedAt,
		nullable(rec.Text), nullable(rec.Author), nullable(rec.URL),
		nullableBytes(engagement), nullableBytes(raw))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run domain.SyncRun) error {
	batches, err := json.Marshal(batchSummaries(run.Batches))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, started_at, finished_at, status, batches)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, string(run.Status), string(batches))
	return err
}

func (s *SQLiteStore) SaveGenerated(ctx context.Context, gc domain.GeneratedContent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_content (prompt, content, model, content_type, tone)
		 VALUES (?, ?, ?, ?, ?)`,
		gc.Prompt, gc.Content, gc.Model, gc.ContentType, gc.Tone)
	return err
}

func (s *SQLiteStore) RecentRecords(ctx context.Context, source domain.Source, limit int) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, native_id, captured_at, published_at, content, author, url, engagement, raw
		 FROM records WHERE source=? ORDER BY captured_at DESC LIMIT ?`,
		string(source), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Record
	for rows.Next() {
		var (
			rec                domain.Record
			src                string
			publishedAt        sql.NullTime
			content, author, u sql.NullString
			engagementS, rawS  sql.NullString
		)
		if err := rows.Scan(&src, &rec.NativeID, &rec.CapturedAt, &publishedAt,
			&content, &author, &u, &engagementS, &rawS); err != nil {
			return nil, err
		}
		rec.Source = domain.Source(src)
		if publishedAt.Valid {
			t := publishedAt.Time
			rec.PublishedAt = &t
		}
		rec.Text = content.String
		rec.Author = author.String
		rec.URL = u.String
		if err := unmarshalMaps([]byte(engagementS.String), []byte(rawS.String), &rec); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
