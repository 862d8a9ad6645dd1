package shortpost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/config"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

func testConfig(baseURL string) config.ShortPostConfig {
	return config.ShortPostConfig{
		Enabled:     true,
		BaseURL:     baseURL,
		BearerToken: "test-token",
		Terms:       []string{"golang", "go generics"},
		Limits:      config.Limits{MaxRetries: 1, Backoff: time.Millisecond},
	}
}

const pageOne = `{
  "data": [
    {
      "id": "100",
      "text": "go 1.25 is out",
      "created_at": "2026-08-20T10:00:00Z",
      "author_id": "u1",
      "public_metrics": {"like_count": 42, "retweet_count": 7, "reply_count": 3, "quote_count": 1, "impression_count": 9000}
    }
  ],
  "includes": {"users": [{"id": "u1", "username": "gopher", "name": "The Gopher"}]},
  "meta": {"next_token": "t2", "result_count": 1}
}`

const pageTwo = `{
  "data": [
    {"id": "101", "text": "second page", "created_at": "2026-08-21T10:00:00Z", "author_id": "u2", "public_metrics": {}}
  ],
  "meta": {"result_count": 1}
}`

func TestFetchPagesAndMaps(t *testing.T) {
	var gotAuth string
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		queries = append(queries, r.URL.Query().Get("query"))
		if r.URL.Query().Get("next_token") == "t2" {
			fmt.Fprint(w, pageTwo)
			return
		}
		fmt.Fprint(w, pageOne)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	recs, cursor, err := c.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if cursor != "" {
		t.Errorf("cursor = %q, want empty at end of results", cursor)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header = %q", gotAuth)
	}

	// Quoting only applies to multi-word terms.
	want := `(golang OR "go generics") -is:retweet -is:reply lang:en`
	if queries[0] != want {
		t.Errorf("query = %q, want %q", queries[0], want)
	}

	r := recs[0]
	if r.Source != domain.SourceShortPost || r.NativeID != "100" {
		t.Errorf("record key = %s/%s", r.Source, r.NativeID)
	}
	if r.Author != "gopher" {
		t.Errorf("author = %q, want gopher", r.Author)
	}
	if r.Engagement["likes"] != 42 || r.Engagement["impressions"] != 9000 {
		t.Errorf("engagement = %v", r.Engagement)
	}
	if r.PublishedAt == nil || !r.PublishedAt.Equal(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("published_at = %v", r.PublishedAt)
	}
	if r.URL != "https://twitter.com/i/web/status/100" {
		t.Errorf("url = %q", r.URL)
	}
}

func TestFetchKeepsTokenOnEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [], "meta": {"next_token": "t9", "result_count": 0}}`)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	recs, cursor, err := c.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records, want 0", len(recs))
	}
	if cursor != "t9" {
		t.Errorf("cursor = %q, want t9 so the next run resumes the search", cursor)
	}
}

func TestFetchStopsAtItemBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page claims more results are available.
		fmt.Fprint(w, pageOne)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Limits.MaxItems = 3
	c := NewClient(cfg)

	recs, cursor, err := c.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("got %d records, want 3", len(recs))
	}
	if cursor != "t2" {
		t.Errorf("cursor = %q, want t2 for resumption", cursor)
	}
}

func TestFetchClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, _, err := c.Fetch(context.Background(), "")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestFetchClassifiesAuthFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Limits.MaxRetries = 5
	c := NewClient(cfg)
	_, _, err := c.Fetch(context.Background(), "")
	if !errors.Is(err, domain.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	if calls != 1 {
		t.Errorf("server hit %d times, want 1: auth failures must not retry", calls)
	}
}
