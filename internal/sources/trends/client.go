// Package trends adapts the search-interest series API. One fetch
// covers the configured keyword set (batched per the API's five-
// keyword request cap) and yields one record per keyword/day bucket.
package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/config"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/httpx"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/retry"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/sources"
)

// The interest API accepts at most five keywords per request.
const keywordBatch = 5

type Client struct {
	cfg    config.TrendsConfig
	client *http.Client
	policy retry.Policy
	now    func() time.Time
}

var _ ports.Source = (*Client)(nil)

func NewClient(cfg config.TrendsConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: httpx.New(cfg.Limits.Timeout),
		policy: sources.PolicyFromLimits(cfg.Limits),
		now:    time.Now,
	}
}

func (c *Client) Name() domain.Source { return domain.SourceTrendSeries }

// Fetch has no pagination cursor: the series window is bounded by
// configuration, and each keyword chunk is one request. The cursor
// encodes the resume chunk index for partial runs.
func (c *Client) Fetch(ctx context.Context, cursor string) ([]domain.Record, string, error) {
	if d := c.cfg.Limits.FetchDeadline; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if base == "" {
		return nil, "", fmt.Errorf("trends: base_url not configured: %w", domain.ErrBadQuery)
	}
	daysBack := c.cfg.DaysBack
	if daysBack <= 0 {
		daysBack = 90
	}
	maxItems := sources.MaxItems(c.cfg.Limits)

	chunks := chunkKeywords(c.cfg.Keywords)
	start := 0
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err == nil && n > 0 && n < len(chunks) {
			start = n
		}
	}

	var all []domain.Record
	for i := start; i < len(chunks); i++ {
		recs, err := c.fetchChunk(ctx, base, chunks[i], daysBack)
		if err != nil {
			return all, strconv.Itoa(i), fmt.Errorf("trends interest %v: %w", chunks[i], err)
		}
		all = append(all, recs...)
		if len(all) >= maxItems {
			if i+1 < len(chunks) {
				return all[:maxItems], strconv.Itoa(i + 1), nil
			}
			return all[:maxItems], "", nil
		}
		if ctx.Err() != nil {
			return all, strconv.Itoa(i + 1), ctx.Err()
		}
	}
	return all, "", nil
}

func (c *Client) fetchChunk(ctx context.Context, base string, keywords []string, daysBack int) ([]domain.Record, error) {
	mkReq := func() (*http.Request, error) {
		u, err := url.Parse(base + "/interest-over-time")
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("keywords", strings.Join(keywords, ","))
		q.Set("days", strconv.Itoa(daysBack))
		if c.cfg.Geo != "" {
			q.Set("geo", c.cfg.Geo)
		}
		u.RawQuery = q.Encode()
		return http.NewRequest(http.MethodGet, u.String(), nil)
	}

	var resp interestResponse
	if err := httpx.DoJSON(ctx, c.client, c.policy, mkReq, nil, &resp); err != nil {
		return nil, err
	}

	capturedAt := c.now().UTC()
	var recs []domain.Record
	for _, s := range resp.Series {
		for _, p := range s.Points {
			rec := domain.Record{
				Source:     domain.SourceTrendSeries,
				NativeID:   s.Keyword + ":" + p.Date,
				CapturedAt: capturedAt,
				Text:       s.Keyword,
				Engagement: map[string]int64{"interest": p.Value},
				Raw: map[string]any{
					"keyword": s.Keyword,
					"date":    p.Date,
				},
			}
			if c.cfg.Geo != "" {
				rec.Raw["geo"] = c.cfg.Geo
			}
			if t, err := time.Parse("2006-01-02", p.Date); err == nil {
				t = t.UTC()
				rec.PublishedAt = &t
			}
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func chunkKeywords(keywords []string) [][]string {
	trimmed := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			trimmed = append(trimmed, k)
		}
	}
	var chunks [][]string
	for i := 0; i < len(trimmed); i += keywordBatch {
		chunks = append(chunks, trimmed[i:min(i+keywordBatch, len(trimmed))])
	}
	return chunks
}
