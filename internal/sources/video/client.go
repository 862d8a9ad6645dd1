// Package video adapts the video catalog API: a search pass collects
// video ids per term, a second pass batches up to 50 ids per
// statistics call.
package video

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

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	statsBatchSize = 50
)

type Client struct {
	cfg    config.VideoConfig
	client *http.Client
	policy retry.Policy
	now    func() time.Time
}

var _ ports.Source = (*Client)(nil)

func NewClient(cfg config.VideoConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: httpx.New(cfg.Limits.Timeout),
		policy: sources.PolicyFromLimits(cfg.Limits),
		now:    time.Now,
	}
}

func (c *Client) Name() domain.Source { return domain.SourceVideo }

// classify treats quota 403s as rate limits (they clear on the next
// quota window); any other 403 is a key problem and fatal.
func classify(status int, body []byte) error {
	if status == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "quota") {
		return fmt.Errorf("http 403 quota exceeded: %w", domain.ErrRateLimited)
	}
	return httpx.DefaultClassify(status, body)
}

// Fetch walks the configured terms in order. The cursor encodes
// "termIndex|pageToken" so a partial run resumes where it stopped.
func (c *Client) Fetch(ctx context.Context, cursor string) ([]domain.Record, string, error) {
	if d := c.cfg.Limits.FetchDeadline; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	daysBack := c.cfg.DaysBack
	if daysBack <= 0 {
		daysBack = 7
	}
	publishedAfter := c.now().UTC().Add(-time.Duration(daysBack) * 24 * time.Hour).Format(time.RFC3339)
	maxItems := sources.MaxItems(c.cfg.Limits)
	pageSize := c.cfg.Limits.PageSize
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 50
	}

	termIdx, pageToken := decodeCursor(cursor)
	seen := make(map[string]struct{})
	var all []domain.Record

	for ; termIdx < len(c.cfg.Terms); termIdx++ {
		term := c.cfg.Terms[termIdx]
		for {
			ids, next, err := c.searchPage(ctx, base, term, publishedAfter, pageSize, pageToken)
			if err != nil {
				return all, encodeCursor(termIdx, pageToken), fmt.Errorf("video search %q: %w", term, err)
			}
			fresh := ids[:0]
			for _, id := range ids {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				fresh = append(fresh, id)
			}

			recs, err := c.stats(ctx, base, fresh)
			if err != nil {
				return all, encodeCursor(termIdx, pageToken), fmt.Errorf("video stats %q: %w", term, err)
			}
			all = append(all, recs...)
			if len(all) >= maxItems {
				return all[:maxItems], encodeCursor(termIdx, next), nil
			}

			pageToken = next
			if pageToken == "" {
				break
			}
			if ctx.Err() != nil {
				return all, encodeCursor(termIdx, pageToken), ctx.Err()
			}
		}
		pageToken = ""
	}
	return all, "", nil
}

func (c *Client) searchPage(ctx context.Context, base, term, publishedAfter string, pageSize int, pageToken string) ([]string, string, error) {
	mkReq := func() (*http.Request, error) {
		u, err := url.Parse(base + "/search")
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("part", "snippet")
		q.Set("q", term)
		q.Set("type", "video")
		q.Set("order", "relevance")
		q.Set("publishedAfter", publishedAfter)
		q.Set("maxResults", strconv.Itoa(pageSize))
		q.Set("relevanceLanguage", "en")
		q.Set("key", c.cfg.APIKey)
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		u.RawQuery = q.Encode()
		return http.NewRequest(http.MethodGet, u.String(), nil)
	}

	var resp searchResponse
	if err := httpx.DoJSON(ctx, c.client, c.policy, mkReq, classify, &resp); err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	return ids, resp.NextPageToken, nil
}

func (c *Client) stats(ctx context.Context, base string, ids []string) ([]domain.Record, error) {
	var all []domain.Record
	capturedAt := c.now().UTC()
	for i := 0; i < len(ids); i += statsBatchSize {
		batch := ids[i:min(i+statsBatchSize, len(ids))]
		mkReq := func() (*http.Request, error) {
			u, err := url.Parse(base + "/videos")
			if err != nil {
				return nil, err
			}
			q := u.Query()
			q.Set("part", "snippet,statistics")
			q.Set("id", strings.Join(batch, ","))
			q.Set("key", c.cfg.APIKey)
			u.RawQuery = q.Encode()
			return http.NewRequest(http.MethodGet, u.String(), nil)
		}
		var resp videosResponse
		if err := httpx.DoJSON(ctx, c.client, c.policy, mkReq, classify, &resp); err != nil {
			return all, err
		}
		for _, v := range resp.Items {
			all = append(all, c.toRecord(v, capturedAt))
		}
	}
	return all, nil
}

func (c *Client) toRecord(v apiVideo, capturedAt time.Time) domain.Record {
	rec := domain.Record{
		Source:     domain.SourceVideo,
		NativeID:   v.ID,
		CapturedAt: capturedAt,
		Text:       v.Snippet.Title,
		Author:     v.Snippet.ChannelTitle,
		URL:        "https://www.youtube.com/watch?v=" + v.ID,
		Engagement: map[string]int64{},
		Raw: map[string]any{
			"description": v.Snippet.Description,
			"channel_id":  v.Snippet.ChannelID,
		},
	}
	if len(v.Snippet.Tags) > 0 {
		rec.Raw["tags"] = v.Snippet.Tags
	}
	// Likes and comments may be hidden for a video; only counters the
	// origin actually reported get a metric.
	setCount(rec.Engagement, "views", v.Statistics.ViewCount)
	setCount(rec.Engagement, "likes", v.Statistics.LikeCount)
	setCount(rec.Engagement, "comments", v.Statistics.CommentCount)
	if t, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
		t = t.UTC()
		rec.PublishedAt = &t
	}
	return rec
}

func setCount(m map[string]int64, key, raw string) {
	if raw == "" {
		return
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		m[key] = n
	}
}

func decodeCursor(cursor string) (int, string) {
	if cursor == "" {
		return 0, ""
	}
	idx, token, ok := strings.Cut(cursor, "|")
	if !ok {
		return 0, ""
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return 0, ""
	}
	return n, token
}

func encodeCursor(termIdx int, pageToken string) string {
	return fmt.Sprintf("%d|%s", termIdx, pageToken)
}
