// Package shortpost adapts the short-form social post API (recent
// keyword search with token pagination) to the canonical record model.
package shortpost

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/config"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/httpx"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/retry"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/sources"
)

const DefaultBaseURL = "https://api.twitter.com"

type Client struct {
	cfg    config.ShortPostConfig
	client *http.Client
	policy retry.Policy
	now    func() time.Time
}

var _ ports.Source = (*Client)(nil)

func NewClient(cfg config.ShortPostConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: httpx.New(cfg.Limits.Timeout),
		policy: sources.PolicyFromLimits(cfg.Limits),
		now:    time.Now,
	}
}

func (c *Client) Name() domain.Source { return domain.SourceShortPost }

// Fetch pages through recent search results until the item budget,
// end-of-results, or the context deadline. On retry exhaustion it
// returns what it collected plus the classified error.
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
	startTime := c.now().UTC().Add(-time.Duration(daysBack) * 24 * time.Hour)
	query := c.buildQuery()
	maxItems := sources.MaxItems(c.cfg.Limits)
	pageSize := c.cfg.Limits.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}

	var all []domain.Record
	token := cursor
	for {
		mkReq := func() (*http.Request, error) {
			u, err := url.Parse(base + "/2/tweets/search/recent")
			if err != nil {
				return nil, err
			}
			q := u.Query()
			q.Set("query", query)
			q.Set("max_results", fmt.Sprintf("%d", pageSize))
			q.Set("start_time", startTime.Format(time.RFC3339))
			q.Set("tweet.fields", "created_at,text,public_metrics,author_id")
			q.Set("expansions", "author_id")
			q.Set("user.fields", "username,name")
			if token != "" {
				q.Set("next_token", token)
			}
			u.RawQuery = q.Encode()
			req, err := http.NewRequest(http.MethodGet, u.String(), nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
			return req, nil
		}

		var resp searchResponse
		if err := httpx.DoJSON(ctx, c.client, c.policy, mkReq, nil, &resp); err != nil {
			return all, token, fmt.Errorf("shortpost search: %w", err)
		}

		users := make(map[string]apiUser, len(resp.Includes.Users))
		for _, u := range resp.Includes.Users {
			users[u.ID] = u
		}
		capturedAt := c.now().UTC()
		for _, p := range resp.Data {
			all = append(all, c.toRecord(p, users, capturedAt))
			if len(all) >= maxItems {
				return all, resp.Meta.NextToken, nil
			}
		}

		token = resp.Meta.NextToken
		if token == "" {
			return all, "", nil
		}
		if len(resp.Data) == 0 {
			// An empty page can still carry a token; hand it back so
			// the next run resumes instead of restarting the search.
			return all, token, nil
		}
		if ctx.Err() != nil {
			return all, token, ctx.Err()
		}
	}
}

// buildQuery joins the configured terms and excludes retweets and
// replies, English only.
func (c *Client) buildQuery() string {
	terms := make([]string, 0, len(c.cfg.Terms))
	for _, t := range c.cfg.Terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.Contains(t, " ") && !strings.HasPrefix(t, "\"") {
			t = "\"" + t + "\""
		}
		terms = append(terms, t)
	}
	return "(" + strings.Join(terms, " OR ") + ") -is:retweet -is:reply lang:en"
}

func (c *Client) toRecord(p apiPost, users map[string]apiUser, capturedAt time.Time) domain.Record {
	rec := domain.Record{
		Source:     domain.SourceShortPost,
		NativeID:   p.ID,
		CapturedAt: capturedAt,
		Text:       p.Text,
		URL:        "https://twitter.com/i/web/status/" + p.ID,
		Engagement: map[string]int64{
			"likes":       p.PublicMetrics.LikeCount,
			"retweets":    p.PublicMetrics.RetweetCount,
			"replies":     p.PublicMetrics.ReplyCount,
			"quotes":      p.PublicMetrics.QuoteCount,
			"impressions": p.PublicMetrics.ImpressionCount,
		},
		Raw: map[string]any{"author_id": p.AuthorID},
	}
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		t = t.UTC()
		rec.PublishedAt = &t
	}
	if u, ok := users[p.AuthorID]; ok {
		rec.Author = u.Username
		rec.Raw["author_name"] = u.Name
	}
	return rec
}
