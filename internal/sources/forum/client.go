// Package forum adapts the discussion-forum listing API (subreddit
// style: top posts per community, fullname cursor pagination).
package forum

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

const DefaultBaseURL = "https://www.reddit.com"

type Client struct {
	cfg    config.ForumConfig
	client *http.Client
	policy retry.Policy
	now    func() time.Time
}

var _ ports.Source = (*Client)(nil)

func NewClient(cfg config.ForumConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: httpx.New(cfg.Limits.Timeout),
		policy: sources.PolicyFromLimits(cfg.Limits),
		now:    time.Now,
	}
}

func (c *Client) Name() domain.Source { return domain.SourceForum }

// Fetch walks the configured communities in order. The cursor encodes
// "subredditIndex|after" so a partial run resumes where it stopped.
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
	timeFilter := c.cfg.TimeFilter
	if timeFilter == "" {
		timeFilter = "week"
	}
	maxItems := sources.MaxItems(c.cfg.Limits)
	pageSize := c.cfg.Limits.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}

	subIdx, after := decodeCursor(cursor)
	var all []domain.Record

	for ; subIdx < len(c.cfg.Subreddits); subIdx++ {
		sub := c.cfg.Subreddits[subIdx]
		for {
			page, err := c.listPage(ctx, base, sub, timeFilter, pageSize, after)
			if err != nil {
				return all, encodeCursor(subIdx, after), fmt.Errorf("forum r/%s: %w", sub, err)
			}
			capturedAt := c.now().UTC()
			for _, child := range page.Data.Children {
				all = append(all, c.toRecord(child.Data, capturedAt))
				if len(all) >= maxItems {
					return all, encodeCursor(subIdx, page.Data.After), nil
				}
			}
			after = page.Data.After
			if after == "" || len(page.Data.Children) == 0 {
				break
			}
			if ctx.Err() != nil {
				return all, encodeCursor(subIdx, after), ctx.Err()
			}
		}
		after = ""
	}
	return all, "", nil
}

func (c *Client) listPage(ctx context.Context, base, sub, timeFilter string, pageSize int, after string) (*listing, error) {
	mkReq := func() (*http.Request, error) {
		u, err := url.Parse(fmt.Sprintf("%s/r/%s/top.json", base, sub))
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("t", timeFilter)
		q.Set("raw_json", "1")
		if after != "" {
			q.Set("after", after)
		}
		u.RawQuery = q.Encode()
		req, err := http.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		ua := c.cfg.UserAgent
		if ua == "" {
			ua = "ai-content-optimizer/1.0"
		}
		req.Header.Set("User-Agent", ua)
		return req, nil
	}

	var page listing
	if err := httpx.DoJSON(ctx, c.client, c.policy, mkReq, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) toRecord(p apiPost, capturedAt time.Time) domain.Record {
	author := p.Author
	if author == "" {
		author = "[deleted]"
	}
	rec := domain.Record{
		Source:     domain.SourceForum,
		NativeID:   p.ID,
		CapturedAt: capturedAt,
		Text:       p.Title,
		Author:     author,
		URL:        DefaultBaseURL + p.Permalink,
		Engagement: map[string]int64{
			"score":            p.Score,
			"comments":         p.NumComments,
			"upvote_ratio_pct": int64(p.UpvoteRatio * 100),
		},
		Raw: map[string]any{
			"subreddit": p.Subreddit,
			"selftext":  p.SelfText,
			"link_url":  p.URL,
			"is_video":  p.IsVideo,
			"over_18":   p.Over18,
		},
	}
	if p.CreatedUTC > 0 {
		t := time.Unix(int64(p.CreatedUTC), 0).UTC()
		rec.PublishedAt = &t
	}
	return rec
}

func decodeCursor(cursor string) (int, string) {
	if cursor == "" {
		return 0, ""
	}
	idx, after, ok := strings.Cut(cursor, "|")
	if !ok {
		return 0, ""
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return 0, ""
	}
	return n, after
}

func encodeCursor(subIdx int, after string) string {
	return fmt.Sprintf("%d|%s", subIdx, after)
}
