package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/retry"
)

// Classify maps an HTTP status (with a bounded slice of the body) to
// the error taxonomy. Adapters may override it for API quirks.
type Classify func(status int, body []byte) error

// DefaultClassify: 429 and 5xx are transient, 401/403 are auth
// failures, other 4xx are malformed queries.
func DefaultClassify(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusTooManyRequests || status/100 == 5:
		return fmt.Errorf("http %d: %s: %w", status, msg, domain.ErrRateLimited)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("http %d: %s: %w", status, msg, domain.ErrAuth)
	default:
		return fmt.Errorf("http %d: %s: %w", status, msg, domain.ErrBadQuery)
	}
}

// DoJSON performs one logical request with the retry policy, decoding
// a 2xx response into out. mkReq builds a fresh request per attempt to
// avoid drained-body reuse. Network errors are treated as transient.
func DoJSON(ctx context.Context, client *http.Client, p retry.Policy, mkReq func() (*http.Request, error), classify Classify, out any) error {
	if classify == nil {
		classify = DefaultClassify
	}
	if p.Permanent == nil {
		p.Permanent = domain.IsFatal
	}
	return p.Do(ctx, func() error {
		req, err := mkReq()
		if err != nil {
			return fmt.Errorf("build request: %s: %w", err, domain.ErrBadQuery)
		}
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("request: %s: %w", err, domain.ErrRateLimited)
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return classify(resp.StatusCode, b)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %s: %w", err, domain.ErrBadQuery)
		}
		return nil
	})
}
