// Package sources holds the pieces shared by all adapters.
package sources

import (
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/config"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/retry"
)

const defaultMaxItems = 200

// PolicyFromLimits builds an adapter's retry policy from its
// configured bounds.
func PolicyFromLimits(l config.Limits) retry.Policy {
	return retry.Policy{
		MaxAttempts: l.MaxRetries,
		Base:        l.Backoff,
		Max:         l.MaxBackoff,
	}
}

// MaxItems returns the fetch item budget, defaulted.
func MaxItems(l config.Limits) int {
	if l.MaxItems <= 0 {
		return defaultMaxItems
	}
	return l.MaxItems
}
