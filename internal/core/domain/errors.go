package domain

import "errors"

// Error classes for adapter and delivery failures. Adapters wrap these
// with %w so callers classify with errors.Is.
var (
	// ErrRateLimited marks a transient source error: the external API
	// signalled a rate limit (or timed out) and the retry budget ran out.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuth marks a fatal source error: credentials rejected. Never retried.
	ErrAuth = errors.New("authentication failed")

	// ErrBadQuery marks a fatal source error: the API rejected the
	// request shape. Never retried.
	ErrBadQuery = errors.New("malformed query")
)

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsFatal reports whether err must not be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrBadQuery)
}
