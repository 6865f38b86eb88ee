package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/dgallion1/specassist/internal/embed"
)

// MaxRetries bounds retries of one external call.
const MaxRetries = 3

const (
	retryBase = 500 * time.Millisecond
	retryCap  = 8 * time.Second
)

// Backoff is the wait before retry attempt n (0-indexed): an exponential
// step from retryBase, capped at retryCap, plus up to half a step of jitter.
func Backoff(attempt int) time.Duration {
	step := retryCap
	if attempt < 5 {
		step = min(retryBase<<attempt, retryCap)
	}
	return step + time.Duration(rand.Int64N(int64(step)/2+1))
}

// WithRetry wraps e so retryable embedding failures are retried with Backoff.
func WithRetry(e embed.Embedder) embed.Embedder {
	return embed.Retrying{Embedder: e, MaxRetries: MaxRetries, Backoff: Backoff}
}
