// Package embed provides the text embedding collaborators used at build and
// query time, plus wrappers for rate limiting, retries and latency stats.
package embed

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/llm"
)

// Embedder turns text into a fixed-dimension vector. The same Embedder (same
// model) must be used to build an index and to query it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension is the vector length, or 0 when only known after the first call.
	Dimension() int
	Model() string
}

// Normalize scales v to unit length in place and returns it. Zero vectors are
// left unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// Limited waits on a token bucket before each call.
type Limited struct {
	Embedder
	limiter *rate.Limiter
}

// NewLimited caps e at rps calls per second with the given burst. A
// non-positive rps returns e unchanged.
func NewLimited(e Embedder, rps float64, burst int) Embedder {
	if rps <= 0 {
		return e
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{Embedder: e, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return l.Embedder.Embed(ctx, text)
}

// Retrying retries retryable external failures with the given backoff.
type Retrying struct {
	Embedder
	MaxRetries int
	Backoff    func(attempt int) time.Duration
}

func (r Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		v, err := r.Embedder.Embed(ctx, text)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !corpus.IsRetryable(err) || attempt == r.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.Backoff(attempt)):
		}
	}
	return nil, lastErr
}

// Timed records the latency of every Embed call.
type Timed struct {
	Embedder
	Stats *llm.CallStats
}

func (t Timed) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	v, err := t.Embedder.Embed(ctx, text)
	t.Stats.Record(llm.OpEmbed, time.Since(start), err)
	return v, err
}
