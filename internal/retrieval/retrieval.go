// Package retrieval runs deterministic brute-force top-k search over the
// published vector snapshot.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/embed"
	"github.com/dgallion1/specassist/internal/index"
)

// Hit is one ranked row. Score is the raw metric value.
type Hit struct {
	Row    int           `json:"row"`
	Score  float64       `json:"score"`
	Record corpus.Record `json:"record"`
}

// Result is an ordered hit list plus what is needed to read the scores.
type Result struct {
	Metric         index.Metric `json:"metric"`
	HigherIsBetter bool         `json:"higher_is_better"`
	BuildID        string       `json:"build_id"`
	Hits           []Hit        `json:"hits"`
}

// Engine searches whatever snapshot the handle currently holds.
type Engine struct {
	handle   *index.Handle
	embedder embed.Embedder
	log      *slog.Logger
}

func NewEngine(h *index.Handle, e embed.Embedder, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{handle: h, embedder: e, log: log}
}

// Search embeds query and ranks every stored row. k must be >= 1 and is
// clamped to the row count. Identical queries against the same snapshot return
// identical results, ties included.
func (e *Engine) Search(ctx context.Context, query string, k int) (*Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", corpus.ErrValidation, k)
	}
	// Pin one snapshot for the whole query; a concurrent publish does not affect it.
	snap := e.handle.Current()
	if snap.Len() == 0 {
		return nil, corpus.ErrEmptyIndex
	}
	m := snap.Manifest
	if model := e.embedder.Model(); m.EmbeddingModel != "" && model != m.EmbeddingModel {
		return nil, fmt.Errorf("%w: index built with embedding model %q, query uses %q", corpus.ErrValidation, m.EmbeddingModel, model)
	}

	q, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", corpus.External("embed", err))
	}
	if len(q) != m.Dimension {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", corpus.ErrDimensionMismatch, len(q), m.Dimension)
	}
	if m.Normalized {
		embed.Normalize(q)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]Hit, len(snap.Vectors))
	for row, v := range snap.Vectors {
		hits[row] = Hit{Row: row, Score: m.Metric.Score(q, v)}
	}
	higher := m.Metric.HigherIsBetter()
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			if higher {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}
		return a.Row < b.Row
	})

	k = min(k, len(hits))
	hits = hits[:k:k]
	for i := range hits {
		hits[i].Record = snap.Records[hits[i].Row]
	}

	e.log.Debug("search", "k", k, "build_id", m.BuildID, "top_score", hits[0].Score)
	return &Result{
		Metric:         m.Metric,
		HigherIsBetter: higher,
		BuildID:        m.BuildID,
		Hits:           hits,
	}, nil
}
