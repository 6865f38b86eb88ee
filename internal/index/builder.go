package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/embed"
)

// Builder embeds a chunk sequence into a new Snapshot.
type Builder struct {
	Embedder embed.Embedder
	Metric   Metric
	Workers  int // Concurrent embedding calls; <= 0 means 4.
	Log      *slog.Logger

	// Recorded in the manifest so a mismatched chunker is visible at query time.
	ChunkUnit    string
	ChunkMaxSize int
	ChunkOverlap int
}

// Build embeds every chunk and returns a validated snapshot. Row i always
// describes chunks[i] regardless of completion order. Any embedding failure or
// cancellation aborts the whole build.
func (b *Builder) Build(ctx context.Context, chunks []corpus.Chunk) (*Snapshot, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", corpus.ErrEmptyIndex)
	}
	metric, err := ParseMetric(string(b.Metric))
	if err != nil {
		return nil, err
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("metric", metric, "model", b.Embedder.Model(), "chunks", len(chunks))

	start := time.Now()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range chunks {
		g.Go(func() error {
			v, err := b.Embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				return fmt.Errorf("embed chunk %d (section %s): %w", i, chunks[i].SectionID, err)
			}
			if len(v) == 0 {
				return fmt.Errorf("%w: empty vector for chunk %d", corpus.ErrDimensionMismatch, i)
			}
			if metric.Normalized() {
				embed.Normalize(v)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("index build failed", "error", err)
		return nil, err
	}

	dim := len(vectors[0])
	records := make([]corpus.Record, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, chunk 0 has %d", corpus.ErrDimensionMismatch, i, len(vectors[i]), dim)
		}
		records[i] = corpus.RecordFor(i, c)
	}

	snap := &Snapshot{
		Manifest: Manifest{
			BuildID:        uuid.New().String(),
			Metric:         metric,
			Dimension:      dim,
			Count:          len(records),
			Normalized:     metric.Normalized(),
			EmbeddingModel: b.Embedder.Model(),
			ChunkUnit:      b.ChunkUnit,
			ChunkMaxSize:   b.ChunkMaxSize,
			ChunkOverlap:   b.ChunkOverlap,
			CreatedAt:      time.Now().UTC(),
		},
		Vectors: vectors,
		Records: records,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	log.Info("index built",
		"build_id", snap.Manifest.BuildID,
		"dimension", dim,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}
