package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/specassist/internal/chunker"
	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/embed"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/segment"
)

// IndexBuilder runs pages through segmentation, chunking and embedding, then
// saves the snapshot and publishes it.
type IndexBuilder struct {
	Segmenter *segment.Segmenter // nil means the default heading patterns
	Chunking  chunker.Config
	Embedder  embed.Embedder
	Metric    index.Metric
	Workers   int
	IndexDir  string        // empty skips saving
	Handle    *index.Handle // nil skips publishing
	Log       *slog.Logger
}

// BuildResult describes a finished build.
type BuildResult struct {
	Sections []corpus.Section
	Chunks   []corpus.Chunk
	Snapshot *index.Snapshot
}

// Run builds a snapshot from pages. onStage, when set, is called as each
// stage starts. Nothing is saved or published unless every stage succeeds.
func (b *IndexBuilder) Run(ctx context.Context, pages []corpus.Page, onStage func(JobStatus)) (*BuildResult, error) {
	stage := func(s JobStatus) {
		if onStage != nil {
			onStage(s)
		}
	}
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	if err := b.Chunking.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	stage(StatusSegmenting)
	seg := b.Segmenter
	if seg == nil {
		seg = segment.New()
	}
	sections, err := seg.Segment(pages)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	log.Info("segmented pages", "pages", len(pages), "sections", len(sections))

	stage(StatusChunking)
	chunks, err := chunker.ChunkSections(sections, b.Chunking)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	log.Info("chunked sections", "chunks", len(chunks))

	stage(StatusEmbedding)
	ib := &index.Builder{
		Embedder:     b.Embedder,
		Metric:       b.Metric,
		Workers:      b.Workers,
		Log:          log,
		ChunkUnit:    string(b.Chunking.Unit),
		ChunkMaxSize: b.Chunking.MaxSize,
		ChunkOverlap: b.Chunking.Overlap,
	}
	snap, err := ib.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	stage(StatusStoring)
	if b.IndexDir != "" {
		if err := index.Save(b.IndexDir, snap); err != nil {
			return nil, fmt.Errorf("save index: %w", err)
		}
	}
	if b.Handle != nil {
		b.Handle.Publish(snap)
	}

	log.Info("index ready",
		"build_id", snap.Manifest.BuildID,
		"rows", snap.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &BuildResult{Sections: sections, Chunks: chunks, Snapshot: snap}, nil
}
