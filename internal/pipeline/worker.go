package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/specassist/internal/parser"
)

// Worker processes a single rebuild job.
type Worker struct {
	builder *IndexBuilder
	opts    parser.Options
	cleaner *parser.Cleaner
	log     *slog.Logger
}

func NewWorker(builder *IndexBuilder, opts parser.Options, cleaner *parser.Cleaner, log *slog.Logger) *Worker {
	return &Worker{
		builder: builder,
		opts:    opts,
		cleaner: cleaner,
		log:     log,
	}
}

// Process extracts pages from the uploaded file and rebuilds the index.
// The published snapshot changes only when the job completes.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusParsing, "parsing")
	pages, err := parser.Extract(bytes.NewReader(job.FileData()), job.Filename, w.opts, w.cleaner)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail("parsing", fmt.Errorf("parse: %w", err))
		return
	}
	job.SetCounts(len(pages), -1, -1)
	if len(pages) == 0 {
		log.Warn("no pages extracted")
		job.Fail("parsing", fmt.Errorf("no extractable text"))
		return
	}

	phase := StatusSegmenting
	res, err := w.builder.Run(ctx, pages, func(s JobStatus) {
		phase = s
		job.SetStatus(s, string(s))
	})
	if err != nil {
		log.Error("rebuild failed", "phase", phase, "error", err)
		job.Fail(string(phase), err)
		return
	}

	job.SetCounts(-1, len(res.Sections), len(res.Chunks))
	job.Complete(res.Snapshot.Manifest.BuildID)
	log.Info("rebuild complete", "build_id", res.Snapshot.Manifest.BuildID, "chunks", len(res.Chunks))
}
