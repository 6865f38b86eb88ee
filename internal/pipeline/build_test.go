package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/specassist/internal/chunker"
	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/embed"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/parser"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPages() []corpus.Page {
	return []corpus.Page{
		{Number: 1, Text: "101 GENERAL PROVISIONS\nScope of work for the contract."},
		{Number: 2, Text: "101.01 DEFINITIONS\nTerms used in these specifications.\n101.02 ABBREVIATIONS\nAASHTO ASTM."},
		{Number: 3, Text: "401 HOT MIX ASPHALT\nCompact each lift to the required density."},
	}
}

type failingEmbedder struct{ embed.Embedder }

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, corpus.External("embed", errors.New("boom"))
}

func TestIndexBuilder_RunSavesAndPublishes(t *testing.T) {
	dir := t.TempDir()
	h := index.NewHandle(nil)
	b := &IndexBuilder{
		Chunking: chunker.Config{MaxSize: 6, Overlap: 2, Unit: chunker.UnitWord},
		Embedder: embed.NewHashEmbedder(64),
		Metric:   index.MetricInnerProduct,
		IndexDir: dir,
		Handle:   h,
		Log:      quietLog(),
	}

	var stages []JobStatus
	res, err := b.Run(context.Background(), testPages(), func(s JobStatus) { stages = append(stages, s) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStages := []JobStatus{StatusSegmenting, StatusChunking, StatusEmbedding, StatusStoring}
	if len(stages) != len(wantStages) {
		t.Fatalf("expected stages %v, got %v", wantStages, stages)
	}
	for i := range wantStages {
		if stages[i] != wantStages[i] {
			t.Errorf("stage %d: expected %s, got %s", i, wantStages[i], stages[i])
		}
	}

	if len(res.Sections) != 4 {
		t.Errorf("expected 4 sections, got %d", len(res.Sections))
	}
	if res.Snapshot.Len() != len(res.Chunks) {
		t.Errorf("snapshot rows %d != chunks %d", res.Snapshot.Len(), len(res.Chunks))
	}
	if h.Current() != res.Snapshot {
		t.Error("expected snapshot to be published")
	}

	loaded, err := index.Load(dir)
	if err != nil {
		t.Fatalf("load saved index: %v", err)
	}
	if loaded.Manifest.BuildID != res.Snapshot.Manifest.BuildID {
		t.Errorf("saved build id %s != built %s", loaded.Manifest.BuildID, res.Snapshot.Manifest.BuildID)
	}
	if loaded.Manifest.ChunkMaxSize != 6 || loaded.Manifest.ChunkOverlap != 2 {
		t.Errorf("chunk settings not recorded: %+v", loaded.Manifest)
	}
}

func TestIndexBuilder_FailureKeepsCurrentSnapshot(t *testing.T) {
	h := index.NewHandle(nil)
	ok := &IndexBuilder{
		Chunking: chunker.DefaultConfig(),
		Embedder: embed.NewHashEmbedder(32),
		Handle:   h,
		Log:      quietLog(),
	}
	first, err := ok.Run(context.Background(), testPages(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &IndexBuilder{
		Chunking: chunker.DefaultConfig(),
		Embedder: failingEmbedder{embed.NewHashEmbedder(32)},
		Handle:   h,
		Log:      quietLog(),
	}
	if _, err := bad.Run(context.Background(), testPages(), nil); !errors.Is(err, corpus.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
	if h.Current() != first.Snapshot {
		t.Error("failed build must not replace the published snapshot")
	}
}

func TestIndexBuilder_InvalidChunking(t *testing.T) {
	b := &IndexBuilder{
		Chunking: chunker.Config{MaxSize: 10, Overlap: 10, Unit: chunker.UnitWord},
		Embedder: embed.NewHashEmbedder(32),
		Log:      quietLog(),
	}
	_, err := b.Run(context.Background(), testPages(), nil)
	if !errors.Is(err, corpus.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestIndexBuilder_NoHeadings(t *testing.T) {
	b := &IndexBuilder{
		Chunking: chunker.DefaultConfig(),
		Embedder: embed.NewHashEmbedder(32),
		Log:      quietLog(),
	}
	_, err := b.Run(context.Background(), []corpus.Page{{Number: 1, Text: "no headings here"}}, nil)
	if !errors.Is(err, corpus.ErrEmptyIndex) {
		t.Errorf("expected empty index error, got %v", err)
	}
}

func TestOrchestrator_ProcessesUpload(t *testing.T) {
	h := index.NewHandle(nil)
	b := &IndexBuilder{
		Chunking: chunker.DefaultConfig(),
		Embedder: embed.NewHashEmbedder(32),
		IndexDir: t.TempDir(),
		Handle:   h,
		Log:      quietLog(),
	}
	w := NewWorker(b, parser.Options{}, parser.DefaultCleaner(), quietLog())
	o := NewOrchestrator(w, 2, time.Hour, quietLog())
	o.Start(context.Background())
	defer o.Stop()

	doc := "101 GENERAL PROVISIONS\nScope.\f101.01 DEFINITIONS\nTerms."
	job := NewJob("spec.txt", []byte(doc))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := o.GetJob(job.ID).Snapshot()
		if snap.Status == StatusCompleted || snap.Status == StatusFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, last status %s", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Pages != 2 || snap.Progress.Sections != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	cur := h.Current()
	if cur == nil || cur.Manifest.BuildID != snap.BuildID {
		t.Errorf("expected published build %s", snap.BuildID)
	}
}

func TestOrchestrator_UnsupportedUploadFails(t *testing.T) {
	b := &IndexBuilder{Chunking: chunker.DefaultConfig(), Embedder: embed.NewHashEmbedder(32), Log: quietLog()}
	w := NewWorker(b, parser.Options{}, nil, quietLog())
	job := NewJob("sheet.xlsx", []byte("x"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Fatalf("expected failed parsing, got %+v", snap)
	}
	if !strings.Contains(snap.Progress.Errors[0], "unsupported") {
		t.Errorf("unexpected error %q", snap.Progress.Errors[0])
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	b := &IndexBuilder{Chunking: chunker.DefaultConfig(), Embedder: embed.NewHashEmbedder(32), Log: quietLog()}
	o := NewOrchestrator(NewWorker(b, parser.Options{}, nil, quietLog()), 1, time.Hour, quietLog())
	// Not started: the queue never drains.
	if err := o.Submit(NewJob("a.txt", []byte("a"))); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob("b.txt", []byte("b"))
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Error("rejected job should be marked failed")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}
