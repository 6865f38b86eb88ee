package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dgallion1/specassist/internal/app"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/pipeline"
)

// Run serves the API for a until ctx is done, then shuts down gracefully.
// It also watches the index directory and runs uploaded rebuilds.
func Run(ctx context.Context, a *app.App) error {
	cfg, log := a.Config, a.Log

	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := a.LoadIndex(); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := index.Watch(ctx, cfg.IndexDir, a.Handle, log); err != nil {
			log.Error("index watcher stopped", "error", err)
		}
	}()

	worker := pipeline.NewWorker(a.IndexBuilder(), a.ParserOptions(), a.Cleaner, log)
	orch := pipeline.NewOrchestrator(worker, cfg.MaxQueueSize, cfg.JobTTL, log)
	orch.Start(ctx)
	defer orch.Stop()

	llmModel := ""
	if a.Generator != nil {
		llmModel = a.Generator.Model()
	}
	srv := NewServer(Deps{
		Handle:       a.Handle,
		Searcher:     a.Engine,
		Answers:      a.Answers,
		Orchestrator: orch,
		Stats:        a.Stats,
		EmbedModel:   a.Embedder.Model(),
		LLMModel:     llmModel,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting specassist",
			"port", cfg.Port,
			"embed_provider", cfg.EmbedProvider,
			"llm_provider", cfg.LLMProvider,
			"index_dir", cfg.IndexDir,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	orch.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
