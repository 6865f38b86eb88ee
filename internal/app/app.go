// Package app wires configuration into the collaborators shared by the HTTP
// server and the command line tool.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dgallion1/specassist/internal/answer"
	"github.com/dgallion1/specassist/internal/config"
	"github.com/dgallion1/specassist/internal/embed"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/llm"
	"github.com/dgallion1/specassist/internal/parser"
	"github.com/dgallion1/specassist/internal/pipeline"
	"github.com/dgallion1/specassist/internal/retrieval"
	"github.com/dgallion1/specassist/internal/segment"
)

// App holds one configured set of collaborators.
type App struct {
	Config    config.Config
	Log       *slog.Logger
	Stats     *llm.CallStats
	Embedder  embed.Embedder
	Generator llm.Generator // nil when generation is disabled
	Handle    *index.Handle
	Engine    *retrieval.Engine
	Answers   *answer.Service
	Cleaner   *parser.Cleaner

	closers []func()
}

// New builds the collaborators for cfg. The index handle starts empty; call
// LoadIndex to publish the snapshot on disk.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cleaner, err := parser.NewCleaner(cfg.HeaderPattern, cfg.FooterPattern)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Stats:   llm.NewCallStats(cfg.StatsMaxAge),
		Handle:  index.NewHandle(nil),
		Cleaner: cleaner,
	}

	base, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	a.Embedder = embed.Timed{
		Embedder: embed.NewLimited(pipeline.WithRetry(base), cfg.EmbedRPS, cfg.EmbedBurst),
		Stats:    a.Stats,
	}

	if gen := a.newGenerator(); gen != nil {
		a.Generator = llm.TimedGenerator{Generator: gen, Stats: a.Stats}
	}

	a.Engine = retrieval.NewEngine(a.Handle, a.Embedder, log)
	a.Answers = &answer.Service{
		Searcher:        a.Engine,
		DocumentTitle:   cfg.DocumentTitle,
		GenerateTimeout: cfg.GenerateTimeout,
		Log:             log,
	}
	if a.Generator != nil {
		a.Answers.Generator = a.Generator
	}
	return a, nil
}

// NewEmbedder returns the configured embedding provider without wrappers.
func NewEmbedder(cfg config.Config) (embed.Embedder, error) {
	switch cfg.EmbedProvider {
	case config.EmbedHash:
		return embed.NewHashEmbedder(cfg.EmbedDimension), nil
	case config.EmbedOpenAI:
		return embed.NewOpenAIClient(embed.OpenAIConfig{
			BaseURL: cfg.EmbedBaseURL,
			APIKey:  cfg.EmbedAPIKey,
			Model:   cfg.EmbedModel,
			Timeout: cfg.EmbedTimeout,
		}), nil
	case config.EmbedOllama:
		return embed.NewOllamaClient(cfg.EmbedBaseURL, cfg.EmbedModel, cfg.EmbedTimeout), nil
	}
	return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
}

func (a *App) newGenerator() llm.Generator {
	cfg := a.Config
	switch cfg.LLMProvider {
	case config.LLMGroq:
		if cfg.GroqAPIKey == "" {
			a.Log.Warn("GROQ_API_KEY is not set; answers will report a generation error")
		}
		return llm.NewChatClient(llm.ChatConfig{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.GroqAPIKey,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.GenerateTimeout,
		})
	case config.LLMOllama:
		return llm.NewOllamaClient(cfg.LLMBaseURL, cfg.LLMModel, cfg.GenerateTimeout)
	case config.LLMAnthropic:
		model := cfg.LLMModel
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		c := llm.NewAnthropicClient(cfg.AnthropicAPIKey, model)
		if cfg.LLMBaseURL != "" {
			c.WithBaseURL(cfg.LLMBaseURL)
		}
		a.closers = append(a.closers, c.Close)
		return c
	}
	return nil
}

// LoadIndex publishes the snapshot in the index directory. A missing
// snapshot is not an error; queries fail with an empty-index error until a
// build lands.
func (a *App) LoadIndex() error {
	snap, err := index.Load(a.Config.IndexDir)
	if errors.Is(err, index.ErrNoSnapshot) {
		a.Log.Warn("no index snapshot yet", "index_dir", a.Config.IndexDir)
		return nil
	}
	if err != nil {
		return err
	}
	a.Handle.Publish(snap)
	a.Log.Info("index loaded",
		"build_id", snap.Manifest.BuildID,
		"rows", snap.Len(),
		"metric", snap.Manifest.Metric,
		"model", snap.Manifest.EmbeddingModel,
	)
	return nil
}

// IndexBuilder returns a builder that saves to the index directory and
// publishes to the shared handle.
func (a *App) IndexBuilder(headings ...*regexp.Regexp) *pipeline.IndexBuilder {
	var seg *segment.Segmenter
	if len(headings) > 0 {
		seg = segment.New(segment.WithPatterns(headings...))
	}
	return &pipeline.IndexBuilder{
		Segmenter: seg,
		Chunking:  a.Config.Chunking(),
		Embedder:  a.Embedder,
		Metric:    index.Metric(a.Config.Metric),
		Workers:   a.Config.EmbedWorkers,
		IndexDir:  a.Config.IndexDir,
		Handle:    a.Handle,
		Log:       a.Log,
	}
}

// ParserOptions returns page extraction options.
func (a *App) ParserOptions() parser.Options {
	return parser.Options{PDFFallbackPdftotext: a.Config.PDFFallbackPdftotext}
}

// Close releases client resources.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}
