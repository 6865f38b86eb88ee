// Package answer turns a question into a cited answer: retrieve, assemble
// context, generate.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/llm"
	"github.com/dgallion1/specassist/internal/retrieval"
)

// Source identifies one retrieved passage in a response.
type Source struct {
	SectionID string  `json:"section_id"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Score     float64 `json:"score"`
}

// Debug carries retrieval details for inspection.
type Debug struct {
	K              int             `json:"k"`
	Metric         index.Metric    `json:"metric"`
	HigherIsBetter bool            `json:"higher_is_better"`
	BuildID        string          `json:"build_id"`
	Retrieved      []retrieval.Hit `json:"retrieved"`
	Context        string          `json:"context"`
}

// Response is the answer plus its sources. When generation fails Answer is
// empty, GenerationError is set and Sources are still filled.
type Response struct {
	Answer          string   `json:"answer"`
	Sources         []Source `json:"sources"`
	Debug           Debug    `json:"debug"`
	GenerationError string   `json:"generation_error,omitempty"`
}

// Searcher is the retrieval step.
type Searcher interface {
	Search(ctx context.Context, query string, k int) (*retrieval.Result, error)
}

// Service answers questions.
type Service struct {
	Searcher        Searcher
	Generator       llm.Generator
	DocumentTitle   string
	GenerateTimeout time.Duration // 0 means no extra deadline.
	Log             *slog.Logger
}

// Answer always runs retrieval first. A retrieval failure returns (nil, err).
// A generation failure returns the response with sources filled and an error
// that wraps corpus.ErrExternal.
func (s *Service) Answer(ctx context.Context, question string, k int) (*Response, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	question, err := ValidateQuestion(question)
	if err != nil {
		return nil, err
	}
	if LooksLikeInjection(question) {
		log.Warn("question looks like a prompt injection", "question", corpus.Truncate(question, 120))
	}

	res, err := s.Searcher.Search(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	block := BuildContext(res.Hits)
	resp := &Response{
		Sources: make([]Source, 0, len(res.Hits)),
		Debug: Debug{
			K:              k,
			Metric:         res.Metric,
			HigherIsBetter: res.HigherIsBetter,
			BuildID:        res.BuildID,
			Retrieved:      res.Hits,
			Context:        block,
		},
	}
	for _, h := range res.Hits {
		resp.Sources = append(resp.Sources, Source{
			SectionID: h.Record.SectionID,
			PageStart: h.Record.PageStart,
			PageEnd:   h.Record.PageEnd,
			Score:     h.Score,
		})
	}

	if s.Generator == nil {
		resp.GenerationError = "no generator configured"
		return resp, corpus.External("generate", fmt.Errorf("no generator configured"))
	}

	gctx := ctx
	if s.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, s.GenerateTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.Generator.Generate(gctx, SystemPrompt(s.DocumentTitle), BuildUserMessage(s.DocumentTitle, question, block))
	if err != nil {
		err = corpus.External("generate", err)
		resp.GenerationError = err.Error()
		log.Error("generation failed", "model", s.Generator.Model(), "sources", len(resp.Sources), "error", err)
		return resp, fmt.Errorf("generate: %w", err)
	}
	resp.Answer = text

	log.Info("answered",
		"k", k,
		"sources", len(resp.Sources),
		"build_id", res.BuildID,
		"generate_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
