package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yuin/goldmark"

	"github.com/dgallion1/specassist/internal/answer"
	"github.com/dgallion1/specassist/internal/corpus"
)

type askRequest struct {
	Question string `json:"question"`
	K        int    `json:"k"`
	Format   string `json:"format"` // "text" (default) or "html"
}

type askResponse struct {
	*answer.Response
	AnswerHTML string `json:"answer_html,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.deps.Answers == nil {
		jsonError(w, "answering unavailable", http.StatusServiceUnavailable)
		return
	}
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.K == 0 {
		req.K = s.cfg.TopK
	}
	if f := r.URL.Query().Get("format"); f != "" {
		req.Format = f
	}

	resp, err := s.deps.Answers.Answer(r.Context(), req.Question, req.K)
	if resp == nil {
		s.writeError(w, err)
		return
	}

	out := askResponse{Response: resp}
	if req.Format == "html" && resp.Answer != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(resp.Answer), &buf); err != nil {
			s.log.Warn("render answer html", "error", err)
		} else {
			out.AnswerHTML = buf.String()
		}
	}

	code := http.StatusOK
	if err != nil {
		// Retrieval succeeded; sources are still useful to the caller.
		s.log.Warn("generation failed", "error", err)
		code = http.StatusBadGateway
	}
	writeJSON(w, code, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Searcher == nil {
		jsonError(w, "search unavailable", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	k := s.cfg.TopK
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "k must be an integer", http.StatusBadRequest)
			return
		}
		k = n
	}

	res, err := s.deps.Searcher.Search(r.Context(), q, k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeError maps error kinds to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, corpus.ErrEmptyIndex):
		code = http.StatusServiceUnavailable
	case errors.Is(err, corpus.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	case errors.Is(err, corpus.ErrExternal):
		code = http.StatusBadGateway
	}
	if code >= 500 {
		s.log.Error("request failed", "status", code, "error", err)
	}
	jsonError(w, err.Error(), code)
}
