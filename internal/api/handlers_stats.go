package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"embed_model": s.deps.EmbedModel,
		"llm_model":   s.deps.LLMModel,
		"stats":       s.deps.Stats.Snapshot(),
	})
}
