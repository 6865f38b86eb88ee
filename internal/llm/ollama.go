package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/specassist/internal/corpus"
)

// DefaultOllamaURL is the local Ollama daemon.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient calls POST /api/generate with streaming disabled.
// Ollama has no separate system role on this endpoint, so the system prompt
// is prepended to the user message.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = "llama3.1"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) Model() string { return c.model }

func (c *OllamaClient) Generate(ctx context.Context, system, user string) (string, error) {
	req := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: system + "\n\n" + user,
	}
	var resp ollamaGenerateResponse
	if err := PostJSON(ctx, c.httpClient, "ollama generate", c.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", err
	}
	answer := strings.TrimSpace(resp.Response)
	if answer == "" {
		return "", corpus.External("ollama generate", errors.New("empty response"))
	}
	return answer, nil
}
