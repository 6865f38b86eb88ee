package embed

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/llm"
)

// OpenAIConfig configures an OpenAI-compatible /embeddings client.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls POST {BaseURL}/embeddings.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	dimension  atomic.Int64
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIClient{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

type openAIRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenAIClient) Model() string  { return c.cfg.Model }
func (c *OpenAIClient) Dimension() int { return int(c.dimension.Load()) }

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var headers map[string]string
	if c.cfg.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	}
	var resp openAIResponse
	err := llm.PostJSON(ctx, c.httpClient, "openai embed", c.cfg.BaseURL+"/embeddings", headers,
		openAIRequest{Input: text, Model: c.cfg.Model}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, corpus.External("openai embed", errors.New("no embedding returned"))
	}
	v := toFloat32(resp.Data[0].Embedding)
	c.dimension.CompareAndSwap(0, int64(len(v)))
	return v, nil
}

// OllamaClient calls POST {BaseURL}/api/embeddings.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	dimension  atomic.Int64
}

func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = llm.DefaultOllamaURL
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (c *OllamaClient) Model() string  { return c.model }
func (c *OllamaClient) Dimension() int { return int(c.dimension.Load()) }

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaResponse
	err := llm.PostJSON(ctx, c.httpClient, "ollama embed", c.baseURL+"/api/embeddings", nil,
		ollamaRequest{Model: c.model, Prompt: text}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, corpus.External("ollama embed", errors.New("no embedding returned"))
	}
	v := toFloat32(resp.Embedding)
	c.dimension.CompareAndSwap(0, int64(len(v)))
	return v, nil
}
