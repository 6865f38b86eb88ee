package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/specassist/internal/corpus"
)

func TestChatClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "question" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if req.Temperature != 0.2 {
			t.Errorf("expected temperature 0.2, got %f", req.Temperature)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  See 401.03. \n"}}]}`))
	}))
	defer srv.Close()

	c := NewChatClient(ChatConfig{BaseURL: srv.URL + "/", APIKey: "gsk-test", Temperature: 0.2})
	got, err := c.Generate(context.Background(), "system", "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "See 401.03." {
		t.Errorf("expected trimmed answer, got %q", got)
	}
}

func TestChatClient_ErrorKinds(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		_, err := NewChatClient(ChatConfig{BaseURL: srv.URL}).Generate(context.Background(), "s", "u")
		srv.Close()

		if !errors.Is(err, corpus.ErrExternal) {
			t.Fatalf("status %d: expected external error, got %v", tc.status, err)
		}
		if corpus.IsRetryable(err) != tc.retryable {
			t.Errorf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
		var ext *corpus.ExternalError
		if !errors.As(err, &ext) || ext.StatusCode != tc.status {
			t.Errorf("status %d: expected status on error, got %v", tc.status, err)
		}
	}
}

func TestChatClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewChatClient(ChatConfig{BaseURL: srv.URL}).Generate(context.Background(), "s", "u")
	if !errors.Is(err, corpus.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestAnthropicClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "sk-ant" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic headers")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.System != "sys" || req.Messages[0].Content != "user msg" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"Section 100"},{"type":"text","text":" applies."}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-ant", "claude-test").WithBaseURL(srv.URL)
	defer c.Close()
	got, err := c.Generate(context.Background(), "sys", "user msg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Section 100 applies." {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestAnthropicClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	_, err := NewAnthropicClient("k", "m").WithBaseURL(srv.URL).Generate(context.Background(), "s", "u")
	if !errors.Is(err, corpus.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestOllamaClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Prompt != "sys\n\nuser" {
			t.Errorf("unexpected prompt %q", req.Prompt)
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	got, err := NewOllamaClient(srv.URL, "", 0).Generate(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
}

func TestPostJSON_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]any
	err := PostJSON(ctx, srv.Client(), "test", srv.URL, nil, map[string]string{}, &out)
	if !errors.Is(err, corpus.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
	if corpus.IsRetryable(err) {
		t.Error("canceled requests must not be retryable")
	}
}
