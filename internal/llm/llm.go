// Package llm holds the HTTP clients for remote model collaborators and the
// latency stats shared by embedding and generation calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Generator produces answer text from a system prompt and a user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Model() string
}

const maxResponseBytes = 8 << 20

// PostJSON sends in as a JSON body and decodes the response into out.
// Failures come back as *corpus.ExternalError; 429 and 5xx responses and
// transport errors are marked retryable, context cancellation is not.
func PostJSON(ctx context.Context, client *http.Client, op, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		retry := ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		return &corpus.ExternalError{Op: op, Retryable: retry, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &corpus.ExternalError{Op: op, StatusCode: resp.StatusCode, Retryable: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &corpus.ExternalError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Retryable:  true,
			Err:        errors.New(corpus.Truncate(string(respBody), 200)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &corpus.ExternalError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(corpus.Truncate(string(respBody), 200)),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &corpus.ExternalError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
