// Package llm is the Anthropic Messages API client used for insight
// extraction and enrichment calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"operators-vault-go/internal/logger"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	defaultModel    = "claude-sonnet-4-20250514"
	apiVersion      = "2023-06-01"
)

var httpClient = &http.Client{Timeout: 90 * time.Second}

type Client struct {
	endpoint string
	model    string
	apiKey   string
}

// New reads ANTHROPIC_API_KEY (required), ANTHROPIC_MODEL and ANTHROPIC_URL
// (optional overrides). Missing key is reported before any work begins.
func New() (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	c := &Client{endpoint: defaultEndpoint, model: defaultModel, apiKey: apiKey}
	if v := os.Getenv("ANTHROPIC_URL"); v != "" {
		c.endpoint = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		c.model = v
	}
	return c, nil
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one system+user exchange and returns the text of the first
// content block. Retries server errors with exponential backoff; client errors
// are permanent. Use USE_MOCK_LLM=true for offline runs.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if os.Getenv("USE_MOCK_LLM") == "true" {
		return "Quotes:\n* \"Mock quote about operations\" – Mock Speaker\n", nil
	}
	log := logger.Component("llm")

	payload, _ := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})

	var out string
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", apiVersion)

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("anthropic server error: %s", string(body))
			return lastErr
		}
		var parsed messageResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = fmt.Errorf("anthropic decode error: %v body=%s", err, string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			msg := string(body)
			if parsed.Error != nil {
				msg = parsed.Error.Message
			}
			lastErr = fmt.Errorf("anthropic request rejected: %s", msg)
			return backoff.Permanent(lastErr)
		}
		if len(parsed.Content) == 0 {
			out = ""
			return nil
		}
		out = parsed.Content[0].Text
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 3 * time.Minute
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		log.WithError(lastErr).Warn("llm call failed")
		return "", fmt.Errorf("llm complete: %w", lastErr)
	}
	return out, nil
}
