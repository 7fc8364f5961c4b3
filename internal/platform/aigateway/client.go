// Package aigateway talks to an OpenAI-compatible chat completion endpoint.
package aigateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"hris/internal/platform/metrics"
)

var (
	ErrNotConfigured   = errors.New("ai gateway not configured")
	ErrRateLimited     = errors.New("ai gateway rate limited")
	ErrPaymentRequired = errors.New("ai gateway payment required")
	ErrEmptyCompletion = errors.New("ai gateway returned no content")
)

const maxResponseBytes = 1 << 20

// UpstreamError carries a non-success status that has no dedicated sentinel.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai gateway status %d: %s", e.Status, e.Message)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSONOutput  bool
}

type Completion struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finishReason"`
	TotalTokens  int64  `json:"totalTokens"`
}

type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

func (c *Client) Complete(ctx context.Context, req Request) (Completion, error) {
	if !c.Configured() {
		return Completion{}, ErrNotConfigured
	}

	body := map[string]any{
		"model":    c.model,
		"messages": req.Messages,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.JSONOutput {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Completion{}, fmt.Errorf("ai gateway request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream("ai", resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Completion{}, fmt.Errorf("ai gateway read: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Completion{}, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return Completion{}, ErrPaymentRequired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return Completion{}, &UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	parsed := gjson.ParseBytes(raw)
	content := strings.TrimSpace(parsed.Get("choices.0.message.content").String())
	if content == "" {
		return Completion{}, ErrEmptyCompletion
	}
	return Completion{
		Content:      content,
		Model:        parsed.Get("model").String(),
		FinishReason: parsed.Get("choices.0.finish_reason").String(),
		TotalTokens:  parsed.Get("usage.total_tokens").Int(),
	}, nil
}
