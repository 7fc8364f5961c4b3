package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"hris/internal/platform/config"
	"hris/internal/platform/metrics"
)

// HTTPMailer posts messages to a transactional email API that accepts
// {from, to, subject, html, text} with a bearer key.
type HTTPMailer struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPMailer(url, apiKey string) *HTTPMailer {
	return &HTTPMailer{url: url, apiKey: apiKey, client: &http.Client{Timeout: 15 * time.Second}}
}

func (m *HTTPMailer) Provider() string { return config.EmailProviderHTTP }

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	to := recipients(msg.To)
	if len(to) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"from":    msg.From,
		"to":      to,
		"subject": msg.Subject,
		"html":    msg.HTML,
		"text":    msg.Text,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("email provider request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream("email", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return ErrPaymentRequired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		detail := gjson.GetBytes(raw, "message").String()
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("email provider status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
