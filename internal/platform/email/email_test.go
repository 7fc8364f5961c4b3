package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/platform/config"
)

func TestNewSelectsProvider(t *testing.T) {
	assert.Equal(t, config.EmailProviderNone, New(config.Config{EmailProvider: config.EmailProviderNone}).Provider())
	assert.Equal(t, config.EmailProviderSMTP, New(config.Config{EmailProvider: config.EmailProviderSMTP, SMTPHost: "smtp.local"}).Provider())
	assert.Equal(t, config.EmailProviderHTTP, New(config.Config{EmailProvider: config.EmailProviderHTTP, EmailAPIURL: "http://x", EmailAPIKey: "k"}).Provider())
	assert.Equal(t, config.EmailProviderNone, New(config.Config{EmailProvider: config.EmailProviderHTTP}).Provider())
}

func TestBuildMessageAlternative(t *testing.T) {
	raw := string(buildMessage(Message{
		From:    "hr@example.com",
		Subject: "Payslip\r\nBcc: someone@evil.test",
		Text:    "plain",
		HTML:    "<p>rich</p>",
	}, []string{"a@example.com", "b@example.com"}))

	assert.Contains(t, raw, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, raw, "Subject: Payslip  Bcc: someone@evil.test\r\n")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Less(t, strings.Index(raw, "text/plain"), strings.Index(raw, "text/html"))
}

func TestBuildMessagePlain(t *testing.T) {
	raw := string(buildMessage(Message{From: "a@b.c", Subject: "s", Text: "hello"}, []string{"x@y.z"}))
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nhello"))
}

func TestHTTPMailer(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "secret").Send(context.Background(), Message{
		From: "hr@example.com", To: []string{" a@example.com ", ""}, Subject: "Hi", HTML: "<p>x</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a@example.com"}, got["to"])
}

func TestHTTPMailerStatusMapping(t *testing.T) {
	for status, want := range map[int]error{
		http.StatusTooManyRequests: ErrRateLimited,
		http.StatusPaymentRequired: ErrPaymentRequired,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		err := NewHTTPMailer(srv.URL, "k").Send(context.Background(), Message{To: []string{"a@example.com"}})
		srv.Close()
		assert.ErrorIs(t, err, want)
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("# Reminder\n\nYour **review** is due.\n\n<script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Reminder</h1>")
	assert.Contains(t, html, "<strong>review</strong>")
	assert.NotContains(t, html, "<script>")
}
