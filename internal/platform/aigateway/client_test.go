package aigateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCompleteParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "test-model", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "json_object", gjson.GetBytes(body, "response_format.type").String())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model","choices":[{"finish_reason":"stop","message":{"role":"assistant","content":" {\"sentiment\":\"positive\"} "}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1/", "key-1", "test-model", time.Second)
	out, err := c.Complete(context.Background(), Request{
		Messages:   []Message{{Role: "user", Content: "hi"}},
		JSONOutput: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"sentiment":"positive"}`, out.Content)
	assert.Equal(t, int64(42), out.TotalTokens)
	assert.Equal(t, "stop", out.FinishReason)
}

func TestCompleteMapsUpstreamStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrPaymentRequired},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := New(srv.URL, "k", "m", time.Second).Complete(context.Background(), Request{})
		srv.Close()
		assert.ErrorIs(t, err, tc.want)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	defer srv.Close()
	_, err := New(srv.URL, "k", "m", time.Second).Complete(context.Background(), Request{})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Equal(t, "model overloaded", upstream.Message)
}

func TestCompleteRequiresConfiguration(t *testing.T) {
	_, err := New("", "", "m", 0).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
