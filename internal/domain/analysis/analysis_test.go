package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/platform/aigateway"
)

type fakeGateway struct {
	last    aigateway.Request
	content string
	err     error
}

func (f *fakeGateway) Complete(_ context.Context, req aigateway.Request) (aigateway.Completion, error) {
	f.last = req
	if f.err != nil {
		return aigateway.Completion{}, f.err
	}
	return aigateway.Completion{Content: f.content, Model: "test-model"}, nil
}

func TestAnalyzeStructuredType(t *testing.T) {
	gw := &fakeGateway{content: `{"sentiment":"positive","score":0.8}`}
	result, err := NewService(gw).Analyze(context.Background(), Request{Text: "Great quarter", AnalysisType: TypeSentiment, Context: "peer review"})
	require.NoError(t, err)
	assert.True(t, gw.last.JSONOutput)
	assert.Equal(t, "system", gw.last.Messages[0].Role)
	assert.True(t, strings.HasPrefix(gw.last.Messages[1].Content, "Context: peer review"))
	assert.JSONEq(t, `{"sentiment":"positive","score":0.8}`, string(result.Structured))
	assert.Equal(t, "test-model", result.Model)
}

func TestAnalyzeSummaryIsPlainText(t *testing.T) {
	gw := &fakeGateway{content: "- one\n- two"}
	result, err := NewService(gw).Analyze(context.Background(), Request{Text: "long text", AnalysisType: TypeSummary})
	require.NoError(t, err)
	assert.False(t, gw.last.JSONOutput)
	assert.Nil(t, result.Structured)
	assert.Equal(t, "- one\n- two", result.Content)
}

func TestAnalyzePassesGatewayErrors(t *testing.T) {
	gw := &fakeGateway{err: aigateway.ErrRateLimited}
	_, err := NewService(gw).Analyze(context.Background(), Request{Text: "x", AnalysisType: TypeGoalSMART})
	require.ErrorIs(t, err, aigateway.ErrRateLimited)
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, Validate(Request{Text: " ", AnalysisType: TypeSummary}), ErrTextRequired)
	require.ErrorIs(t, Validate(Request{Text: "x", AnalysisType: "poem"}), ErrUnknownType)
	require.ErrorIs(t, Validate(Request{Text: strings.Repeat("a", MaxTextLength+1), AnalysisType: TypeSummary}), ErrTextTooLong)
	require.NoError(t, Validate(Request{Text: "ok", AnalysisType: TypeFeedbackQuality}))
}
