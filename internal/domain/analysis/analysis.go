// Package analysis runs HR text through the AI completion gateway with a fixed prompt per analysis type.
package analysis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"hris/internal/platform/aigateway"
)

const MaxTextLength = 20000

var (
	ErrTextRequired = errors.New("text is required")
	ErrTextTooLong  = errors.New("text is too long")
	ErrUnknownType  = errors.New("unknown analysis type")
)

type Completer interface {
	Complete(ctx context.Context, req aigateway.Request) (aigateway.Completion, error)
}

type Request struct {
	Text         string `json:"text"`
	AnalysisType string `json:"analysisType"`
	Context      string `json:"context,omitempty"`
}

type Result struct {
	AnalysisType string          `json:"analysisType"`
	Content      string          `json:"content"`
	Structured   json.RawMessage `json:"structured,omitempty"`
	Model        string          `json:"model,omitempty"`
	TotalTokens  int64           `json:"totalTokens,omitempty"`
}

type Service struct {
	gateway Completer
}

func NewService(gateway Completer) *Service {
	return &Service{gateway: gateway}
}

func Validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrTextRequired
	}
	if utf8.RuneCountInString(req.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	if !slices.Contains(Types, req.AnalysisType) {
		return ErrUnknownType
	}
	return nil
}

// Analyze returns the gateway errors unchanged so callers can map 429 and 402.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := Validate(req); err != nil {
		return Result{}, err
	}
	p := prompts[req.AnalysisType]
	user := req.Text
	if c := strings.TrimSpace(req.Context); c != "" {
		user = "Context: " + c + "\n\n" + req.Text
	}
	completion, err := s.gateway.Complete(ctx, aigateway.Request{
		Messages: []aigateway.Message{
			{Role: "system", Content: p.system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   800,
		JSONOutput:  p.structured,
	})
	if err != nil {
		return Result{}, err
	}
	result := Result{
		AnalysisType: req.AnalysisType,
		Content:      completion.Content,
		Model:        completion.Model,
		TotalTokens:  completion.TotalTokens,
	}
	if p.structured && json.Valid([]byte(completion.Content)) {
		result.Structured = json.RawMessage(completion.Content)
	}
	return result, nil
}
