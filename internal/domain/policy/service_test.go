package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/platform/events"
)

type fakeStore struct {
	StoreAPI
	rules     []Rule
	overrides []Override
}

func (f *fakeStore) ApplicableRules(context.Context, string, string, string) ([]Rule, error) {
	return f.rules, nil
}

func (f *fakeStore) InsertOverrides(_ context.Context, _, _, _, _, _ string, overrides []Override) error {
	f.overrides = append(f.overrides, overrides...)
	return nil
}

func (f *fakeStore) CreateRule(_ context.Context, _ string, in RuleInput) (Rule, error) {
	return Rule{ID: "new", Code: in.Code, Context: in.Context, RuleType: in.RuleType, Severity: in.Severity, Config: in.Config, Active: in.Active}, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestEnforceBlocksViolationsAndUnjustifiedWarnings(t *testing.T) {
	store := &fakeStore{rules: []Rule{
		{ID: "w", Code: "DOCS", Active: true, RuleType: RuleDocumentRequired, Severity: SeverityWarning, Config: []byte(`{"documents":["note"]}`)},
	}}
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Enforce(ctx, Enforcement{TenantID: "t", Context: ContextLeave, Payload: []byte(`{}`)})
	var decisionErr *DecisionError
	require.True(t, errors.As(err, &decisionErr))
	require.ErrorIs(t, err, ErrPolicyWarning)
	assert.Len(t, decisionErr.Evaluation.Warnings, 1)

	decision, err := svc.Enforce(ctx, Enforcement{TenantID: "t", Context: ContextLeave, Payload: []byte(`{}`), Justifications: map[string]string{"w": "sent by mail"}})
	require.NoError(t, err)
	assert.True(t, decision.Evaluation.Allowed)
	require.Len(t, decision.Overrides, 1)
	assert.Equal(t, "sent by mail", decision.Overrides[0].Justification)

	store.rules = append(store.rules, Rule{ID: "b", Code: "AGE", Active: true, RuleType: RuleAgeRestriction, Severity: SeverityBlocking, Config: []byte(`{"minAge":18}`)})
	_, err = svc.Enforce(ctx, Enforcement{TenantID: "t", Context: ContextLeave, Payload: []byte(`{}`), Justifications: map[string]string{"w": "ok", "b": "please"}})
	require.ErrorIs(t, err, ErrPolicyViolation)
}

func TestRecordOverridesPersistsAndPublishes(t *testing.T) {
	store := &fakeStore{}
	publisher := &recordingPublisher{}
	svc := NewService(store, publisher)

	err := svc.RecordOverrides(context.Background(), "t", ContextLeave, "leave_request", "lr1", "u1", []Override{{RuleID: "w", Justification: "approved verbally"}})
	require.NoError(t, err)
	assert.Len(t, store.overrides, 1)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.PolicyOverride, publisher.events[0].Type)

	err = svc.RecordOverrides(context.Background(), "t", ContextLeave, "leave_request", "lr1", "u1", []Override{{RuleID: "w"}})
	require.ErrorIs(t, err, ErrJustificationNeeded)
}

func TestCreateRuleValidates(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, "t", RuleInput{Code: "X", Context: "travel", RuleType: RuleTimeLimit})
	require.ErrorIs(t, err, ErrUnknownContext)

	_, err = svc.CreateRule(ctx, "t", RuleInput{Code: "X", Context: ContextLeave, RuleType: RuleTimeLimit, Config: []byte(`{}`)})
	require.ErrorIs(t, err, ErrInvalidConfig)

	rule, err := svc.CreateRule(ctx, "t", RuleInput{Code: "X", Context: " Leave ", RuleType: RuleTimeLimit, Config: []byte(`{"maxDays":5}`), Active: true})
	require.NoError(t, err)
	assert.Equal(t, ContextLeave, rule.Context)
	assert.Equal(t, SeverityBlocking, rule.Severity)
}
