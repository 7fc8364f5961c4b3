package policy

import (
	"context"
	"slices"
	"strings"
	"time"

	"hris/internal/platform/events"
)

type Service struct {
	store  StoreAPI
	events events.Publisher
	now    func() time.Time
}

func NewService(store StoreAPI, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, events: publisher, now: time.Now}
}

func (s *Service) ListRules(ctx context.Context, tenantID string, filter RuleFilter) ([]Rule, error) {
	return s.store.ListRules(ctx, tenantID, filter)
}

func (s *Service) GetRule(ctx context.Context, tenantID, ruleID string) (Rule, error) {
	return s.store.GetRule(ctx, tenantID, ruleID)
}

func (s *Service) CreateRule(ctx context.Context, tenantID string, in RuleInput) (Rule, error) {
	in, err := normalizeRule(in)
	if err != nil {
		return Rule{}, err
	}
	return s.store.CreateRule(ctx, tenantID, in)
}

func (s *Service) UpdateRule(ctx context.Context, tenantID, ruleID string, in RuleInput) (Rule, error) {
	in, err := normalizeRule(in)
	if err != nil {
		return Rule{}, err
	}
	return s.store.UpdateRule(ctx, tenantID, ruleID, in)
}

func (s *Service) DeactivateRule(ctx context.Context, tenantID, ruleID string) error {
	return s.store.SetRuleActive(ctx, tenantID, ruleID, false)
}

func normalizeRule(in RuleInput) (RuleInput, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Context = strings.ToLower(strings.TrimSpace(in.Context))
	in.Severity = strings.ToLower(strings.TrimSpace(in.Severity))
	if in.Severity == "" {
		in.Severity = SeverityBlocking
	}
	if !slices.Contains(Contexts, in.Context) {
		return in, ErrUnknownContext
	}
	if !slices.Contains(Severities, in.Severity) {
		return in, ErrUnknownSeverity
	}
	if !slices.Contains(RuleTypes, in.RuleType) {
		return in, ErrUnknownRuleType
	}
	if _, err := DecodeConfig(in.RuleType, in.Config); err != nil {
		return in, err
	}
	if len(in.Config) == 0 {
		in.Config = []byte("{}")
	}
	if in.CompanyID != nil && strings.TrimSpace(*in.CompanyID) == "" {
		in.CompanyID = nil
	}
	return in, nil
}

// Evaluate resolves the applicable rules for a company and context and checks the payload.
func (s *Service) Evaluate(ctx context.Context, tenantID, companyID, policyContext string, payload []byte) (Evaluation, error) {
	if !slices.Contains(Contexts, policyContext) {
		return Evaluation{}, ErrUnknownContext
	}
	rules, err := s.store.ApplicableRules(ctx, tenantID, companyID, policyContext)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluate(ResolveRules(rules, companyID), payload, s.now())
}

// Enforce evaluates and returns a DecisionError wrapping ErrPolicyViolation when
// any blocking rule fails, or ErrPolicyWarning when a warning has no justification.
// Justified warnings come back as overrides for RecordOverrides.
func (s *Service) Enforce(ctx context.Context, in Enforcement) (Decision, error) {
	eval, err := s.Evaluate(ctx, in.TenantID, in.CompanyID, in.Context, in.Payload)
	if err != nil {
		return Decision{}, err
	}
	if len(eval.Violations) > 0 {
		return Decision{Evaluation: eval}, &DecisionError{Err: ErrPolicyViolation, Evaluation: eval}
	}
	decision := Decision{Evaluation: eval}
	for _, warning := range eval.Warnings {
		justification := strings.TrimSpace(in.Justifications[warning.RuleID])
		if justification == "" {
			return Decision{Evaluation: eval}, &DecisionError{Err: ErrPolicyWarning, Evaluation: eval}
		}
		decision.Overrides = append(decision.Overrides, Override{RuleID: warning.RuleID, Justification: justification})
	}
	decision.Evaluation.Allowed = true
	return decision, nil
}

// RecordOverrides persists accepted warnings against the entity they allowed.
func (s *Service) RecordOverrides(ctx context.Context, tenantID, policyContext, entityType, entityID, actorUserID string, overrides []Override) error {
	if len(overrides) == 0 {
		return nil
	}
	for _, o := range overrides {
		if strings.TrimSpace(o.Justification) == "" {
			return ErrJustificationNeeded
		}
	}
	if err := s.store.InsertOverrides(ctx, tenantID, policyContext, entityType, entityID, actorUserID, overrides); err != nil {
		return err
	}
	events.Emit(ctx, s.events, events.Event{
		Type:     events.PolicyOverride,
		TenantID: tenantID,
		Payload: map[string]any{
			"context":    policyContext,
			"entityType": entityType,
			"entityId":   entityID,
			"actorId":    actorUserID,
			"overrides":  overrides,
		},
	})
	return nil
}
