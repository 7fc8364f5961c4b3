package policy

import "context"

type RuleFilter struct {
	Context         string
	IncludeInactive bool
}

type StoreAPI interface {
	ListRules(ctx context.Context, tenantID string, filter RuleFilter) ([]Rule, error)
	// ApplicableRules returns active global rules plus those of companyID for one context.
	ApplicableRules(ctx context.Context, tenantID, companyID, context string) ([]Rule, error)
	GetRule(ctx context.Context, tenantID, ruleID string) (Rule, error)
	CreateRule(ctx context.Context, tenantID string, in RuleInput) (Rule, error)
	UpdateRule(ctx context.Context, tenantID, ruleID string, in RuleInput) (Rule, error)
	SetRuleActive(ctx context.Context, tenantID, ruleID string, active bool) error
	InsertOverrides(ctx context.Context, tenantID, context, entityType, entityID, actorUserID string, overrides []Override) error
}
