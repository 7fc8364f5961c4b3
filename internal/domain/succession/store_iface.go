package succession

import "context"

type StoreAPI interface {
	ListPlans(ctx context.Context, tenantID string) ([]Plan, error)
	GetPlan(ctx context.Context, tenantID, planID string) (Plan, error)
	CreatePlan(ctx context.Context, tenantID string, in PlanInput) (Plan, error)
	ListCandidates(ctx context.Context, tenantID, planID string) ([]Candidate, error)
	GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error)
	AddCandidate(ctx context.Context, tenantID, planID, employeeID, readiness string) (Candidate, error)
	ListAssessments(ctx context.Context, tenantID string, candidateIDs []string) ([]Assessment, error)
	// AddAssessment records the assessment and moves the candidate to its readiness level.
	AddAssessment(ctx context.Context, tenantID, candidateID string, in AssessmentInput) (Assessment, error)
}
