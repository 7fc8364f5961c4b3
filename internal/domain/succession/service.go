package succession

import (
	"context"
	"slices"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListPlans(ctx context.Context, tenantID string) ([]Plan, error) {
	return s.store.ListPlans(ctx, tenantID)
}

func (s *Service) CreatePlan(ctx context.Context, tenantID string, in PlanInput) (Plan, error) {
	in.PositionTitle = strings.TrimSpace(in.PositionTitle)
	in.Criticality = strings.ToLower(strings.TrimSpace(in.Criticality))
	if in.Criticality == "" {
		in.Criticality = CriticalityMedium
	}
	if !slices.Contains(Criticalities, in.Criticality) {
		return Plan{}, ErrUnknownCriticality
	}
	if in.IncumbentEmployeeID != nil && *in.IncumbentEmployeeID == "" {
		in.IncumbentEmployeeID = nil
	}
	return s.store.CreatePlan(ctx, tenantID, in)
}

// GetPlan returns the plan with every candidate's assessment history and readiness trend.
func (s *Service) GetPlan(ctx context.Context, tenantID, planID string) (Plan, error) {
	plan, err := s.store.GetPlan(ctx, tenantID, planID)
	if err != nil {
		return Plan{}, err
	}
	candidates, err := s.store.ListCandidates(ctx, tenantID, planID)
	if err != nil {
		return Plan{}, err
	}
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assessments, err := s.store.ListAssessments(ctx, tenantID, ids)
	if err != nil {
		return Plan{}, err
	}
	byCandidate := map[string][]Assessment{}
	for _, a := range assessments {
		byCandidate[a.CandidateID] = append(byCandidate[a.CandidateID], a)
	}
	plan.Candidates = make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Assessments = byCandidate[c.ID]
		if c.Assessments == nil {
			c.Assessments = []Assessment{}
		}
		c.Trend = ReadinessTrend(c.Assessments)
		plan.Candidates = append(plan.Candidates, c)
	}
	return plan, nil
}

func (s *Service) AddCandidate(ctx context.Context, tenantID, planID, employeeID, readiness string) (Candidate, error) {
	if !slices.Contains(ReadinessLevels, readiness) {
		return Candidate{}, ErrUnknownReadiness
	}
	if _, err := s.store.GetPlan(ctx, tenantID, planID); err != nil {
		return Candidate{}, err
	}
	c, err := s.store.AddCandidate(ctx, tenantID, planID, employeeID, readiness)
	if err != nil {
		return Candidate{}, err
	}
	c.Assessments = []Assessment{}
	c.Trend = TrendInsufficientData
	return c, nil
}

func (s *Service) Assess(ctx context.Context, tenantID, candidateID string, in AssessmentInput) (Assessment, error) {
	if !slices.Contains(ReadinessLevels, in.Readiness) {
		return Assessment{}, ErrUnknownReadiness
	}
	if in.Score < 0 || in.Score > 100 {
		return Assessment{}, ErrInvalidScore
	}
	if _, err := s.store.GetCandidate(ctx, tenantID, candidateID); err != nil {
		return Assessment{}, err
	}
	return s.store.AddAssessment(ctx, tenantID, candidateID, in)
}
