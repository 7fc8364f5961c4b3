package feedback

import (
	"context"
	"slices"
	"sort"
	"time"

	"hris/internal/domain/performance"
	"hris/internal/platform/localdate"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func ValidateCycle(in CycleInput) []localdate.Issue {
	var deadlines []localdate.Deadline
	if in.NominationDeadline != nil {
		deadlines = append(deadlines, localdate.Deadline{Field: "nominationDeadline", Date: *in.NominationDeadline})
	}
	if in.ResponseDeadline != nil {
		deadlines = append(deadlines, localdate.Deadline{Field: "responseDeadline", Date: *in.ResponseDeadline})
	}
	return localdate.ValidateCycleDates(in.StartDate, in.EndDate, deadlines...)
}

func (s *Service) CreateCycle(ctx context.Context, tenantID string, in CycleInput) (Cycle, error) {
	if issues := ValidateCycle(in); len(issues) > 0 {
		return Cycle{}, &localdate.CycleError{Issues: issues}
	}
	scale, err := performance.ParseRatingScale(in.RatingScale)
	if err != nil {
		return Cycle{}, err
	}
	in.RatingScale = scale.Name
	if in.AnonymityThreshold <= 0 {
		in.AnonymityThreshold = DefaultAnonymityThreshold
	}
	return s.store.CreateCycle(ctx, tenantID, in)
}

func (s *Service) ListCycles(ctx context.Context, tenantID string) ([]Cycle, error) {
	return s.store.ListCycles(ctx, tenantID)
}

func (s *Service) LaunchCycle(ctx context.Context, tenantID, cycleID string) (Cycle, error) {
	return s.transition(ctx, tenantID, cycleID, CycleStatusDraft, CycleStatusActive)
}

func (s *Service) CloseCycle(ctx context.Context, tenantID, cycleID string) (Cycle, error) {
	return s.transition(ctx, tenantID, cycleID, CycleStatusActive, CycleStatusClosed)
}

func (s *Service) transition(ctx context.Context, tenantID, cycleID, from, to string) (Cycle, error) {
	if _, err := s.store.GetCycle(ctx, tenantID, cycleID); err != nil {
		return Cycle{}, err
	}
	ok, err := s.store.TransitionCycle(ctx, tenantID, cycleID, from, to)
	if err != nil {
		return Cycle{}, err
	}
	if !ok {
		return Cycle{}, ErrCycleTransition
	}
	return s.store.GetCycle(ctx, tenantID, cycleID)
}

// AssignReviewers adds requests for one subject while the cycle is draft or active.
func (s *Service) AssignReviewers(ctx context.Context, tenantID, cycleID, subjectEmployeeID string, assignments []Assignment) (int, error) {
	cycle, err := s.store.GetCycle(ctx, tenantID, cycleID)
	if err != nil {
		return 0, err
	}
	if cycle.Status == CycleStatusClosed {
		return 0, ErrCycleNotOpen
	}
	for _, a := range assignments {
		if !slices.Contains(Relationships, a.Relationship) {
			return 0, ErrUnknownRelationship
		}
		if (a.Relationship == RelationshipSelf) != (a.ReviewerEmployeeID == subjectEmployeeID) {
			return 0, ErrSelfMismatch
		}
	}
	return s.store.CreateRequests(ctx, tenantID, cycleID, subjectEmployeeID, assignments)
}

func (s *Service) PendingRequests(ctx context.Context, tenantID, reviewerEmployeeID string) ([]Request, error) {
	return s.store.ListPendingRequests(ctx, tenantID, reviewerEmployeeID)
}

// Submit records the reviewer's answer; the rating must lie on the cycle's scale.
func (s *Service) Submit(ctx context.Context, tenantID, requestID, reviewerEmployeeID string, rating float64, comments string) (Request, error) {
	req, err := s.store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.ReviewerEmployeeID != reviewerEmployeeID {
		return Request{}, ErrNotReviewer
	}
	if req.Status != RequestStatusPending {
		return Request{}, ErrAlreadySubmitted
	}
	if req.CycleStatus != CycleStatusActive {
		return Request{}, ErrCycleNotOpen
	}
	scale, err := performance.ParseRatingScale(req.RatingScale)
	if err != nil {
		return Request{}, err
	}
	if !scale.Contains(rating) {
		return Request{}, performance.ErrRatingOutOfRange
	}
	ok, err := s.store.SubmitRequest(ctx, tenantID, requestID, rating, comments)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrAlreadySubmitted
	}
	return s.store.GetRequest(ctx, tenantID, requestID)
}

func (s *Service) Results(ctx context.Context, tenantID, cycleID, subjectEmployeeID string) (Results, error) {
	cycle, err := s.store.GetCycle(ctx, tenantID, cycleID)
	if err != nil {
		return Results{}, err
	}
	scale, err := performance.ParseRatingScale(cycle.RatingScale)
	if err != nil {
		return Results{}, err
	}
	responses, err := s.store.ListResponses(ctx, tenantID, cycleID, subjectEmployeeID)
	if err != nil {
		return Results{}, err
	}
	byRelationship, overall, err := Aggregate(responses, scale, cycle.AnonymityThreshold)
	if err != nil {
		return Results{}, err
	}
	results := Results{CycleID: cycleID, SubjectEmployeeID: subjectEmployeeID, RatingScale: scale.Name, Overall: overall}
	for _, rel := range byRelationship {
		results.Relationships = append(results.Relationships, rel)
	}
	sort.Slice(results.Relationships, func(i, j int) bool {
		return slices.Index(Relationships, results.Relationships[i].Relationship) < slices.Index(Relationships, results.Relationships[j].Relationship)
	})
	return results, nil
}

// RequestsDue lists pending requests whose response deadline falls within the window from today.
func (s *Service) RequestsDue(ctx context.Context, tenantID string, window time.Duration) ([]Reminder, error) {
	today := localdate.FromTime(s.now())
	return s.store.RequestsDue(ctx, tenantID, today, today.Add(window))
}
