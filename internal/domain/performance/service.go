package performance

import (
	"context"
	"time"

	"hris/internal/platform/localdate"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error) {
	goals, err := s.store.ListGoals(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return scoreAll(goals)
}

func scoreAll(goals []Goal) ([]Goal, error) {
	for i := range goals {
		if err := goals[i].Score(); err != nil {
			return nil, err
		}
	}
	return goals, nil
}

func (s *Service) GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, tenantID, goalID)
	if err != nil {
		return Goal{}, err
	}
	return goal, goal.Score()
}

// CreateGoal checks target and thresholds before anything is stored.
func (s *Service) CreateGoal(ctx context.Context, tenantID string, in GoalInput) (Goal, error) {
	in = normalizeGoal(in)
	if err := validateGoal(in); err != nil {
		return Goal{}, err
	}
	goal, err := s.store.CreateGoal(ctx, tenantID, in)
	if err != nil {
		return Goal{}, err
	}
	return goal, goal.Score()
}

func (s *Service) UpdateGoal(ctx context.Context, tenantID, goalID string, in GoalInput) (Goal, error) {
	in = normalizeGoal(in)
	if err := validateGoal(in); err != nil {
		return Goal{}, err
	}
	goal, err := s.store.UpdateGoal(ctx, tenantID, goalID, in)
	if err != nil {
		return Goal{}, err
	}
	return goal, goal.Score()
}

func (s *Service) DeleteGoal(ctx context.Context, tenantID, goalID string) error {
	return s.store.DeleteGoal(ctx, tenantID, goalID)
}

func normalizeGoal(in GoalInput) GoalInput {
	if in.Threshold == 0 {
		in.Threshold = DefaultThreshold
	}
	if in.Stretch == 0 {
		in.Stretch = DefaultStretch
	}
	if in.Weight == 0 {
		in.Weight = 1
	}
	if in.Status == "" {
		in.Status = GoalStatusActive
	}
	return in
}

func validateGoal(in GoalInput) error {
	current := 0.0
	if in.CurrentValue != nil {
		current = *in.CurrentValue
	}
	_, err := CalculateGoalAchievement(current, in.TargetValue, AchievementOptions{
		Inverse: in.Inverse, Threshold: in.Threshold, Stretch: in.Stretch, NoProgress: in.CurrentValue == nil,
	})
	return err
}

// GoalSummary returns the weight-averaged achievement across an employee's goals.
func (s *Service) GoalSummary(ctx context.Context, tenantID, employeeID string) (GoalSummary, error) {
	goals, err := s.ListGoals(ctx, tenantID, GoalFilter{EmployeeID: employeeID})
	if err != nil {
		return GoalSummary{}, err
	}
	return SummarizeGoals(employeeID, goals), nil
}

func (s *Service) ListCycles(ctx context.Context, tenantID string) ([]AppraisalCycle, error) {
	return s.store.ListCycles(ctx, tenantID)
}

func (s *Service) GetCycle(ctx context.Context, tenantID, cycleID string) (AppraisalCycle, error) {
	return s.store.GetCycle(ctx, tenantID, cycleID)
}

// ValidateCycle returns the date issues of a cycle; an empty result means it is valid.
func ValidateCycle(in CycleInput) []localdate.Issue {
	return localdate.ValidateCycleDates(in.StartDate, in.EndDate,
		deadline("selfReviewDeadline", in.SelfReviewDeadline),
		deadline("managerReviewDeadline", in.ManagerReviewDeadline),
		deadline("calibrationDeadline", in.CalibrationDeadline),
	)
}

func deadline(field string, t *time.Time) localdate.Deadline {
	if t == nil {
		return localdate.Deadline{Field: field}
	}
	return localdate.Deadline{Field: field, Date: *t}
}

func (s *Service) CreateCycle(ctx context.Context, tenantID string, in CycleInput) (AppraisalCycle, error) {
	if issues := ValidateCycle(in); len(issues) > 0 {
		return AppraisalCycle{}, &localdate.CycleError{Issues: issues}
	}
	scale, err := ParseRatingScale(in.RatingScale)
	if err != nil {
		return AppraisalCycle{}, err
	}
	in.RatingScale = scale.Name
	return s.store.CreateCycle(ctx, tenantID, in)
}

func (s *Service) ActivateCycle(ctx context.Context, tenantID, cycleID string) (AppraisalCycle, error) {
	return s.transition(ctx, tenantID, cycleID, CycleStatusDraft, CycleStatusActive)
}

func (s *Service) CloseCycle(ctx context.Context, tenantID, cycleID string) (AppraisalCycle, error) {
	return s.transition(ctx, tenantID, cycleID, CycleStatusActive, CycleStatusClosed)
}

func (s *Service) transition(ctx context.Context, tenantID, cycleID, from, to string) (AppraisalCycle, error) {
	if _, err := s.store.GetCycle(ctx, tenantID, cycleID); err != nil {
		return AppraisalCycle{}, err
	}
	ok, err := s.store.TransitionCycle(ctx, tenantID, cycleID, from, to)
	if err != nil {
		return AppraisalCycle{}, err
	}
	if !ok {
		return AppraisalCycle{}, ErrCycleTransition
	}
	return s.store.GetCycle(ctx, tenantID, cycleID)
}

// SelfReviewsDue lists employees whose active cycle's self review deadline falls within the window from today.
func (s *Service) SelfReviewsDue(ctx context.Context, tenantID string, window time.Duration) ([]SelfReviewReminder, error) {
	today := localdate.FromTime(s.now())
	return s.store.SelfReviewsDue(ctx, tenantID, today, today.Add(window))
}
