package performance

import (
	"time"
)

type Goal struct {
	ID           string      `json:"id"`
	EmployeeID   string      `json:"employeeId"`
	EmployeeName string      `json:"employeeName,omitempty"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Metric       string      `json:"metric,omitempty"`
	TargetValue  float64     `json:"targetValue"`
	CurrentValue *float64    `json:"currentValue"`
	Inverse      bool        `json:"inverse"`
	Threshold    float64     `json:"threshold"`
	Stretch      float64     `json:"stretch"`
	Weight       float64     `json:"weight"`
	DueDate      string      `json:"dueDate,omitempty"`
	Status       string      `json:"status"`
	Achievement  Achievement `json:"achievement"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type GoalInput struct {
	EmployeeID   string
	Title        string
	Description  string
	Metric       string
	TargetValue  float64
	CurrentValue *float64
	Inverse      bool
	Threshold    float64
	Stretch      float64
	Weight       float64
	DueDate      *time.Time
	Status       string
}

func (g Goal) Options() AchievementOptions {
	return AchievementOptions{
		Inverse:    g.Inverse,
		Threshold:  g.Threshold,
		Stretch:    g.Stretch,
		NoProgress: g.CurrentValue == nil,
	}
}

// Score fills in the goal's achievement.
func (g *Goal) Score() error {
	current := 0.0
	if g.CurrentValue != nil {
		current = *g.CurrentValue
	}
	achievement, err := CalculateGoalAchievement(current, g.TargetValue, g.Options())
	if err != nil {
		return err
	}
	g.Achievement = achievement
	return nil
}

type GoalSummary struct {
	EmployeeID         string         `json:"employeeId"`
	GoalCount          int            `json:"goalCount"`
	TotalWeight        float64        `json:"totalWeight"`
	WeightedPercentage float64        `json:"weightedPercentage"`
	Level              string         `json:"level"`
	ByLevel            map[string]int `json:"byLevel"`
}

type AppraisalCycle struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	StartDate             string    `json:"startDate"`
	EndDate               string    `json:"endDate"`
	SelfReviewDeadline    string    `json:"selfReviewDeadline,omitempty"`
	ManagerReviewDeadline string    `json:"managerReviewDeadline,omitempty"`
	CalibrationDeadline   string    `json:"calibrationDeadline,omitempty"`
	RatingScale           string    `json:"ratingScale"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"createdAt"`
}

type CycleInput struct {
	Name                  string
	StartDate             time.Time
	EndDate               time.Time
	SelfReviewDeadline    *time.Time
	ManagerReviewDeadline *time.Time
	CalibrationDeadline   *time.Time
	RatingScale           string
}

// SelfReviewReminder is an employee whose self review deadline is near.
type SelfReviewReminder struct {
	CycleID   string
	CycleName string
	UserID    string
	Deadline  time.Time
}
