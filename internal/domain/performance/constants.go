package performance

const (
	CycleStatusDraft  = "draft"
	CycleStatusActive = "active"
	CycleStatusClosed = "closed"

	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusCancelled = "cancelled"

	LevelNotStarted = "not_started"
	LevelBelow      = "below"
	LevelMeets      = "meets"
	LevelExceeds    = "exceeds"

	DefaultThreshold = 80.0
	DefaultStretch   = 120.0
	MaxAchievement   = 150.0
)

var GoalStatuses = []string{GoalStatusActive, GoalStatusCompleted, GoalStatusCancelled}
