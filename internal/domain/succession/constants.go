package succession

const (
	ReadyNow        = "ready_now"
	Ready1To2Years  = "ready_1_2_years"
	Ready3PlusYears = "ready_3_plus_years"
	NotReady        = "not_ready"

	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"

	CriticalityLow    = "low"
	CriticalityMedium = "medium"
	CriticalityHigh   = "high"

	// trendTolerance is the score change treated as noise.
	trendTolerance = 5.0
)

var ReadinessLevels = []string{ReadyNow, Ready1To2Years, Ready3PlusYears, NotReady}

var Criticalities = []string{CriticalityLow, CriticalityMedium, CriticalityHigh}
