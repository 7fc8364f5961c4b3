package succession

import "sort"

var readinessRank = map[string]int{
	NotReady:        0,
	Ready3PlusYears: 1,
	Ready1To2Years:  2,
	ReadyNow:        3,
}

// ReadinessTrend compares the two most recent assessments. A readiness level change
// decides the trend; at equal levels a score move beyond the tolerance does.
func ReadinessTrend(assessments []Assessment) string {
	if len(assessments) < 2 {
		return TrendInsufficientData
	}
	ordered := make([]Assessment, len(assessments))
	copy(ordered, assessments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AssessedAt.Before(ordered[j].AssessedAt)
	})
	prev, last := ordered[len(ordered)-2], ordered[len(ordered)-1]
	switch delta := readinessRank[last.Readiness] - readinessRank[prev.Readiness]; {
	case delta > 0:
		return TrendImproving
	case delta < 0:
		return TrendDeclining
	}
	switch diff := last.Score - prev.Score; {
	case diff > trendTolerance:
		return TrendImproving
	case diff < -trendTolerance:
		return TrendDeclining
	}
	return TrendStable
}
