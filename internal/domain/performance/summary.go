package performance

import "github.com/shopspring/decimal"

// SummarizeGoals weights each scored goal's percentage by its weight.
// Cancelled goals and goals with no weight are ignored.
func SummarizeGoals(employeeID string, goals []Goal) GoalSummary {
	summary := GoalSummary{EmployeeID: employeeID, ByLevel: map[string]int{}, Level: LevelNotStarted}
	weighted := decimal.Zero
	total := decimal.Zero
	for _, goal := range goals {
		if goal.Status == GoalStatusCancelled || goal.Weight <= 0 {
			continue
		}
		summary.GoalCount++
		summary.ByLevel[goal.Achievement.Level]++
		w := decimal.NewFromFloat(goal.Weight)
		total = total.Add(w)
		weighted = weighted.Add(decimal.NewFromFloat(goal.Achievement.Percentage).Mul(w))
	}
	if total.IsZero() {
		return summary
	}
	summary.TotalWeight = total.Round(2).InexactFloat64()
	summary.WeightedPercentage = weighted.Div(total).Round(2).InexactFloat64()
	if summary.ByLevel[LevelNotStarted] == summary.GoalCount {
		return summary
	}
	summary.Level = levelFor(summary.WeightedPercentage, DefaultThreshold, DefaultStretch)
	return summary
}
