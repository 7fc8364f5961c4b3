package performance

import (
	"github.com/shopspring/decimal"
)

type AchievementOptions struct {
	// Inverse marks lower-is-better goals.
	Inverse   bool
	Threshold float64
	Stretch   float64
	// NoProgress reports that no current value has been recorded yet.
	NoProgress bool
}

type Achievement struct {
	Percentage float64 `json:"percentage"`
	Level      string  `json:"level"`
}

func (o AchievementOptions) withDefaults() AchievementOptions {
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Stretch == 0 {
		o.Stretch = DefaultStretch
	}
	return o
}

// CalculateGoalAchievement scores current against target. The percentage is
// clamped to [0, 150] and rounded to two decimals. An inverse goal whose
// current value is zero has beaten any positive target and scores the cap.
func CalculateGoalAchievement(current, target float64, opts AchievementOptions) (Achievement, error) {
	if target <= 0 {
		return Achievement{}, ErrInvalidTarget
	}
	opts = opts.withDefaults()
	if opts.Threshold <= 0 || opts.Stretch < opts.Threshold {
		return Achievement{}, ErrInvalidThresholds
	}
	if opts.NoProgress || (!opts.Inverse && current == 0) {
		return Achievement{Percentage: 0, Level: LevelNotStarted}, nil
	}

	cur := decimal.NewFromFloat(current)
	tgt := decimal.NewFromFloat(target)
	hundred := decimal.NewFromInt(100)
	maxPct := decimal.NewFromFloat(MaxAchievement)

	var pct decimal.Decimal
	switch {
	case opts.Inverse && cur.Sign() <= 0:
		pct = maxPct
	case opts.Inverse:
		pct = tgt.Div(cur).Mul(hundred)
	default:
		pct = cur.Div(tgt).Mul(hundred)
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(maxPct) {
		pct = maxPct
	}
	percentage := pct.Round(2).InexactFloat64()
	return Achievement{Percentage: percentage, Level: levelFor(percentage, opts.Threshold, opts.Stretch)}, nil
}

func levelFor(percentage, threshold, stretch float64) string {
	switch {
	case percentage >= stretch:
		return LevelExceeds
	case percentage >= threshold:
		return LevelMeets
	default:
		return LevelBelow
	}
}
