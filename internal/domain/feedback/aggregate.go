package feedback

import (
	"github.com/shopspring/decimal"

	"hris/internal/domain/performance"
)

// Aggregate normalizes ratings to 0-100 and averages them per relationship.
// Peer and direct report groups below threshold are suppressed and contribute
// nothing. The overall score excludes self ratings; a reviewer who answered
// under several relationships carries a weight of 1/n on each answer so every
// person counts once.
func Aggregate(responses []Response, scale performance.RatingScale, threshold int) (map[string]RelationshipResult, *float64, error) {
	if threshold <= 0 {
		threshold = DefaultAnonymityThreshold
	}
	type group struct {
		sum      decimal.Decimal
		count    int
		comments []string
		items    []weighted
	}
	groups := map[string]*group{}
	for _, r := range responses {
		normalized, err := performance.NormalizeRating(r.Rating, scale)
		if err != nil {
			return nil, nil, err
		}
		g := groups[r.Relationship]
		if g == nil {
			g = &group{sum: decimal.Zero}
			groups[r.Relationship] = g
		}
		value := decimal.NewFromFloat(normalized)
		g.sum = g.sum.Add(value)
		g.count++
		if r.Comments != "" {
			g.comments = append(g.comments, r.Comments)
		}
		g.items = append(g.items, weighted{reviewer: r.ReviewerEmployeeID, value: value})
	}

	results := make(map[string]RelationshipResult, len(groups))
	var scored []weighted
	for relationship, g := range groups {
		result := RelationshipResult{Relationship: relationship, Responses: g.count}
		if anonymousRelationships[relationship] && g.count < threshold {
			result.Suppressed = true
			results[relationship] = result
			continue
		}
		avg := g.sum.Div(decimal.NewFromInt(int64(g.count))).Round(2).InexactFloat64()
		result.Average = &avg
		result.Comments = g.comments
		results[relationship] = result
		if relationship != RelationshipSelf {
			scored = append(scored, g.items...)
		}
	}

	// Positions are counted over scored answers only so a suppressed answer
	// never dilutes its reviewer's visible ones.
	positions := map[string]int64{}
	for _, item := range scored {
		positions[item.reviewer]++
	}
	overallSum := decimal.Zero
	overallWeight := decimal.Zero
	for _, item := range scored {
		weight := decimal.NewFromInt(1).Div(decimal.NewFromInt(positions[item.reviewer]))
		overallSum = overallSum.Add(item.value.Mul(weight))
		overallWeight = overallWeight.Add(weight)
	}
	if overallWeight.IsZero() {
		return results, nil, nil
	}
	overall := overallSum.Div(overallWeight).Round(2).InexactFloat64()
	return results, &overall, nil
}

type weighted struct {
	reviewer string
	value    decimal.Decimal
}
