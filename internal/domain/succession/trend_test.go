package succession

import (
	"testing"
	"time"
)

func assessment(day int, readiness string, score float64) Assessment {
	return Assessment{Readiness: readiness, Score: score, AssessedAt: time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)}
}

func TestReadinessTrend(t *testing.T) {
	cases := []struct {
		name  string
		input []Assessment
		want  string
	}{
		{"none", nil, TrendInsufficientData},
		{"single", []Assessment{assessment(1, ReadyNow, 80)}, TrendInsufficientData},
		{"level up", []Assessment{assessment(1, Ready3PlusYears, 90), assessment(2, Ready1To2Years, 60)}, TrendImproving},
		{"level down", []Assessment{assessment(1, ReadyNow, 70), assessment(2, Ready1To2Years, 90)}, TrendDeclining},
		{"score up", []Assessment{assessment(1, Ready1To2Years, 60), assessment(2, Ready1To2Years, 70)}, TrendImproving},
		{"score noise", []Assessment{assessment(1, Ready1To2Years, 60), assessment(2, Ready1To2Years, 63)}, TrendStable},
		{"unsorted input", []Assessment{assessment(5, NotReady, 20), assessment(1, Ready1To2Years, 60)}, TrendDeclining},
	}
	for _, tc := range cases {
		if got := ReadinessTrend(tc.input); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
