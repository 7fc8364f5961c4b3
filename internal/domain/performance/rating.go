package performance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RatingScale is an inclusive numeric range such as 1-5.
type RatingScale struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

var ratingScales = map[string]RatingScale{
	"1-5":   {Name: "1-5", Min: 1, Max: 5},
	"1-4":   {Name: "1-4", Min: 1, Max: 4},
	"1-10":  {Name: "1-10", Min: 1, Max: 10},
	"0-100": {Name: "0-100", Min: 0, Max: 100},
}

var RatingScaleNames = []string{"1-5", "1-4", "1-10", "0-100"}

func ParseRatingScale(name string) (RatingScale, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "1-5"
	}
	scale, ok := ratingScales[name]
	if !ok {
		return RatingScale{}, ErrUnknownScale
	}
	return scale, nil
}

func (s RatingScale) Contains(value float64) bool {
	return value >= s.Min && value <= s.Max
}

// ConvertRating maps value linearly from one scale onto another, rounded to two decimals.
func ConvertRating(value float64, from, to RatingScale) (float64, error) {
	if !from.Contains(value) {
		return 0, ErrRatingOutOfRange
	}
	position := decimal.NewFromFloat(value - from.Min).Div(decimal.NewFromFloat(from.Max - from.Min))
	converted := position.Mul(decimal.NewFromFloat(to.Max - to.Min)).Add(decimal.NewFromFloat(to.Min))
	return converted.Round(2).InexactFloat64(), nil
}

// NormalizeRating expresses value on the 0-100 scale.
func NormalizeRating(value float64, from RatingScale) (float64, error) {
	return ConvertRating(value, from, ratingScales["0-100"])
}
