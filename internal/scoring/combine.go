package scoring

import (
	"math"
	"slices"
)

// scoreEpsilon is the tolerance under which two final scores count as tied.
const scoreEpsilon = 1e-9

// Rescale maps a 1..5 rating average linearly onto 0..100.
func Rescale(avg float64) float64 {
	return (avg - 1) / 4 * MaxScore
}

// Combine returns the weighted final score of s. The rating averages are
// rescaled first so that all four components share the 0..100 range.
func Combine(w Weights, s Signals) float64 {
	return w.Overall*Rescale(s.OverallAvg) +
		w.Recency*s.RecencyScore +
		w.Nutrition*Rescale(s.NutritionAvg) +
		w.Cost*s.CostScore
}

// Scored is a restaurant with its signals and final score.
type Scored struct {
	RestaurantID string
	Signals
	FinalScore float64
}

// Compare orders a before b when a ranks higher: larger final score, then
// larger overall average, then the lexicographically smaller ID.
func Compare(a, b Scored) int {
	if d := a.FinalScore - b.FinalScore; math.Abs(d) > scoreEpsilon {
		if d > 0 {
			return -1
		}
		return 1
	}
	if d := a.OverallAvg - b.OverallAvg; math.Abs(d) > scoreEpsilon {
		if d > 0 {
			return -1
		}
		return 1
	}
	switch {
	case a.RestaurantID < b.RestaurantID:
		return -1
	case a.RestaurantID > b.RestaurantID:
		return 1
	}
	return 0
}

// Rank sorts items best first.
func Rank(items []Scored) {
	slices.SortStableFunc(items, Compare)
}
