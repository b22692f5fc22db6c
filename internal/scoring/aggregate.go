package scoring

import (
	"time"

	"github.com/mmynk/platepick/internal/models"
)

const (
	// MinScore and MaxScore bound every rescaled signal.
	MinScore = 0.0
	MaxScore = 100.0

	costStep = MaxScore / float64(models.PriceVeryExpensive)
)

// RatingRow is one participant's stored rating for a restaurant.
// Nil scores are unrated.
type RatingRow struct {
	UserID    string
	Overall   *int
	Nutrition *int
}

// Input is everything the aggregator needs for one restaurant.
type Input struct {
	// Participants is the event's fixed participant set.
	Participants []string

	// Ratings may include rows from other users; they are ignored.
	Ratings []RatingRow

	PriceTier models.PriceTier

	// LastVisit is the group's most recent visit, zero if never visited.
	LastVisit time.Time

	// Now is the evaluation instant.
	Now time.Time
}

// Signals are the four sub-scores of one restaurant.
type Signals struct {
	// OverallAvg and NutritionAvg are on the 1..5 rating scale.
	OverallAvg   float64
	NutritionAvg float64

	// CostScore and RecencyScore are on the 0..100 scale.
	CostScore    float64
	RecencyScore float64
}

// Aggregator computes signals using a fixed configuration.
// It is stateless and safe for concurrent use.
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an aggregator for cfg.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate computes the signals for one restaurant.
func (a *Aggregator) Aggregate(in Input) Signals {
	overall, nutrition := a.averages(in.Participants, in.Ratings)
	return Signals{
		OverallAvg:   overall,
		NutritionAvg: nutrition,
		CostScore:    CostScore(in.PriceTier, a.cfg.UnknownCostScore),
		RecencyScore: RecencyScore(in.LastVisit, in.Now, a.cfg.RecencyWindow),
	}
}

// averages returns the mean overall and nutrition scores over participants,
// substituting defaults for each missing value. With no participants the
// defaults themselves are returned.
func (a *Aggregator) averages(participants []string, ratings []RatingRow) (float64, float64) {
	d := a.cfg.Defaults
	if len(participants) == 0 {
		return float64(d.Overall), float64(d.Nutrition)
	}

	byUser := make(map[string]RatingRow, len(ratings))
	for _, r := range ratings {
		byUser[r.UserID] = r
	}

	var overallSum, nutritionSum int
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		r, ok := byUser[p]
		if !ok {
			overallSum += d.Overall
			nutritionSum += d.Nutrition
			continue
		}
		overallSum += d.OverallOr(r.Overall)
		nutritionSum += d.NutritionOr(r.Nutrition)
	}

	n := float64(len(seen))
	return float64(overallSum) / n, float64(nutritionSum) / n
}

// CostScore maps a price tier to [0,100], cheaper scoring higher:
// tier 0 is 100 and tier 4 is 0. Unknown tiers score unknown.
func CostScore(tier models.PriceTier, unknown float64) float64 {
	if !tier.Known() {
		return unknown
	}
	return MaxScore - costStep*float64(tier)
}

// RecencyScore rises linearly from 0 for a visit at now to 100 once window
// has elapsed. A zero lastVisit (never visited) scores 100; a visit in the
// future scores 0.
func RecencyScore(lastVisit, now time.Time, window time.Duration) float64 {
	if lastVisit.IsZero() {
		return MaxScore
	}
	elapsed := now.Sub(lastVisit)
	if elapsed <= 0 {
		return MinScore
	}
	if elapsed >= window {
		return MaxScore
	}
	return MaxScore * float64(elapsed) / float64(window)
}
