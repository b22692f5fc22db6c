// Package scoring turns raw ratings, price tiers and visit history into the
// four normalized signals used to rank restaurants, and combines them into a
// single ordering key.
//
// Every function in this package is pure: the caller supplies the clock and
// all inputs, so results are deterministic.
package scoring

import (
	"fmt"
	"math"
	"time"
)

// Weights are the relative contributions of each rescaled signal to the
// final score. They must be non-negative and sum to 1.
type Weights struct {
	Overall   float64 `koanf:"overall" validate:"gte=0,lte=1"`
	Recency   float64 `koanf:"recency" validate:"gte=0,lte=1"`
	Nutrition float64 `koanf:"nutrition" validate:"gte=0,lte=1"`
	Cost      float64 `koanf:"cost" validate:"gte=0,lte=1"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Overall + w.Recency + w.Nutrition + w.Cost
}

// Validate checks that the weights form a convex combination.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"overall": w.Overall, "recency": w.Recency, "nutrition": w.Nutrition, "cost": w.Cost,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative number, got %v", name, v)
		}
	}
	if math.Abs(w.Sum()-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", w.Sum())
	}
	return nil
}

const weightTolerance = 1e-9

// Config holds every tunable of the scoring model.
type Config struct {
	Weights  Weights  `koanf:"weights"`
	Defaults Defaults `koanf:"defaults"`

	// RecencyWindow is the time after a visit at which a restaurant's
	// recency score is fully restored.
	RecencyWindow time.Duration `koanf:"recency_window" validate:"gt=0"`

	// UnknownCostScore is the cost score of a restaurant without a known
	// price tier.
	UnknownCostScore float64 `koanf:"unknown_cost_score" validate:"gte=0,lte=100"`
}

// DefaultConfig returns the product defaults: 40/30/15/15 weighting,
// unrated overall 4 and nutrition 3, a 30 day recency window, and a neutral
// cost score for unknown prices.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Overall:   0.40,
			Recency:   0.30,
			Nutrition: 0.15,
			Cost:      0.15,
		},
		Defaults:         DefaultDefaults(),
		RecencyWindow:    30 * 24 * time.Hour,
		UnknownCostScore: 50,
	}
}

// Validate checks the cross-field constraints of the configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Defaults.Validate(); err != nil {
		return err
	}
	if c.RecencyWindow <= 0 {
		return fmt.Errorf("recency window must be positive, got %s", c.RecencyWindow)
	}
	if c.UnknownCostScore < 0 || c.UnknownCostScore > MaxScore {
		return fmt.Errorf("unknown cost score must be within [0,100], got %v", c.UnknownCostScore)
	}
	return nil
}
