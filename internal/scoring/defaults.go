package scoring

import "fmt"

// Defaults are the values substituted for a participant who has not rated
// a restaurant. They apply per missing value, never per restaurant.
type Defaults struct {
	Overall   int `koanf:"overall" validate:"min=1,max=5"`
	Nutrition int `koanf:"nutrition" validate:"oneof=1 3 5"`
}

// DefaultDefaults assumes above average until proven otherwise (4 of 5) and
// a neutral nutrition rating (3 of {1,3,5}).
func DefaultDefaults() Defaults {
	return Defaults{Overall: 4, Nutrition: 3}
}

// Validate checks that both defaults lie in their rating domains.
func (d Defaults) Validate() error {
	if d.Overall < 1 || d.Overall > 5 {
		return fmt.Errorf("default overall must be within 1..5, got %d", d.Overall)
	}
	if d.Nutrition != 1 && d.Nutrition != 3 && d.Nutrition != 5 {
		return fmt.Errorf("default nutrition must be one of 1, 3, 5, got %d", d.Nutrition)
	}
	return nil
}

// OverallOr returns the stored overall score or the default.
func (d Defaults) OverallOr(v *int) int {
	if v == nil {
		return d.Overall
	}
	return *v
}

// NutritionOr returns the stored nutrition score or the default.
func (d Defaults) NutritionOr(v *int) int {
	if v == nil {
		return d.Nutrition
	}
	return *v
}
