package models

// Rating is one user's opinion of a restaurant. Both scores are optional;
// a nil score means "unrated" and is filled by the scoring defaults.
// Re-rating overwrites the previous values.
type Rating struct {
	UserID       string `validate:"required"`
	RestaurantID string `validate:"required"`

	// Overall is the 1-5 star score.
	Overall *int `validate:"omitempty,min=1,max=5"`

	// Nutrition is 1 (poor), 3 (okay) or 5 (healthy).
	Nutrition *int `validate:"omitempty,oneof=1 3 5"`

	// UpdatedAt is the Unix timestamp of the last upsert.
	UpdatedAt int64
}
