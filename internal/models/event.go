package models

// Event is one instance of a group deciding where to eat.
//
// The participant set is fixed at creation. ChosenRestaurantID starts empty
// and is set exactly once by the choice coordinator.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// GroupID is the owning group.
	GroupID string

	// CreatedBy is the user who created the event and the only user
	// allowed to commit its choice.
	CreatedBy string

	// Participants are the user IDs whose ratings drive recommendations.
	Participants []string

	// ChosenRestaurantID is empty until the choice is committed.
	ChosenRestaurantID string

	// CreatedAt is the Unix timestamp when the event was created.
	CreatedAt int64

	// DecidedAt is the Unix timestamp of the commit, zero while undecided.
	DecidedAt int64
}

// Decided reports whether a restaurant has been committed.
func (e *Event) Decided() bool {
	return e.ChosenRestaurantID != ""
}

// Visit records that a group ate at a restaurant. Visits are append-only
// and feed the recency signal.
type Visit struct {
	ID           string
	EventID      string
	GroupID      string
	RestaurantID string

	// VisitedAt is the Unix timestamp of the commit that produced the visit.
	VisitedAt int64
}
