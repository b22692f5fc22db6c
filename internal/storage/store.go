// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/mmynk/platepick/internal/models"
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user. The ID must already be set.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil and no error if the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil and no error if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to user. Missing IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UpdateDisplayName renames a user and bumps UpdatedAt. Returns a
	// NotFound error if the user does not exist.
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}

// GroupStore persists groups, memberships and invites.
type GroupStore interface {
	// CreateGroup persists a group with its members. ID and CreatedAt are
	// populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns a NotFound error if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID belongs to.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// GetGroupMembers returns the member user IDs of a group.
	GetGroupMembers(ctx context.Context, groupID string) ([]string, error)

	// AddGroupMember adds userID to the group. Adding an existing member is a no-op.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// CreateInvite persists an invite. Token and CreatedAt are populated when empty.
	CreateInvite(ctx context.Context, invite *models.Invite) error

	// GetInvite returns a NotFound error for an unknown token.
	GetInvite(ctx context.Context, token string) (*models.Invite, error)
}

// RestaurantStore persists the shared restaurant catalog.
type RestaurantStore interface {
	// UpsertRestaurant inserts a restaurant or, when PlaceID matches an
	// existing row, refreshes its lookup fields. The stored row is written
	// back into restaurant.
	UpsertRestaurant(ctx context.Context, restaurant *models.Restaurant) error

	// GetRestaurant returns a NotFound error if the restaurant does not exist.
	GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error)

	// ListRestaurants returns the whole catalog ordered by name.
	ListRestaurants(ctx context.Context) ([]*models.Restaurant, error)

	// ListCandidateRestaurants returns the restaurants eligible for ranking
	// for a group. Every catalog entry is visible to every group.
	ListCandidateRestaurants(ctx context.Context, groupID string) ([]*models.Restaurant, error)
}

// RatingStore persists ratings with upsert semantics.
type RatingStore interface {
	// UpsertRating inserts or overwrites the (user, restaurant) rating.
	UpsertRating(ctx context.Context, rating *models.Rating) error

	// GetRatings returns the stored ratings of the given users for one
	// restaurant. Users without a rating are omitted.
	GetRatings(ctx context.Context, userIDs []string, restaurantID string) ([]*models.Rating, error)

	// ListRatingsByUser returns every rating a user has stored.
	ListRatingsByUser(ctx context.Context, userID string) ([]*models.Rating, error)
}

// VisitStore reads the append-only visit history.
type VisitStore interface {
	// LastVisit returns the group's most recent visit to the restaurant.
	// ok is false if the group never visited it.
	LastVisit(ctx context.Context, groupID, restaurantID string) (at time.Time, ok bool, err error)

	// ListVisits returns a group's visits, newest first.
	ListVisits(ctx context.Context, groupID string) ([]*models.Visit, error)
}

// EventStore persists events.
type EventStore interface {
	// CreateEvent persists an event and its fixed participant set.
	CreateEvent(ctx context.Context, event *models.Event) error

	// GetEvent returns a NotFound error if the event does not exist.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// ListEventsByGroup returns a group's events, newest first.
	ListEventsByGroup(ctx context.Context, groupID string) ([]*models.Event, error)
}

// EventTx is the write scope of a single event. All reads inside it observe
// the state the scope holds exclusively; nothing is visible to other readers
// until the scope commits.
type EventTx interface {
	// Event returns the event the scope was opened for.
	Event(ctx context.Context) (*models.Event, error)

	// RestaurantExists reports whether restaurantID is in the catalog.
	RestaurantExists(ctx context.Context, restaurantID string) (bool, error)

	// SetChosenRestaurant records the choice if the event is still
	// undecided. It reports whether a row changed.
	SetChosenRestaurant(ctx context.Context, restaurantID string, decidedAt int64) (bool, error)

	// AppendVisit records a visit. ID is populated when empty.
	AppendVisit(ctx context.Context, visit *models.Visit) error
}

// Transactor opens exclusive per-event write scopes.
type Transactor interface {
	// WithEventTx runs fn inside a transaction that holds the write lock for
	// eventID. The transaction commits if fn returns nil and rolls back
	// otherwise.
	WithEventTx(ctx context.Context, eventID string, fn func(tx EventTx) error) error
}

// Store is the full persistence surface of the service.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	UserStore
	GroupStore
	RestaurantStore
	RatingStore
	VisitStore
	EventStore
	Transactor

	// Close releases any resources held by the store.
	Close() error
}
