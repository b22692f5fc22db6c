package recommend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/platepick/internal/choice"
	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/scoring"
	"github.com/mmynk/platepick/internal/storage/sqlite"
)

var testNow = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

type fixture struct {
	store *sqlite.SQLiteStore
	alice *models.User
	bob   *models.User
	group *models.Group
	event *models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "recommend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store}
	f.alice = models.NewUser("alice@example.com", "Alice", "hash")
	f.bob = models.NewUser("bob@example.com", "Bob", "hash")
	require.NoError(t, store.CreateUser(ctx, f.alice))
	require.NoError(t, store.CreateUser(ctx, f.bob))

	f.group = &models.Group{Name: "Dinner", CreatedBy: f.alice.ID, Members: []string{f.bob.ID}}
	require.NoError(t, store.CreateGroup(ctx, f.group))

	f.event = &models.Event{GroupID: f.group.ID, CreatedBy: f.alice.ID, Participants: []string{f.alice.ID, f.bob.ID}}
	require.NoError(t, store.CreateEvent(ctx, f.event))
	return f
}

func (f *fixture) restaurant(t *testing.T, name string, tier models.PriceTier) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{Name: name, PriceTier: tier}
	require.NoError(t, f.store.UpsertRestaurant(context.Background(), r))
	return r
}

func (f *fixture) rate(t *testing.T, user *models.User, r *models.Restaurant, overall, nutrition *int) {
	t.Helper()
	require.NoError(t, f.store.UpsertRating(context.Background(), &models.Rating{
		UserID: user.ID, RestaurantID: r.ID, Overall: overall, Nutrition: nutrition,
	}))
}

func newBuilder(store Store) *Builder {
	return NewBuilder(store, scoring.DefaultConfig(), DefaultConfig(), WithClock(func() time.Time { return testNow }))
}

func TestGetRecommendations_Ordering(t *testing.T) {
	f := newFixture(t)
	favorite := f.restaurant(t, "Favorite", models.PriceInexpensive)
	unrated := f.restaurant(t, "Unrated", models.PriceUnknown)
	disliked := f.restaurant(t, "Disliked", models.PriceVeryExpensive)

	f.rate(t, f.alice, favorite, intPtr(5), intPtr(5))
	f.rate(t, f.bob, favorite, intPtr(5), intPtr(5))
	f.rate(t, f.alice, disliked, intPtr(1), intPtr(1))

	recs, err := newBuilder(f.store).GetRecommendations(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, favorite.ID, recs[0].RestaurantID)
	assert.InDelta(t, 96.25, recs[0].FinalScore, 1e-9)
	assert.Equal(t, "Favorite", recs[0].Name)

	assert.Equal(t, unrated.ID, recs[1].RestaurantID)
	assert.InDelta(t, 75.0, recs[1].FinalScore, 1e-9)

	assert.Equal(t, disliked.ID, recs[2].RestaurantID)
	assert.InDelta(t, 2.5, recs[2].OverallAvg, 1e-9)
	assert.InDelta(t, 2.0, recs[2].NutritionAvg, 1e-9)
	assert.InDelta(t, 0.0, recs[2].CostScore, 1e-9)
	assert.InDelta(t, 48.75, recs[2].FinalScore, 1e-9)
}

func TestGetRecommendations_UnratedUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.restaurant(t, "New Place", models.PriceModerate)

	recs, err := newBuilder(f.store).GetRecommendations(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, 4.0, recs[0].OverallAvg)
	assert.Equal(t, 3.0, recs[0].NutritionAvg)
	assert.Equal(t, 100.0, recs[0].RecencyScore)
	assert.Equal(t, 50.0, recs[0].CostScore)
}

func TestGetRecommendations_TieBreaksByID(t *testing.T) {
	f := newFixture(t)
	a := f.restaurant(t, "A", models.PriceModerate)
	b := f.restaurant(t, "B", models.PriceModerate)

	recs, err := newBuilder(f.store).GetRecommendations(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first, second := a.ID, b.ID
	if second < first {
		first, second = second, first
	}
	assert.Equal(t, first, recs[0].RestaurantID)
	assert.Equal(t, second, recs[1].RestaurantID)
}

func TestGetRecommendations_RecentVisitDropsRank(t *testing.T) {
	f := newFixture(t)
	favorite := f.restaurant(t, "Favorite", models.PriceInexpensive)
	unrated := f.restaurant(t, "Unrated", models.PriceUnknown)
	disliked := f.restaurant(t, "Disliked", models.PriceVeryExpensive)
	f.rate(t, f.alice, favorite, intPtr(5), intPtr(5))
	f.rate(t, f.bob, favorite, intPtr(5), intPtr(5))
	f.rate(t, f.alice, disliked, intPtr(1), intPtr(1))

	c := choice.NewCoordinator(f.store, choice.DefaultConfig(), choice.WithClock(func() time.Time { return testNow }))
	_, err := c.Commit(context.Background(), f.event.ID, unrated.ID, f.alice.ID)
	require.NoError(t, err)

	recs, err := newBuilder(f.store).GetRecommendations(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, favorite.ID, recs[0].RestaurantID)
	assert.Equal(t, disliked.ID, recs[1].RestaurantID)
	assert.Equal(t, unrated.ID, recs[2].RestaurantID)
	assert.Equal(t, 0.0, recs[2].RecencyScore)
	assert.InDelta(t, 45.0, recs[2].FinalScore, 1e-9)
}

func TestGetRecommendations_NoCandidates(t *testing.T) {
	f := newFixture(t)

	recs, err := newBuilder(f.store).GetRecommendations(context.Background(), f.event.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGetRecommendations_EventNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := newBuilder(f.store).GetRecommendations(context.Background(), "missing")
	assert.True(t, errs.Is(err, errs.NotFound), "got %v", err)
}

// failingStore fails rating reads.
type failingStore struct {
	event       *models.Event
	restaurants []*models.Restaurant
}

func (s *failingStore) GetEvent(context.Context, string) (*models.Event, error) {
	return s.event, nil
}

func (s *failingStore) ListCandidateRestaurants(context.Context, string) ([]*models.Restaurant, error) {
	return s.restaurants, nil
}

func (s *failingStore) GetRatings(context.Context, []string, string) ([]*models.Rating, error) {
	return nil, errors.New("disk I/O error")
}

func (s *failingStore) LastVisit(context.Context, string, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func TestGetRecommendations_StoreFailureIsUpstream(t *testing.T) {
	store := &failingStore{
		event:       &models.Event{ID: "e1", GroupID: "g1", Participants: []string{"u1"}},
		restaurants: []*models.Restaurant{{ID: "r1"}, {ID: "r2"}},
	}

	_, err := newBuilder(store).GetRecommendations(context.Background(), "e1")
	assert.True(t, errs.Is(err, errs.Upstream), "got %v", err)
}
