package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/platepick/internal/auth"
	"github.com/mmynk/platepick/internal/choice"
	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/middleware"
	"github.com/mmynk/platepick/internal/places"
	"github.com/mmynk/platepick/internal/recommend"
	"github.com/mmynk/platepick/internal/scoring"
	"github.com/mmynk/platepick/internal/storage/sqlite"
	"github.com/mmynk/platepick/pkg/api"
	"github.com/mmynk/platepick/pkg/api/apiconnect"
)

const testSecret = "test-secret-key-that-is-long-enough"

type fakePlaces struct {
	places map[string]*places.Place
}

func (f *fakePlaces) Autocomplete(_ context.Context, input, _ string) ([]places.Suggestion, error) {
	var out []places.Suggestion
	for id, p := range f.places {
		if input != "" {
			out = append(out, places.Suggestion{PlaceID: id, Text: p.Name})
		}
	}
	return out, nil
}

func (f *fakePlaces) Details(_ context.Context, placeID, _ string) (*places.Place, error) {
	p, ok := f.places[placeID]
	if !ok {
		return nil, errs.Errorf(errs.NotFound, "place not found: %s", placeID)
	}
	return p, nil
}

type harness struct {
	groups     *GroupService
	auth       *apiconnect.AuthServiceClient
	group      *apiconnect.GroupServiceClient
	restaurant *apiconnect.RestaurantServiceClient
	rating     *apiconnect.RatingServiceClient
	event      *apiconnect.EventServiceClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	lookup := &fakePlaces{places: map[string]*places.Place{
		"p-cheap": {
			ID: "p-cheap", Name: "Noodle Bar", Address: "1 Main St", PriceLevel: "PRICE_LEVEL_INEXPENSIVE",
			PriceRange: &places.PriceRange{Currency: "USD", Start: floatPtr(10), End: floatPtr(20)},
		},
		"p-fancy": {ID: "p-fancy", Name: "Chez Nous", Address: "2 Main St", PriceLevel: "PRICE_LEVEL_EXPENSIVE"},
	}}

	sc := scoring.DefaultConfig()
	builder := recommend.NewBuilder(store, sc, recommend.DefaultConfig())
	coordinator := choice.NewCoordinator(store, choice.DefaultConfig())

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager,
			apiconnect.AuthServiceRegisterProcedure,
			apiconnect.AuthServiceLoginProcedure,
		),
		middleware.LoggingInterceptor(slog.New(slog.DiscardHandler)),
	)

	h := &harness{groups: NewGroupService(store)}

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, nil), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(h.groups, interceptors))
	mux.Handle(apiconnect.NewRestaurantServiceHandler(NewRestaurantService(store, lookup), interceptors))
	mux.Handle(apiconnect.NewRatingServiceHandler(NewRatingService(store, sc.Defaults), interceptors))
	mux.Handle(apiconnect.NewEventServiceHandler(NewEventService(store, builder, coordinator), interceptors))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h.auth = apiconnect.NewAuthServiceClient(srv.Client(), srv.URL)
	h.group = apiconnect.NewGroupServiceClient(srv.Client(), srv.URL)
	h.restaurant = apiconnect.NewRestaurantServiceClient(srv.Client(), srv.URL)
	h.rating = apiconnect.NewRatingServiceClient(srv.Client(), srv.URL)
	h.event = apiconnect.NewEventServiceClient(srv.Client(), srv.URL)
	return h
}

// authed wraps msg in a request carrying token.
func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func (h *harness) register(t *testing.T, email, name string) (string, *api.User) {
	t.Helper()
	resp, err := h.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "password123",
	}))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Msg.Token)
	return resp.Msg.Token, resp.Msg.User
}

func requireCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestAuthService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	token, user := h.register(t, "Alice@Example.com", "Alice")
	assert.Equal(t, "alice@example.com", user.Email)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := h.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email: "alice@example.com", DisplayName: "Other", Password: "password123",
		}))
		requireCode(t, connect.CodeAlreadyExists, err)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := h.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email: "weak@example.com", DisplayName: "Weak", Password: "short",
		}))
		requireCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("login", func(t *testing.T) {
		resp, err := h.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email: "alice@example.com", Password: "password123",
		}))
		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.Msg.User.ID)
		assert.NotEmpty(t, resp.Msg.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email: "alice@example.com", Password: "wrong-password",
		}))
		requireCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("current user", func(t *testing.T) {
		resp, err := h.auth.GetCurrentUser(ctx, authed(token, &api.GetCurrentUserRequest{}))
		require.NoError(t, err)
		assert.Equal(t, "Alice", resp.Msg.User.DisplayName)
	})

	t.Run("update profile trims display name", func(t *testing.T) {
		resp, err := h.auth.UpdateProfile(ctx, authed(token, &api.UpdateProfileRequest{DisplayName: "  Alice B  "}))
		require.NoError(t, err)
		assert.Equal(t, "Alice B", resp.Msg.User.DisplayName)

		current, err := h.auth.GetCurrentUser(ctx, authed(token, &api.GetCurrentUserRequest{}))
		require.NoError(t, err)
		assert.Equal(t, "Alice B", current.Msg.User.DisplayName)
	})

	t.Run("update profile rejects blank name", func(t *testing.T) {
		_, err := h.auth.UpdateProfile(ctx, authed(token, &api.UpdateProfileRequest{DisplayName: "   "}))
		requireCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("update profile requires auth", func(t *testing.T) {
		_, err := h.auth.UpdateProfile(ctx, connect.NewRequest(&api.UpdateProfileRequest{DisplayName: "Mallory"}))
		requireCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := h.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		requireCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := h.auth.GetCurrentUser(ctx, authed("not-a-jwt", &api.GetCurrentUserRequest{}))
		requireCode(t, connect.CodeUnauthenticated, err)
	})
}

func TestGroupService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice, aliceUser := h.register(t, "alice@example.com", "Alice")
	bob, _ := h.register(t, "bob@example.com", "Bob")

	created, err := h.group.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{Name: "  Lunch crew "}))
	require.NoError(t, err)
	group := created.Msg.Group
	assert.Equal(t, "Lunch crew", group.Name)
	require.Len(t, group.Members, 1)
	assert.Equal(t, api.Member{UserID: aliceUser.ID, DisplayName: "Alice"}, group.Members[0])

	_, err = h.group.GetGroup(ctx, authed(bob, &api.GetGroupRequest{GroupID: group.ID}))
	requireCode(t, connect.CodePermissionDenied, err)

	invite, err := h.group.CreateInvite(ctx, authed(alice, &api.CreateInviteRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.NotEmpty(t, invite.Msg.Invite.Token)

	joined, err := h.group.JoinGroup(ctx, authed(bob, &api.JoinGroupRequest{Token: invite.Msg.Invite.Token}))
	require.NoError(t, err)
	assert.Len(t, joined.Msg.Group.Members, 2)

	// Joining twice is a no-op.
	_, err = h.group.JoinGroup(ctx, authed(bob, &api.JoinGroupRequest{Token: invite.Msg.Invite.Token}))
	require.NoError(t, err)

	listed, err := h.group.ListGroups(ctx, authed(bob, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, listed.Msg.Groups, 1)
	assert.Len(t, listed.Msg.Groups[0].Members, 2)

	got, err := h.group.GetGroup(ctx, authed(bob, &api.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	var names []string
	for _, m := range got.Msg.Group.Members {
		names = append(names, m.DisplayName)
	}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)

	t.Run("unknown group", func(t *testing.T) {
		_, err := h.group.GetGroup(ctx, authed(alice, &api.GetGroupRequest{GroupID: "missing"}))
		requireCode(t, connect.CodeNotFound, err)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := h.group.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{Name: "   "}))
		requireCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("expired invite", func(t *testing.T) {
		carol, _ := h.register(t, "carol@example.com", "Carol")
		h.groups.now = func() time.Time { return time.Now().Add(InviteTTL + time.Hour) }
		t.Cleanup(func() { h.groups.now = time.Now })

		_, err := h.group.JoinGroup(ctx, authed(carol, &api.JoinGroupRequest{Token: invite.Msg.Invite.Token}))
		requireCode(t, connect.CodeInvalidArgument, err)
	})
}

func TestRestaurantAndRatingService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, _ := h.register(t, "alice@example.com", "Alice")

	search, err := h.restaurant.SearchPlaces(ctx, authed(alice, &api.SearchPlacesRequest{Query: "noodle"}))
	require.NoError(t, err)
	assert.Len(t, search.Msg.Suggestions, 2)

	added, err := h.restaurant.AddRestaurant(ctx, authed(alice, &api.AddRestaurantRequest{PlaceID: "p-cheap"}))
	require.NoError(t, err)
	r := added.Msg.Restaurant
	assert.Equal(t, "Noodle Bar", r.Name)
	require.NotNil(t, r.PriceTier)
	assert.Equal(t, 1, *r.PriceTier)
	assert.Equal(t, "USD", r.PriceCurrency)
	require.NotNil(t, r.PriceRangeStart)
	require.NotNil(t, r.PriceRangeEnd)
	assert.Equal(t, 10.0, *r.PriceRangeStart)
	assert.Equal(t, 20.0, *r.PriceRangeEnd)

	// Adding the same place again keeps a single catalog entry.
	again, err := h.restaurant.AddRestaurant(ctx, authed(alice, &api.AddRestaurantRequest{PlaceID: "p-cheap"}))
	require.NoError(t, err)
	assert.Equal(t, r.ID, again.Msg.Restaurant.ID)

	_, err = h.restaurant.AddRestaurant(ctx, authed(alice, &api.AddRestaurantRequest{PlaceID: "p-missing"}))
	requireCode(t, connect.CodeNotFound, err)

	list, err := h.restaurant.ListRestaurants(ctx, authed(alice, &api.ListRestaurantsRequest{}))
	require.NoError(t, err)
	assert.Len(t, list.Msg.Restaurants, 1)

	five := 5
	rated, err := h.rating.RateRestaurant(ctx, authed(alice, &api.RateRestaurantRequest{
		RestaurantID: r.ID,
		Overall:      &five,
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, rated.Msg.Rating.EffectiveOverall)
	assert.Nil(t, rated.Msg.Rating.Nutrition)
	assert.Equal(t, 3, rated.Msg.Rating.EffectiveNutrition)

	tests := []struct {
		name string
		req  *api.RateRestaurantRequest
		code connect.Code
	}{
		{"overall out of range", &api.RateRestaurantRequest{RestaurantID: r.ID, Overall: intPtr(6)}, connect.CodeInvalidArgument},
		{"nutrition not allowed", &api.RateRestaurantRequest{RestaurantID: r.ID, Nutrition: intPtr(2)}, connect.CodeInvalidArgument},
		{"unknown restaurant", &api.RateRestaurantRequest{RestaurantID: "missing", Overall: intPtr(3)}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.rating.RateRestaurant(ctx, authed(alice, tt.req))
			requireCode(t, tt.code, err)
		})
	}

	mine, err := h.rating.ListMyRatings(ctx, authed(alice, &api.ListMyRatingsRequest{}))
	require.NoError(t, err)
	require.Len(t, mine.Msg.Ratings, 1)
	assert.Equal(t, r.ID, mine.Msg.Ratings[0].RestaurantID)
	require.NotNil(t, mine.Msg.Ratings[0].Overall)
	assert.Equal(t, 5, *mine.Msg.Ratings[0].Overall)
}

func TestEventService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice, aliceUser := h.register(t, "alice@example.com", "Alice")
	bob, bobUser := h.register(t, "bob@example.com", "Bob")
	carol, carolUser := h.register(t, "carol@example.com", "Carol")

	created, err := h.group.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{Name: "Lunch"}))
	require.NoError(t, err)
	groupID := created.Msg.Group.ID
	invite, err := h.group.CreateInvite(ctx, authed(alice, &api.CreateInviteRequest{GroupID: groupID}))
	require.NoError(t, err)
	_, err = h.group.JoinGroup(ctx, authed(bob, &api.JoinGroupRequest{Token: invite.Msg.Invite.Token}))
	require.NoError(t, err)

	cheap, err := h.restaurant.AddRestaurant(ctx, authed(alice, &api.AddRestaurantRequest{PlaceID: "p-cheap"}))
	require.NoError(t, err)
	fancy, err := h.restaurant.AddRestaurant(ctx, authed(alice, &api.AddRestaurantRequest{PlaceID: "p-fancy"}))
	require.NoError(t, err)
	cheapID, fancyID := cheap.Msg.Restaurant.ID, fancy.Msg.Restaurant.ID

	_, err = h.rating.RateRestaurant(ctx, authed(alice, &api.RateRestaurantRequest{
		RestaurantID: cheapID, Overall: intPtr(5), Nutrition: intPtr(5),
	}))
	require.NoError(t, err)

	t.Run("participant outside group", func(t *testing.T) {
		_, err := h.event.CreateEvent(ctx, authed(alice, &api.CreateEventRequest{
			GroupID: groupID, ParticipantIDs: []string{aliceUser.ID, carolUser.ID},
		}))
		requireCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("non-member creates event", func(t *testing.T) {
		_, err := h.event.CreateEvent(ctx, authed(carol, &api.CreateEventRequest{
			GroupID: groupID, ParticipantIDs: []string{carolUser.ID},
		}))
		requireCode(t, connect.CodePermissionDenied, err)
	})

	createdEvent, err := h.event.CreateEvent(ctx, authed(alice, &api.CreateEventRequest{
		GroupID:        groupID,
		ParticipantIDs: []string{aliceUser.ID, bobUser.ID, bobUser.ID},
	}))
	require.NoError(t, err)
	event := createdEvent.Msg.Event
	assert.Equal(t, []string{aliceUser.ID, bobUser.ID}, event.Participants)

	_, err = h.event.GetEvent(ctx, authed(carol, &api.GetEventRequest{EventID: event.ID}))
	requireCode(t, connect.CodePermissionDenied, err)

	recs, err := h.event.GetRecommendations(ctx, authed(bob, &api.GetRecommendationsRequest{EventID: event.ID}))
	require.NoError(t, err)
	require.Len(t, recs.Msg.Recommendations, 2)
	top := recs.Msg.Recommendations[0]
	assert.Equal(t, cheapID, top.RestaurantID)
	assert.InDelta(t, 4.5, top.OverallAvg, 1e-9)
	assert.InDelta(t, 4.0, top.NutritionAvg, 1e-9)
	assert.InDelta(t, 100.0, top.RecencyScore, 1e-9)

	_, err = h.event.CommitChoice(ctx, authed(bob, &api.CommitChoiceRequest{EventID: event.ID, RestaurantID: cheapID}))
	requireCode(t, connect.CodePermissionDenied, err)

	committed, err := h.event.CommitChoice(ctx, authed(alice, &api.CommitChoiceRequest{EventID: event.ID, RestaurantID: cheapID}))
	require.NoError(t, err)
	assert.True(t, committed.Msg.Changed)
	assert.Equal(t, cheapID, committed.Msg.RestaurantID)

	repeat, err := h.event.CommitChoice(ctx, authed(alice, &api.CommitChoiceRequest{EventID: event.ID, RestaurantID: cheapID}))
	require.NoError(t, err)
	assert.False(t, repeat.Msg.Changed)
	assert.Equal(t, committed.Msg.DecidedAt, repeat.Msg.DecidedAt)

	_, err = h.event.CommitChoice(ctx, authed(alice, &api.CommitChoiceRequest{EventID: event.ID, RestaurantID: fancyID}))
	requireCode(t, connect.CodeAlreadyExists, err)

	got, err := h.event.GetEvent(ctx, authed(bob, &api.GetEventRequest{EventID: event.ID}))
	require.NoError(t, err)
	assert.Equal(t, cheapID, got.Msg.Event.ChosenRestaurantID)

	// The visit just recorded pushes the cheap place below the fancy one.
	next, err := h.event.CreateEvent(ctx, authed(alice, &api.CreateEventRequest{
		GroupID: groupID, ParticipantIDs: []string{aliceUser.ID, bobUser.ID},
	}))
	require.NoError(t, err)
	recs, err = h.event.GetRecommendations(ctx, authed(alice, &api.GetRecommendationsRequest{EventID: next.Msg.Event.ID}))
	require.NoError(t, err)
	require.Len(t, recs.Msg.Recommendations, 2)
	assert.Equal(t, fancyID, recs.Msg.Recommendations[0].RestaurantID)
	assert.InDelta(t, 71.25, recs.Msg.Recommendations[0].FinalScore, 1e-6)
	assert.InDelta(t, 57.5, recs.Msg.Recommendations[1].FinalScore, 1e-3)

	t.Run("list events", func(t *testing.T) {
		resp, err := h.event.ListEvents(ctx, authed(bob, &api.ListEventsRequest{GroupID: groupID}))
		require.NoError(t, err)
		ids := make([]string, 0, len(resp.Msg.Events))
		for _, e := range resp.Msg.Events {
			ids = append(ids, e.ID)
		}
		assert.ElementsMatch(t, []string{event.ID, next.Msg.Event.ID}, ids)

		_, err = h.event.ListEvents(ctx, authed(carol, &api.ListEventsRequest{GroupID: groupID}))
		requireCode(t, connect.CodePermissionDenied, err)

		_, err = h.event.ListEvents(ctx, authed(alice, &api.ListEventsRequest{}))
		requireCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("list visits", func(t *testing.T) {
		resp, err := h.event.ListVisits(ctx, authed(alice, &api.ListVisitsRequest{GroupID: groupID}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Visits, 1)
		visit := resp.Msg.Visits[0]
		assert.Equal(t, event.ID, visit.EventID)
		assert.Equal(t, cheapID, visit.RestaurantID)
		assert.Equal(t, committed.Msg.DecidedAt, visit.VisitedAt)

		_, err = h.event.ListVisits(ctx, authed(carol, &api.ListVisitsRequest{GroupID: groupID}))
		requireCode(t, connect.CodePermissionDenied, err)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := h.event.CommitChoice(ctx, authed(alice, &api.CommitChoiceRequest{EventID: "missing", RestaurantID: cheapID}))
		requireCode(t, connect.CodeNotFound, err)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := h.event.CommitChoice(ctx, connect.NewRequest(&api.CommitChoiceRequest{EventID: event.ID, RestaurantID: cheapID}))
		requireCode(t, connect.CodeUnauthenticated, err)
	})
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want connect.Code
	}{
		{errs.NotFound, connect.CodeNotFound},
		{errs.InvalidInput, connect.CodeInvalidArgument},
		{errs.Unauthorized, connect.CodePermissionDenied},
		{errs.Conflict, connect.CodeAlreadyExists},
		{errs.Timeout, connect.CodeDeadlineExceeded},
		{errs.Upstream, connect.CodeUnavailable},
		{errs.Unknown, connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, codeFor(tt.kind))
		})
	}

	wrapped := toConnectError(errs.Errorf(errs.Conflict, "taken"))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(wrapped))
	assert.Nil(t, toConnectError(nil))

	canceled := toConnectError(errs.Wrap("commit choice", context.Canceled))
	assert.Equal(t, connect.CodeCanceled, connect.CodeOf(canceled))
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
