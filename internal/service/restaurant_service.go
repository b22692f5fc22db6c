package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/places"
	"github.com/mmynk/platepick/internal/storage"
	"github.com/mmynk/platepick/pkg/api"
	"github.com/mmynk/platepick/pkg/api/apiconnect"
)

// PlacesLookup resolves free text and place IDs against an external
// directory. *places.Client implements it.
type PlacesLookup interface {
	Autocomplete(ctx context.Context, input, sessionToken string) ([]places.Suggestion, error)
	Details(ctx context.Context, placeID, sessionToken string) (*places.Place, error)
}

var _ apiconnect.RestaurantServiceHandler = (*RestaurantService)(nil)

// RestaurantService manages the shared restaurant catalog.
type RestaurantService struct {
	store  storage.RestaurantStore
	places PlacesLookup
}

// NewRestaurantService creates a RestaurantService.
func NewRestaurantService(store storage.RestaurantStore, lookup PlacesLookup) *RestaurantService {
	return &RestaurantService{store: store, places: lookup}
}

// SearchPlaces returns autocomplete suggestions for the query.
func (s *RestaurantService) SearchPlaces(ctx context.Context, req *connect.Request[api.SearchPlacesRequest]) (*connect.Response[api.SearchPlacesResponse], error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	suggestions, err := s.places.Autocomplete(ctx, strings.TrimSpace(req.Msg.Query), req.Msg.SessionToken)
	if err != nil {
		slog.Warn("SearchPlaces failed", "query", req.Msg.Query, "error", err)
		return nil, toConnectError(errs.Wrap("search places", err))
	}

	out := make([]*api.PlaceSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, &api.PlaceSuggestion{PlaceID: sg.PlaceID, Text: sg.Text})
	}
	return connect.NewResponse(&api.SearchPlacesResponse{Suggestions: out}), nil
}

// AddRestaurant looks up a place and adds it to the catalog. Adding a place
// that is already in the catalog refreshes its details.
func (s *RestaurantService) AddRestaurant(ctx context.Context, req *connect.Request[api.AddRestaurantRequest]) (*connect.Response[api.AddRestaurantResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	slog.Info("AddRestaurant request received", "place_id", req.Msg.PlaceID, "user_id", userID)

	place, err := s.places.Details(ctx, req.Msg.PlaceID, req.Msg.SessionToken)
	if err != nil {
		slog.Warn("Place lookup failed", "place_id", req.Msg.PlaceID, "error", err)
		return nil, toConnectError(errs.Wrap("lookup place", err))
	}

	restaurant := &models.Restaurant{
		PlaceID:     place.ID,
		Name:        place.Name,
		Address:     place.Address,
		PriceTier:   models.ParsePriceLevel(place.PriceLevel),
		PrimaryType: place.PrimaryType,
		Types:       place.Types,
		CreatedBy:   userID,
	}
	if pr := place.PriceRange; pr != nil {
		restaurant.PriceCurrency = pr.Currency
		restaurant.PriceRangeStart = pr.Start
		restaurant.PriceRangeEnd = pr.End
	}
	if err := s.store.UpsertRestaurant(ctx, restaurant); err != nil {
		slog.Error("AddRestaurant failed", "place_id", place.ID, "error", err)
		return nil, toConnectError(errs.Wrap("save restaurant", err))
	}

	slog.Info("Restaurant added", "restaurant_id", restaurant.ID, "name", restaurant.Name)
	return connect.NewResponse(&api.AddRestaurantResponse{Restaurant: toAPIRestaurant(restaurant)}), nil
}

// ListRestaurants returns the whole catalog.
func (s *RestaurantService) ListRestaurants(ctx context.Context, req *connect.Request[api.ListRestaurantsRequest]) (*connect.Response[api.ListRestaurantsResponse], error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	restaurants, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, toConnectError(errs.Wrap("list restaurants", err))
	}

	out := make([]*api.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, toAPIRestaurant(r))
	}
	return connect.NewResponse(&api.ListRestaurantsResponse{Restaurants: out}), nil
}
