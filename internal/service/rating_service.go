package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/scoring"
	"github.com/mmynk/platepick/internal/storage"
	"github.com/mmynk/platepick/internal/validation"
	"github.com/mmynk/platepick/pkg/api"
	"github.com/mmynk/platepick/pkg/api/apiconnect"
)

// RatingStore is the persistence RatingService needs.
type RatingStore interface {
	storage.RatingStore
	GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error)
}

var _ apiconnect.RatingServiceHandler = (*RatingService)(nil)

// RatingService stores each user's latest rating per restaurant.
type RatingService struct {
	store    RatingStore
	defaults scoring.Defaults
	now      func() time.Time
}

// NewRatingService creates a RatingService. defaults are the values scoring
// substitutes for missing ratings and are echoed back to callers.
func NewRatingService(store RatingStore, defaults scoring.Defaults) *RatingService {
	return &RatingService{store: store, defaults: defaults, now: time.Now}
}

// RateRestaurant creates or replaces the caller's rating of a restaurant.
// Either score may be left unset.
func (s *RatingService) RateRestaurant(ctx context.Context, req *connect.Request[api.RateRestaurantRequest]) (*connect.Response[api.RateRestaurantResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	rating := &models.Rating{
		UserID:       userID,
		RestaurantID: req.Msg.RestaurantID,
		Overall:      req.Msg.Overall,
		Nutrition:    req.Msg.Nutrition,
		UpdatedAt:    s.now().Unix(),
	}
	if err := validation.Struct(rating); err != nil {
		return nil, toConnectError(err)
	}

	if _, err := s.store.GetRestaurant(ctx, rating.RestaurantID); err != nil {
		return nil, toConnectError(errs.Wrap("get restaurant", err))
	}

	if err := s.store.UpsertRating(ctx, rating); err != nil {
		slog.Error("RateRestaurant failed", "user_id", userID, "restaurant_id", rating.RestaurantID, "error", err)
		return nil, toConnectError(errs.Wrap("save rating", err))
	}

	slog.Info("Rating saved", "user_id", userID, "restaurant_id", rating.RestaurantID)
	return connect.NewResponse(&api.RateRestaurantResponse{Rating: toAPIRating(rating, s.defaults)}), nil
}

// ListMyRatings returns every rating the caller has stored.
func (s *RatingService) ListMyRatings(ctx context.Context, req *connect.Request[api.ListMyRatingsRequest]) (*connect.Response[api.ListMyRatingsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	ratings, err := s.store.ListRatingsByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(errs.Wrap("list ratings", err))
	}

	out := make([]*api.Rating, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, toAPIRating(r, s.defaults))
	}
	return connect.NewResponse(&api.ListMyRatingsResponse{Ratings: out}), nil
}
