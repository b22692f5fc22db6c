package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/pkg/api"
)

// RatingServiceName is the fully-qualified name of the RatingService.
const RatingServiceName = "platepick.v1.RatingService"

const (
	RatingServiceRateRestaurantProcedure = "/" + RatingServiceName + "/RateRestaurant"
	RatingServiceListMyRatingsProcedure  = "/" + RatingServiceName + "/ListMyRatings"
)

// RatingServiceHandler serves per-user restaurant ratings.
type RatingServiceHandler interface {
	RateRestaurant(context.Context, *connect.Request[api.RateRestaurantRequest]) (*connect.Response[api.RateRestaurantResponse], error)
	ListMyRatings(context.Context, *connect.Request[api.ListMyRatingsRequest]) (*connect.Response[api.ListMyRatingsResponse], error)
}

// NewRatingServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewRatingServiceHandler(svc RatingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	m := serviceMux{}
	unary(m, RatingServiceRateRestaurantProcedure, svc.RateRestaurant, opts)
	unary(m, RatingServiceListMyRatingsProcedure, svc.ListMyRatings, opts)
	return "/" + RatingServiceName + "/", m
}

// RatingServiceClient is a client for the RatingService.
type RatingServiceClient struct {
	rateRestaurant *connect.Client[api.RateRestaurantRequest, api.RateRestaurantResponse]
	listMyRatings  *connect.Client[api.ListMyRatingsRequest, api.ListMyRatingsResponse]
}

// NewRatingServiceClient constructs a client for the RatingService. baseURL is the
// server root, for example http://localhost:8080.
func NewRatingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RatingServiceClient {
	opts = clientOptions(opts)
	return &RatingServiceClient{
		rateRestaurant: newClient[api.RateRestaurantRequest, api.RateRestaurantResponse](httpClient, baseURL, RatingServiceRateRestaurantProcedure, opts),
		listMyRatings:  newClient[api.ListMyRatingsRequest, api.ListMyRatingsResponse](httpClient, baseURL, RatingServiceListMyRatingsProcedure, opts),
	}
}

// RateRestaurant calls platepick.v1.RatingService.RateRestaurant.
func (c *RatingServiceClient) RateRestaurant(ctx context.Context, req *connect.Request[api.RateRestaurantRequest]) (*connect.Response[api.RateRestaurantResponse], error) {
	return c.rateRestaurant.CallUnary(ctx, req)
}

// ListMyRatings calls platepick.v1.RatingService.ListMyRatings.
func (c *RatingServiceClient) ListMyRatings(ctx context.Context, req *connect.Request[api.ListMyRatingsRequest]) (*connect.Response[api.ListMyRatingsResponse], error) {
	return c.listMyRatings.CallUnary(ctx, req)
}
