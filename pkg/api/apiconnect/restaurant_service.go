package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/pkg/api"
)

// RestaurantServiceName is the fully-qualified name of the RestaurantService.
const RestaurantServiceName = "platepick.v1.RestaurantService"

const (
	RestaurantServiceSearchPlacesProcedure    = "/" + RestaurantServiceName + "/SearchPlaces"
	RestaurantServiceAddRestaurantProcedure   = "/" + RestaurantServiceName + "/AddRestaurant"
	RestaurantServiceListRestaurantsProcedure = "/" + RestaurantServiceName + "/ListRestaurants"
)

// RestaurantServiceHandler serves the shared restaurant catalog and places search.
type RestaurantServiceHandler interface {
	SearchPlaces(context.Context, *connect.Request[api.SearchPlacesRequest]) (*connect.Response[api.SearchPlacesResponse], error)
	AddRestaurant(context.Context, *connect.Request[api.AddRestaurantRequest]) (*connect.Response[api.AddRestaurantResponse], error)
	ListRestaurants(context.Context, *connect.Request[api.ListRestaurantsRequest]) (*connect.Response[api.ListRestaurantsResponse], error)
}

// NewRestaurantServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewRestaurantServiceHandler(svc RestaurantServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	m := serviceMux{}
	unary(m, RestaurantServiceSearchPlacesProcedure, svc.SearchPlaces, opts)
	unary(m, RestaurantServiceAddRestaurantProcedure, svc.AddRestaurant, opts)
	unary(m, RestaurantServiceListRestaurantsProcedure, svc.ListRestaurants, opts)
	return "/" + RestaurantServiceName + "/", m
}

// RestaurantServiceClient is a client for the RestaurantService.
type RestaurantServiceClient struct {
	searchPlaces    *connect.Client[api.SearchPlacesRequest, api.SearchPlacesResponse]
	addRestaurant   *connect.Client[api.AddRestaurantRequest, api.AddRestaurantResponse]
	listRestaurants *connect.Client[api.ListRestaurantsRequest, api.ListRestaurantsResponse]
}

// NewRestaurantServiceClient constructs a client for the RestaurantService. baseURL is the
// server root, for example http://localhost:8080.
func NewRestaurantServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RestaurantServiceClient {
	opts = clientOptions(opts)
	return &RestaurantServiceClient{
		searchPlaces:    newClient[api.SearchPlacesRequest, api.SearchPlacesResponse](httpClient, baseURL, RestaurantServiceSearchPlacesProcedure, opts),
		addRestaurant:   newClient[api.AddRestaurantRequest, api.AddRestaurantResponse](httpClient, baseURL, RestaurantServiceAddRestaurantProcedure, opts),
		listRestaurants: newClient[api.ListRestaurantsRequest, api.ListRestaurantsResponse](httpClient, baseURL, RestaurantServiceListRestaurantsProcedure, opts),
	}
}

// SearchPlaces calls platepick.v1.RestaurantService.SearchPlaces.
func (c *RestaurantServiceClient) SearchPlaces(ctx context.Context, req *connect.Request[api.SearchPlacesRequest]) (*connect.Response[api.SearchPlacesResponse], error) {
	return c.searchPlaces.CallUnary(ctx, req)
}

// AddRestaurant calls platepick.v1.RestaurantService.AddRestaurant.
func (c *RestaurantServiceClient) AddRestaurant(ctx context.Context, req *connect.Request[api.AddRestaurantRequest]) (*connect.Response[api.AddRestaurantResponse], error) {
	return c.addRestaurant.CallUnary(ctx, req)
}

// ListRestaurants calls platepick.v1.RestaurantService.ListRestaurants.
func (c *RestaurantServiceClient) ListRestaurants(ctx context.Context, req *connect.Request[api.ListRestaurantsRequest]) (*connect.Response[api.ListRestaurantsResponse], error) {
	return c.listRestaurants.CallUnary(ctx, req)
}
