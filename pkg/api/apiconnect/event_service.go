package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/pkg/api"
)

// EventServiceName is the fully-qualified name of the EventService.
const EventServiceName = "platepick.v1.EventService"

const (
	EventServiceCreateEventProcedure        = "/" + EventServiceName + "/CreateEvent"
	EventServiceGetEventProcedure           = "/" + EventServiceName + "/GetEvent"
	EventServiceGetRecommendationsProcedure = "/" + EventServiceName + "/GetRecommendations"
	EventServiceCommitChoiceProcedure       = "/" + EventServiceName + "/CommitChoice"
	EventServiceListEventsProcedure         = "/" + EventServiceName + "/ListEvents"
	EventServiceListVisitsProcedure         = "/" + EventServiceName + "/ListVisits"
)

// EventServiceHandler serves meal events, recommendations and choice commits.
type EventServiceHandler interface {
	CreateEvent(context.Context, *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error)
	GetEvent(context.Context, *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error)
	GetRecommendations(context.Context, *connect.Request[api.GetRecommendationsRequest]) (*connect.Response[api.GetRecommendationsResponse], error)
	CommitChoice(context.Context, *connect.Request[api.CommitChoiceRequest]) (*connect.Response[api.CommitChoiceResponse], error)
	ListEvents(context.Context, *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error)
	ListVisits(context.Context, *connect.Request[api.ListVisitsRequest]) (*connect.Response[api.ListVisitsResponse], error)
}

// NewEventServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewEventServiceHandler(svc EventServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	m := serviceMux{}
	unary(m, EventServiceCreateEventProcedure, svc.CreateEvent, opts)
	unary(m, EventServiceGetEventProcedure, svc.GetEvent, opts)
	unary(m, EventServiceGetRecommendationsProcedure, svc.GetRecommendations, opts)
	unary(m, EventServiceCommitChoiceProcedure, svc.CommitChoice, opts)
	unary(m, EventServiceListEventsProcedure, svc.ListEvents, opts)
	unary(m, EventServiceListVisitsProcedure, svc.ListVisits, opts)
	return "/" + EventServiceName + "/", m
}

// EventServiceClient is a client for the EventService.
type EventServiceClient struct {
	createEvent        *connect.Client[api.CreateEventRequest, api.CreateEventResponse]
	getEvent           *connect.Client[api.GetEventRequest, api.GetEventResponse]
	getRecommendations *connect.Client[api.GetRecommendationsRequest, api.GetRecommendationsResponse]
	commitChoice       *connect.Client[api.CommitChoiceRequest, api.CommitChoiceResponse]
	listEvents         *connect.Client[api.ListEventsRequest, api.ListEventsResponse]
	listVisits         *connect.Client[api.ListVisitsRequest, api.ListVisitsResponse]
}

// NewEventServiceClient constructs a client for the EventService. baseURL is the
// server root, for example http://localhost:8080.
func NewEventServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EventServiceClient {
	opts = clientOptions(opts)
	return &EventServiceClient{
		createEvent:        newClient[api.CreateEventRequest, api.CreateEventResponse](httpClient, baseURL, EventServiceCreateEventProcedure, opts),
		getEvent:           newClient[api.GetEventRequest, api.GetEventResponse](httpClient, baseURL, EventServiceGetEventProcedure, opts),
		getRecommendations: newClient[api.GetRecommendationsRequest, api.GetRecommendationsResponse](httpClient, baseURL, EventServiceGetRecommendationsProcedure, opts),
		commitChoice:       newClient[api.CommitChoiceRequest, api.CommitChoiceResponse](httpClient, baseURL, EventServiceCommitChoiceProcedure, opts),
		listEvents:         newClient[api.ListEventsRequest, api.ListEventsResponse](httpClient, baseURL, EventServiceListEventsProcedure, opts),
		listVisits:         newClient[api.ListVisitsRequest, api.ListVisitsResponse](httpClient, baseURL, EventServiceListVisitsProcedure, opts),
	}
}

// CreateEvent calls platepick.v1.EventService.CreateEvent.
func (c *EventServiceClient) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error) {
	return c.createEvent.CallUnary(ctx, req)
}

// GetEvent calls platepick.v1.EventService.GetEvent.
func (c *EventServiceClient) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	return c.getEvent.CallUnary(ctx, req)
}

// GetRecommendations calls platepick.v1.EventService.GetRecommendations.
func (c *EventServiceClient) GetRecommendations(ctx context.Context, req *connect.Request[api.GetRecommendationsRequest]) (*connect.Response[api.GetRecommendationsResponse], error) {
	return c.getRecommendations.CallUnary(ctx, req)
}

// CommitChoice calls platepick.v1.EventService.CommitChoice.
func (c *EventServiceClient) CommitChoice(ctx context.Context, req *connect.Request[api.CommitChoiceRequest]) (*connect.Response[api.CommitChoiceResponse], error) {
	return c.commitChoice.CallUnary(ctx, req)
}

// ListEvents calls platepick.v1.EventService.ListEvents.
func (c *EventServiceClient) ListEvents(ctx context.Context, req *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error) {
	return c.listEvents.CallUnary(ctx, req)
}

// ListVisits calls platepick.v1.EventService.ListVisits.
func (c *EventServiceClient) ListVisits(ctx context.Context, req *connect.Request[api.ListVisitsRequest]) (*connect.Response[api.ListVisitsResponse], error) {
	return c.listVisits.CallUnary(ctx, req)
}
