package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/internal/choice"
	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/recommend"
	"github.com/mmynk/platepick/internal/storage"
	"github.com/mmynk/platepick/pkg/api"
	"github.com/mmynk/platepick/pkg/api/apiconnect"
)

// EventStore is the persistence EventService needs.
type EventStore interface {
	storage.GroupStore
	storage.EventStore
	ListVisits(ctx context.Context, groupID string) ([]*models.Visit, error)
}

var _ apiconnect.EventServiceHandler = (*EventService)(nil)

// EventService exposes events, their ranked recommendations and the final
// choice.
type EventService struct {
	store       EventStore
	builder     *recommend.Builder
	coordinator *choice.Coordinator
}

// NewEventService creates an EventService.
func NewEventService(store EventStore, builder *recommend.Builder, coordinator *choice.Coordinator) *EventService {
	return &EventService{store: store, builder: builder, coordinator: coordinator}
}

// CreateEvent opens a new meal decision for a group. The caller must be a
// member and every participant must belong to the group.
func (s *EventService) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	slog.Info("CreateEvent request received",
		"group_id", req.Msg.GroupID,
		"user_id", userID,
		"num_participants", len(req.Msg.ParticipantIDs),
	)

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Msg.ParticipantIDs))
	participants := make([]string, 0, len(req.Msg.ParticipantIDs))
	for _, id := range req.Msg.ParticipantIDs {
		if seen[id] {
			continue
		}
		if !group.HasMember(id) {
			return nil, toConnectError(errs.Errorf(errs.InvalidInput, "participant %s is not a member of the group", id))
		}
		seen[id] = true
		participants = append(participants, id)
	}

	event := &models.Event{
		GroupID:      group.ID,
		CreatedBy:    userID,
		Participants: participants,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		slog.Error("CreateEvent failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(errs.Wrap("create event", err))
	}

	slog.Info("Event created", "event_id", event.ID, "group_id", event.GroupID)
	return connect.NewResponse(&api.CreateEventResponse{Event: toAPIEvent(event)}), nil
}

// GetEvent returns an event of one of the caller's groups.
func (s *EventService) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	event, err := s.memberEvent(ctx, req.Msg.EventID, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetEventResponse{Event: toAPIEvent(event)}), nil
}

// GetRecommendations ranks the catalog for an event's participants.
func (s *EventService) GetRecommendations(ctx context.Context, req *connect.Request[api.GetRecommendationsRequest]) (*connect.Response[api.GetRecommendationsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if _, err := s.memberEvent(ctx, req.Msg.EventID, userID); err != nil {
		return nil, err
	}

	recs, err := s.builder.GetRecommendations(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, toAPIRecommendation(r))
	}
	return connect.NewResponse(&api.GetRecommendationsResponse{Recommendations: out}), nil
}

// CommitChoice records the event's chosen restaurant on behalf of the caller.
func (s *EventService) CommitChoice(ctx context.Context, req *connect.Request[api.CommitChoiceRequest]) (*connect.Response[api.CommitChoiceResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	out, err := s.coordinator.Commit(ctx, req.Msg.EventID, req.Msg.RestaurantID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CommitChoiceResponse{
		RestaurantID: out.RestaurantID,
		Changed:      out.Changed,
		DecidedAt:    out.DecidedAt,
	}), nil
}

// ListEvents returns a group's events, newest first.
func (s *EventService) ListEvents(ctx context.Context, req *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if _, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	events, err := s.store.ListEventsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListEvents failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(errs.Wrap("list events", err))
	}

	out := make([]*api.Event, 0, len(events))
	for _, e := range events {
		out = append(out, toAPIEvent(e))
	}
	return connect.NewResponse(&api.ListEventsResponse{Events: out}), nil
}

// ListVisits returns the group's visit history, newest first.
func (s *EventService) ListVisits(ctx context.Context, req *connect.Request[api.ListVisitsRequest]) (*connect.Response[api.ListVisitsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if _, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	visits, err := s.store.ListVisits(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListVisits failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(errs.Wrap("list visits", err))
	}

	out := make([]*api.Visit, 0, len(visits))
	for _, v := range visits {
		out = append(out, toAPIVisit(v))
	}
	return connect.NewResponse(&api.ListVisitsResponse{Visits: out}), nil
}

// memberEvent loads an event and checks that userID belongs to its group.
func (s *EventService) memberEvent(ctx context.Context, eventID, userID string) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, toConnectError(errs.Wrap("get event", err))
	}
	if _, err := loadMemberGroup(ctx, s.store, event.GroupID, userID); err != nil {
		return nil, err
	}
	return event, nil
}
