package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/storage"
	"github.com/mmynk/platepick/pkg/api"
	"github.com/mmynk/platepick/pkg/api/apiconnect"
)

// InviteTTL is how long an invite token stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store storage.Store
	now   func() time.Time
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store, now: time.Now}
}

// CreateGroup creates a new group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	req.Msg.Name = strings.TrimSpace(req.Msg.Name)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	group := &models.Group{
		Name:      req.Msg.Name,
		CreatedBy: userID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(errs.Wrap("create group", err))
	}

	slog.Info("Group created", "group_id", group.ID)

	out, err := s.withNames(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CreateGroupResponse{Group: out}), nil
}

// ListGroups returns the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, toConnectError(errs.Wrap("list groups", err))
	}

	out := make([]*api.Group, 0, len(groups))
	for _, g := range groups {
		ag, err := s.withNames(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, ag)
	}

	slog.Info("ListGroups successful", "user_id", userID, "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// GetGroup returns a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.memberGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	out, err := s.withNames(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: out}), nil
}

// CreateInvite issues an invite token for a group the caller belongs to.
func (s *GroupService) CreateInvite(ctx context.Context, req *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if _, err := s.memberGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	now := s.now()
	invite := &models.Invite{
		GroupID:   req.Msg.GroupID,
		CreatedBy: userID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(InviteTTL).Unix(),
	}
	if err := s.store.CreateInvite(ctx, invite); err != nil {
		slog.Error("CreateInvite failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(errs.Wrap("create invite", err))
	}

	slog.Info("Invite created", "group_id", invite.GroupID, "user_id", userID)
	return connect.NewResponse(&api.CreateInviteResponse{
		Invite: &api.Invite{Token: invite.Token, GroupID: invite.GroupID, ExpiresAt: invite.ExpiresAt},
	}), nil
}

// JoinGroup redeems an invite token. Joining a group twice is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	invite, err := s.store.GetInvite(ctx, req.Msg.Token)
	if err != nil {
		return nil, toConnectError(errs.Wrap("get invite", err))
	}
	if invite.Expired(s.now().Unix()) {
		return nil, toConnectError(errs.Errorf(errs.InvalidInput, "invite has expired"))
	}

	if err := s.store.AddGroupMember(ctx, invite.GroupID, userID); err != nil {
		slog.Error("JoinGroup failed", "group_id", invite.GroupID, "user_id", userID, "error", err)
		return nil, toConnectError(errs.Wrap("add group member", err))
	}

	group, err := s.store.GetGroup(ctx, invite.GroupID)
	if err != nil {
		return nil, toConnectError(errs.Wrap("get group", err))
	}

	slog.Info("User joined group", "group_id", group.ID, "user_id", userID)

	out, err := s.withNames(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.JoinGroupResponse{Group: out}), nil
}

// memberGroup loads a group and checks that userID belongs to it.
func (s *GroupService) memberGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	return loadMemberGroup(ctx, s.store, groupID, userID)
}

func (s *GroupService) withNames(ctx context.Context, g *models.Group) (*api.Group, error) {
	users, err := s.store.GetUsersByIDs(ctx, g.Members)
	if err != nil {
		return nil, toConnectError(errs.Wrap("get members", err))
	}
	return toAPIGroup(g, users), nil
}

// loadMemberGroup returns the group if userID is a member. Non-members get
// PermissionDenied.
func loadMemberGroup(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(errs.Wrap("get group", err))
	}
	if !group.HasMember(userID) {
		return nil, toConnectError(errs.Errorf(errs.Unauthorized, "not a member of group %s", groupID))
	}
	return group, nil
}
