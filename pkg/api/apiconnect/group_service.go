package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "platepick.v1.GroupService"

const (
	GroupServiceCreateGroupProcedure  = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceListGroupsProcedure   = "/" + GroupServiceName + "/ListGroups"
	GroupServiceGetGroupProcedure     = "/" + GroupServiceName + "/GetGroup"
	GroupServiceCreateInviteProcedure = "/" + GroupServiceName + "/CreateInvite"
	GroupServiceJoinGroupProcedure    = "/" + GroupServiceName + "/JoinGroup"
)

// GroupServiceHandler serves groups, memberships and invites.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	CreateInvite(context.Context, *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	m := serviceMux{}
	unary(m, GroupServiceCreateGroupProcedure, svc.CreateGroup, opts)
	unary(m, GroupServiceListGroupsProcedure, svc.ListGroups, opts)
	unary(m, GroupServiceGetGroupProcedure, svc.GetGroup, opts)
	unary(m, GroupServiceCreateInviteProcedure, svc.CreateInvite, opts)
	unary(m, GroupServiceJoinGroupProcedure, svc.JoinGroup, opts)
	return "/" + GroupServiceName + "/", m
}

// GroupServiceClient is a client for the GroupService.
type GroupServiceClient struct {
	createGroup  *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	listGroups   *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	getGroup     *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	createInvite *connect.Client[api.CreateInviteRequest, api.CreateInviteResponse]
	joinGroup    *connect.Client[api.JoinGroupRequest, api.JoinGroupResponse]
}

// NewGroupServiceClient constructs a client for the GroupService. baseURL is the
// server root, for example http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:  newClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL, GroupServiceCreateGroupProcedure, opts),
		listGroups:   newClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL, GroupServiceListGroupsProcedure, opts),
		getGroup:     newClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL, GroupServiceGetGroupProcedure, opts),
		createInvite: newClient[api.CreateInviteRequest, api.CreateInviteResponse](httpClient, baseURL, GroupServiceCreateInviteProcedure, opts),
		joinGroup:    newClient[api.JoinGroupRequest, api.JoinGroupResponse](httpClient, baseURL, GroupServiceJoinGroupProcedure, opts),
	}
}

// CreateGroup calls platepick.v1.GroupService.CreateGroup.
func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

// ListGroups calls platepick.v1.GroupService.ListGroups.
func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

// GetGroup calls platepick.v1.GroupService.GetGroup.
func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

// CreateInvite calls platepick.v1.GroupService.CreateInvite.
func (c *GroupServiceClient) CreateInvite(ctx context.Context, req *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error) {
	return c.createInvite.CallUnary(ctx, req)
}

// JoinGroup calls platepick.v1.GroupService.JoinGroup.
func (c *GroupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}
