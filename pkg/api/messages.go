package api

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type CreateInviteRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type CreateInviteResponse struct {
	Invite *Invite `json:"invite"`
}

type JoinGroupRequest struct {
	Token string `json:"token" validate:"required"`
}

type JoinGroupResponse struct {
	Group *Group `json:"group"`
}

type SearchPlacesRequest struct {
	Query        string `json:"query"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type SearchPlacesResponse struct {
	Suggestions []*PlaceSuggestion `json:"suggestions"`
}

type AddRestaurantRequest struct {
	PlaceID      string `json:"placeId" validate:"required"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type AddRestaurantResponse struct {
	Restaurant *Restaurant `json:"restaurant"`
}

type ListRestaurantsRequest struct{}

type ListRestaurantsResponse struct {
	Restaurants []*Restaurant `json:"restaurants"`
}

type RateRestaurantRequest struct {
	RestaurantID string `json:"restaurantId" validate:"required"`
	Overall      *int   `json:"overall,omitempty" validate:"omitempty,min=1,max=5"`
	Nutrition    *int   `json:"nutrition,omitempty" validate:"omitempty,oneof=1 3 5"`
}

type RateRestaurantResponse struct {
	Rating *Rating `json:"rating"`
}

type ListMyRatingsRequest struct{}

type ListMyRatingsResponse struct {
	Ratings []*Rating `json:"ratings"`
}

type CreateEventRequest struct {
	GroupID        string   `json:"groupId" validate:"required"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,dive,required"`
}

type CreateEventResponse struct {
	Event *Event `json:"event"`
}

type GetEventRequest struct {
	EventID string `json:"eventId" validate:"required"`
}

type GetEventResponse struct {
	Event *Event `json:"event"`
}

type GetRecommendationsRequest struct {
	EventID string `json:"eventId" validate:"required"`
}

type GetRecommendationsResponse struct {
	Recommendations []*Recommendation `json:"recommendations"`
}

type CommitChoiceRequest struct {
	EventID      string `json:"eventId" validate:"required"`
	RestaurantID string `json:"restaurantId" validate:"required"`
}

type CommitChoiceResponse struct {
	RestaurantID string `json:"restaurantId"`
	Changed      bool   `json:"changed"`
	DecidedAt    int64  `json:"decidedAt"`
}

type ListEventsRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type ListEventsResponse struct {
	Events []*Event `json:"events"`
}

type ListVisitsRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type ListVisitsResponse struct {
	Visits []*Visit `json:"visits"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=100"`
}

type UpdateProfileResponse struct {
	User *User `json:"user"`
}
