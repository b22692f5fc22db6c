package models

// Group represents people who regularly eat together.
// Groups own events; restaurants are shared across all groups.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// CreatedBy is the user ID of the group's creator. The creator is
	// always a member.
	CreatedBy string

	// Members is the list of member user IDs.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Invite is a shareable token that lets a user join a group.
type Invite struct {
	// Token is the opaque value embedded in the invite link.
	Token string

	// GroupID is the group the token grants membership to.
	GroupID string

	// CreatedBy is the member who issued the invite.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the invite was issued.
	CreatedAt int64

	// ExpiresAt is the Unix timestamp after which the token is rejected.
	ExpiresAt int64
}

// Expired reports whether the invite is no longer redeemable at now (Unix seconds).
func (i *Invite) Expired(now int64) bool {
	return i.ExpiresAt > 0 && now >= i.ExpiresAt
}
