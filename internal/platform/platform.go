// Package platform abstracts the community platform's room, membership,
// and messaging API. The pod engine consumes it as an opaque capability;
// the gateway client in this package turns the platform's voice-state
// stream into typed membership events.
package platform

import "voicepods/backend/internal/models"

// AccessGrant assigns named rights to a target (user id or role id) on a
// room. An empty Allow list with Deny entries revokes.
type AccessGrant struct {
	TargetID string
	Allow    []string
	Deny     []string
}

// Member is one user currently connected to a room.
type Member struct {
	UserID string
	IsBot  bool
}

// UnresolvedError marks references (user/room/community) the platform can
// no longer find. Callers treat it as expected steady-state, not a failure.
type UnresolvedError struct {
	Kind string // "user", "room", "community"
	ID   string
}

func (e *UnresolvedError) Error() string {
	return "platform: unresolved " + e.Kind + " " + e.ID
}

// Platform is the capability surface the engine needs from the community
// platform. Implementations wrap the platform's REST API.
type Platform interface {
	// HasCapabilities reports whether the process holds room-create,
	// member-move, and grant-edit rights on the community.
	HasCapabilities(communityID string) bool

	// CreateRoom provisions a voice room under the configured category
	// with the initial grants applied, returning its handle.
	CreateRoom(communityID, name string, grants []AccessGrant) (string, error)
	DeleteRoom(roomID string) error
	RenameRoom(roomID, name string) error

	MoveMember(userID, roomID string) error
	// DisconnectMember drops a user from voice entirely.
	DisconnectMember(userID, communityID string) error

	EditAccessGrant(roomID string, grant AccessGrant) error

	// FetchMembership returns who is currently connected to the room.
	// Returns *UnresolvedError when the room no longer exists.
	FetchMembership(roomID string) ([]Member, error)

	// ResolveUser verifies a user id still resolves on the community.
	ResolveUser(communityID, userID string) error
	// ResolveCommunity verifies the community is still reachable.
	ResolveCommunity(communityID string) error

	// SendMessage posts into a room; SendDM messages a user directly.
	// Both are fire-and-forget from the engine's point of view.
	SendMessage(roomID, content string) error
	SendDM(userID, content string) error
}

// EventSink receives decoded membership events from the gateway.
type EventSink interface {
	Deliver(event models.MembershipEvent)
}
