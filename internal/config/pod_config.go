package config

import "time"

const (
	// GracePeriod is the window after an owner departs during which they
	// may return and keep ownership before automatic transfer.
	GracePeriod = 5 * time.Minute

	// ReclaimPromptTTL bounds how long an unanswered reclaim prompt nonce
	// stays resolvable.
	ReclaimPromptTTL = 1 * time.Hour

	// TransferRetryDelay is how soon a fired transfer retries after a
	// transient platform failure.
	TransferRetryDelay = 30 * time.Second

	// PodNameTemplate names freshly created rooms; %s is the creator's id
	// or display name.
	PodNameTemplate = "%s's pod"
)

// Redis pub/sub channels for events emitted by the engine.
const (
	VoiceDurationChannel    = "voice:duration"
	OwnershipChangedChannel = "voice:ownership"
)

// Grant bit names understood by the platform access-grant API.
const (
	GrantView    = "view"
	GrantConnect = "connect"
	GrantManage  = "manage"
	GrantMove    = "move"
)

// OwnerGrants are the rights a pod owner holds on their room.
var OwnerGrants = []string{GrantConnect, GrantManage, GrantMove}

// MemberGrants are the rights given to auto-whitelisted users.
var MemberGrants = []string{GrantConnect}
