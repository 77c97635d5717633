// Package store defines the boundary to the hosted, path-addressed,
// schema-less tree store that owns all durable state. Nodes are addressed by
// slash-separated paths and exchanged as raw JSON; push subscriptions deliver
// whole-node snapshots on every change to a path or its descendants.
package store

import (
	"context"
	"encoding/json"
)

// Store is the external key-value tree store collaborator.
//
// Reads of a missing node return a nil snapshot and no error, matching
// Realtime Database semantics. Writes replace the addressed node entirely;
// writing an empty map or nil deletes it.
type Store interface {
	// Get reads the node at path. A missing node yields (nil, nil).
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Set replaces the node at path with v.
	Set(ctx context.Context, path string, v interface{}) error

	// Update applies several path writes as one batched operation. A nil
	// value deletes the node at that path. Paths are rooted at the tree
	// root, not relative to each other.
	Update(ctx context.Context, values map[string]interface{}) error

	// Remove deletes the node at path and everything below it.
	Remove(ctx context.Context, path string) error

	// Push creates a child of path with a store-assigned opaque id and
	// returns that id.
	Push(ctx context.Context, path string, v interface{}) (string, error)

	// QueryByField returns the children of path whose given field equals
	// value, keyed by child id.
	QueryByField(ctx context.Context, path, field, value string) (map[string]json.RawMessage, error)

	// Subscribe starts delivering snapshots of the node at path. The
	// current state is delivered first, then one snapshot per change,
	// until the subscription is closed.
	Subscribe(path string) (Subscription, error)
}

// Subscription is a live feed of node snapshots. Snapshots are coalesced:
// a slow consumer sees the latest state, not every intermediate one.
type Subscription interface {
	// Snapshots returns the channel snapshots are delivered on. The
	// channel is closed when the subscription ends.
	Snapshots() <-chan json.RawMessage

	// Close cancels the subscription and closes the snapshot channel.
	Close()
}

// Tree paths used by convention.
const (
	MembersPath    = "members"
	TeamsPath      = "teams"
	AttendancePath = "attendance"
	UsersPath      = "users"
)

// MemberPath returns the path of a member node.
func MemberPath(id string) string {
	return MembersPath + "/" + id
}

// TeamPath returns the path of a team node.
func TeamPath(id string) string {
	return TeamsPath + "/" + id
}

// UserPath returns the path of a user profile node.
func UserPath(uid string) string {
	return UsersPath + "/" + uid
}

// DayPath returns the path of the presence map for one date.
func DayPath(dateKey string) string {
	return AttendancePath + "/" + dateKey
}

// DayEntryPath returns the path of a single member's flag for one date.
func DayEntryPath(dateKey, memberID string) string {
	return DayPath(dateKey) + "/" + memberID
}

// MemberTeamPath returns the path of a member's membership flag for one team.
func MemberTeamPath(memberID, teamID string) string {
	return MemberPath(memberID) + "/Teams/" + teamID
}
