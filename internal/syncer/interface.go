package syncer

import "context"

// Syncer reconciles remote per-user state into the local data store.
//
// The syncer is designed to be resilient: a failing resource yields its
// empty default and the remaining resources still apply, and one bad
// record never aborts the rest of its batch. Errors are logged, not
// surfaced to the UI.
type Syncer interface {
	// SyncProfile fetches the user profile and upserts it locally.
	//
	// A 404 from the server means the profile is absent and is not an
	// error; nothing is written in that case.
	SyncProfile(ctx context.Context, userID int64) error

	// SyncEvents fetches the user's remote events and applies the event
	// strategy. Under ReplaceAll (the default) every local event owned
	// by the user is deleted first and the remote set inserted fresh.
	SyncEvents(ctx context.Context, userID int64) error

	// SyncFriends merges remote friendships additively: missing edges
	// (matched by friendId) are created, and a remote "accepted" status
	// promotes the corresponding local pending request. Local-only
	// friendships are never removed or demoted.
	SyncFriends(ctx context.Context, userID int64) error

	// SyncRSVPs merges remote RSVPs by (eventId, inviteRecipientId):
	// absent pairs are inserted, present ones have their status updated
	// to the remote value. Local-only RSVPs are never removed.
	SyncRSVPs(ctx context.Context, userID int64) error

	// SyncNotifications applies the notification strategy. Under
	// ReplaceAll the user's local feed is cleared and rebuilt from the
	// remote set.
	SyncNotifications(ctx context.Context, userID int64) error

	// SyncPreferences upserts the user's preferences row if the remote
	// returned one; an absent remote row leaves local state untouched.
	SyncPreferences(ctx context.Context, userID int64) error

	// FullSync performs one complete pass: all six resources are
	// fetched concurrently, then applied sequentially in a fixed order
	// (profile, events, friends, rsvps, notifications, preferences).
	//
	// A failed fetch degrades that resource to its empty default rather
	// than aborting the pass. FullSync returns an error only when the
	// local store itself is unusable.
	FullSync(ctx context.Context, userID int64) error
}
