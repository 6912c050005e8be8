package store

import (
	"context"
	"errors"

	"github.com/friendsync/friendsync/internal/schema"
)

// ErrNotFound is returned by point reads when no row matches. Updates
// and deletes of missing rows are silent no-ops and never return it.
var ErrNotFound = errors.New("store: not found")

// engine is the contract both storage backends implement. Store
// delegates every operation here after engine selection; semantics must
// be identical across implementations.
//
// Create methods assign and return the new per-table id. List methods
// honor the ordering contract the UI and sync engine depend on: time
// oriented queries ascend, feed queries (rsvps for a user,
// notifications, pending requests) return newest first.
type engine interface {
	Close() error

	// Counts returns the row count per table, keyed by schema table name.
	Counts(ctx context.Context) (map[string]int64, error)

	CreateUser(ctx context.Context, u *schema.User) (int64, error)
	UpsertUser(ctx context.Context, u *schema.User) error
	GetUserByID(ctx context.Context, id int64) (*schema.User, error)
	GetUserByUsername(ctx context.Context, username string) (*schema.User, error)
	UpdateUser(ctx context.Context, id int64, upd schema.UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error

	CreateFriendship(ctx context.Context, f *schema.Friendship) (int64, error)
	GetFriendsForUser(ctx context.Context, userID int64) ([]int64, error)
	GetFriendshipsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error)
	FindFriendship(ctx context.Context, userID, friendID int64) (*schema.Friendship, error)
	GetPendingRequestsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error)
	UpdateFriendshipStatus(ctx context.Context, id int64, status schema.FriendStatus) error
	DeleteFriendship(ctx context.Context, userID, friendID int64) error

	CreateEvent(ctx context.Context, e *schema.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*schema.Event, error)
	GetEventsForUser(ctx context.Context, userID int64) ([]schema.Event, error)
	GetFreeTimeForUser(ctx context.Context, userID int64) ([]schema.Event, error)
	UpdateEvent(ctx context.Context, id int64, upd schema.EventUpdate) error
	DeleteEvent(ctx context.Context, id int64) error
	DeleteEventsForUser(ctx context.Context, userID int64) error

	CreateRSVP(ctx context.Context, r *schema.RSVP) (int64, error)
	GetRSVPByID(ctx context.Context, id int64) (*schema.RSVP, error)
	FindRSVP(ctx context.Context, eventID, recipientID int64) (*schema.RSVP, error)
	GetRSVPsForEvent(ctx context.Context, eventID int64) ([]schema.RSVP, error)
	GetRSVPsForUser(ctx context.Context, recipientID int64) ([]schema.RSVP, error)
	UpdateRSVPStatus(ctx context.Context, id int64, status schema.RSVPStatus) error
	DeleteRSVP(ctx context.Context, id int64) error

	CreateNotification(ctx context.Context, n *schema.Notification) (int64, error)
	GetNotificationsForUser(ctx context.Context, userID int64) ([]schema.Notification, error)
	ClearNotificationsForUser(ctx context.Context, userID int64) error

	SetUserPreferences(ctx context.Context, userID int64, upd schema.PreferencesUpdate) (*schema.Preferences, error)
	GetUserPreferences(ctx context.Context, userID int64) (*schema.Preferences, error)
}
