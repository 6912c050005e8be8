// Package schema defines the typed records of the FriendSync dataset.
//
// Every table the local store manages (users, friends, events, rsvps,
// notifications, user_prefs) has one record type here. Records are plain
// structs with JSON tags matching the persisted document layout and the
// remote API payloads, plus a Validate method checking field constraints
// at the store boundary.
//
// Identifiers are positive int64 values assigned per table by an
// auto-increment counter. A zero ID means "not yet persisted".
package schema

// Table names as used by both storage engines and the persisted
// document's meta.nextId counter map.
const (
	TableUsers         = "users"
	TableFriends       = "friends"
	TableEvents        = "events"
	TableRSVPs         = "rsvps"
	TableNotifications = "notifications"
	TableUserPrefs     = "user_prefs"
)

// Tables lists every table name in a stable order.
var Tables = []string{
	TableUsers,
	TableFriends,
	TableEvents,
	TableRSVPs,
	TableNotifications,
	TableUserPrefs,
}
