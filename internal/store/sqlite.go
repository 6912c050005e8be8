package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/friendsync/friendsync/internal/schema"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// sqliteEngine is the native storage backend: embedded SQLite in WAL
// mode. Concurrent callers are serialized by the engine's own
// transaction queue, so unlike the document engine no store-level
// locking is needed.
type sqliteEngine struct {
	conn *sql.DB
	path string
}

// openSQLite opens (creating if needed) the database at path and
// initializes the schema. Any failure here is the signal for the store
// to fall back to the document engine.
func openSQLite(ctx context.Context, path string) (*sqliteEngine, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	eng := &sqliteEngine{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = eng.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := eng.initSchema(ctx); err != nil {
		_ = eng.Close()
		return nil, err
	}

	return eng, nil
}

// Close checkpoints the WAL and closes the connection.
func (e *sqliteEngine) Close() error {
	if e.conn == nil {
		return nil
	}
	if _, err := e.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := e.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	e.conn = nil
	return nil
}

// initSchema creates all six tables and their indexes. Idempotent.
//
// AUTOINCREMENT (not plain rowid aliasing) is deliberate: per-table ids
// must never be reused after deletion.
func (e *sqliteEngine) initSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS friends (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		friend_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL,
		end_time TEXT,
		date TEXT NOT NULL DEFAULT '',
		is_event INTEGER NOT NULL DEFAULT 1,
		recurring INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS rsvps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER NOT NULL,
		event_owner_id INTEGER NOT NULL,
		invite_recipient_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(event_id, invite_recipient_id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		notif_msg TEXT NOT NULL,
		notif_type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_prefs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		theme INTEGER NOT NULL DEFAULT 0,
		notification_enabled INTEGER NOT NULL DEFAULT 1,
		color_scheme INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_friends_user ON friends(user_id);
	CREATE INDEX IF NOT EXISTS idx_friends_friend ON friends(friend_id);
	CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, is_event);
	CREATE INDEX IF NOT EXISTS idx_rsvps_recipient ON rsvps(invite_recipient_id);
	CREATE INDEX IF NOT EXISTS idx_rsvps_event ON rsvps(event_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	`

	if _, err := e.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Counts returns per-table row counts. Table names are fixed constants,
// never caller input, so interpolation here is safe.
func (e *sqliteEngine) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(schema.Tables))
	for _, table := range schema.Tables {
		var n int64
		if err := e.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// ----- users -----

func (e *sqliteEngine) CreateUser(ctx context.Context, u *schema.User) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, fmt.Errorf("invalid user: %w", err)
	}
	res, err := e.conn.ExecContext(ctx,
		`INSERT INTO users (username, email) VALUES (?, ?)`, u.Username, u.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return id, nil
}

// UpsertUser writes a user row under its existing id. Used by the sync
// engine, where ids are assigned by the remote server and must be kept.
func (e *sqliteEngine) UpsertUser(ctx context.Context, u *schema.User) error {
	if u.ID <= 0 {
		return fmt.Errorf("upsert requires an id")
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	query := `
	INSERT INTO users (id, username, email) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		username = excluded.username,
		email = excluded.email
	`
	if _, err := e.conn.ExecContext(ctx, query, u.ID, u.Username, u.Email); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (e *sqliteEngine) GetUserByID(ctx context.Context, id int64) (*schema.User, error) {
	return e.getUser(ctx, `SELECT id, username, email FROM users WHERE id = ?`, id)
}

func (e *sqliteEngine) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	return e.getUser(ctx, `SELECT id, username, email FROM users WHERE username = ?`, username)
}

func (e *sqliteEngine) getUser(ctx context.Context, query string, arg any) (*schema.User, error) {
	var u schema.User
	err := e.conn.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (e *sqliteEngine) UpdateUser(ctx context.Context, id int64, upd schema.UserUpdate) error {
	var sets []string
	var args []any
	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := e.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes the user and, in the same transaction, every row
// that references it: friendships touching the id in either direction,
// owned events, rsvps as owner or recipient, notifications, and the
// preferences row.
func (e *sqliteEngine) DeleteUser(ctx context.Context, id int64) error {
	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM friends WHERE user_id = ? OR friend_id = ?`, []any{id, id}},
		{`DELETE FROM events WHERE user_id = ?`, []any{id}},
		{`DELETE FROM rsvps WHERE event_owner_id = ? OR invite_recipient_id = ?`, []any{id, id}},
		{`DELETE FROM notifications WHERE user_id = ?`, []any{id}},
		{`DELETE FROM user_prefs WHERE user_id = ?`, []any{id}},
		{`DELETE FROM users WHERE id = ?`, []any{id}},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
			return fmt.Errorf("failed to cascade delete user %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user delete: %w", err)
	}
	return nil
}

// ----- friends -----

func (e *sqliteEngine) CreateFriendship(ctx context.Context, f *schema.Friendship) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("invalid friendship: %w", err)
	}
	res, err := e.conn.ExecContext(ctx,
		`INSERT INTO friends (user_id, friend_id, status) VALUES (?, ?, ?)`,
		f.UserID, f.FriendID, string(f.Status))
	if err != nil {
		return 0, fmt.Errorf("failed to insert friendship: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read friendship id: %w", err)
	}
	f.ID = id
	return id, nil
}

func (e *sqliteEngine) GetFriendsForUser(ctx context.Context, userID int64) ([]int64, error) {
	query := `
	SELECT DISTINCT CASE WHEN user_id = ? THEN friend_id ELSE user_id END AS other
	FROM friends
	WHERE status = 'accepted' AND (user_id = ? OR friend_id = ?)
	ORDER BY other ASC
	`
	rows, err := e.conn.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var other int64
		if err := rows.Scan(&other); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, other)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return ids, nil
}

func (e *sqliteEngine) GetFriendshipsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error) {
	return e.queryFriendships(ctx,
		`SELECT id, user_id, friend_id, status FROM friends
		 WHERE user_id = ? OR friend_id = ? ORDER BY id ASC`, userID, userID)
}

func (e *sqliteEngine) FindFriendship(ctx context.Context, userID, friendID int64) (*schema.Friendship, error) {
	var f schema.Friendship
	err := e.conn.QueryRowContext(ctx,
		`SELECT id, user_id, friend_id, status FROM friends
		 WHERE user_id = ? AND friend_id = ?`, userID, friendID).
		Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query friendship: %w", err)
	}
	return &f, nil
}

func (e *sqliteEngine) GetPendingRequestsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error) {
	return e.queryFriendships(ctx,
		`SELECT id, user_id, friend_id, status FROM friends
		 WHERE friend_id = ? AND status = 'pending' ORDER BY id DESC`, userID)
}

func (e *sqliteEngine) queryFriendships(ctx context.Context, query string, args ...any) ([]schema.Friendship, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	var result []schema.Friendship
	for rows.Next() {
		var f schema.Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status); err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendships: %w", err)
	}
	return result, nil
}

func (e *sqliteEngine) UpdateFriendshipStatus(ctx context.Context, id int64, status schema.FriendStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid friendship status %q", status)
	}
	_, err := e.conn.ExecContext(ctx,
		`UPDATE friends SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update friendship %d: %w", id, err)
	}
	return nil
}

// DeleteFriendship removes the edge in whichever direction it was
// stored. Idempotent.
func (e *sqliteEngine) DeleteFriendship(ctx context.Context, userID, friendID int64) error {
	_, err := e.conn.ExecContext(ctx,
		`DELETE FROM friends
		 WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, friendID, friendID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete friendship %d<->%d: %w", userID, friendID, err)
	}
	return nil
}

// ----- events -----

func (e *sqliteEngine) CreateEvent(ctx context.Context, ev *schema.Event) (int64, error) {
	ev.SetDefaults()
	if err := ev.Validate(); err != nil {
		return 0, fmt.Errorf("invalid event: %w", err)
	}
	res, err := e.conn.ExecContext(ctx,
		`INSERT INTO events (user_id, title, description, start_time, end_time, date, is_event, recurring)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.UserID, ev.Title, ev.Description,
		ev.StartTime.Format(time.RFC3339), timeToNullString(ev.EndTime),
		ev.Date, boolToInt(ev.IsEvent), int(ev.Recurring))
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read event id: %w", err)
	}
	ev.ID = id
	return id, nil
}

const eventColumns = `id, user_id, title, description, start_time, end_time, date, is_event, recurring`

func (e *sqliteEngine) GetEventByID(ctx context.Context, id int64) (*schema.Event, error) {
	row := e.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEventRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return ev, nil
}

func (e *sqliteEngine) GetEventsForUser(ctx context.Context, userID int64) ([]schema.Event, error) {
	return e.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE user_id = ? AND is_event = 1 ORDER BY start_time ASC`, userID)
}

func (e *sqliteEngine) GetFreeTimeForUser(ctx context.Context, userID int64) ([]schema.Event, error) {
	return e.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE user_id = ? AND is_event = 0 ORDER BY start_time ASC`, userID)
}

func (e *sqliteEngine) queryEvents(ctx context.Context, query string, args ...any) ([]schema.Event, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var result []schema.Event
	for rows.Next() {
		ev, err := scanEventRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		result = append(result, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return result, nil
}

// scanEventRow scans one event row via the given Scan function, shared
// between QueryRow and Rows iteration.
func scanEventRow(scan func(...any) error) (*schema.Event, error) {
	var ev schema.Event
	var start string
	var end sql.NullString
	var isEvent, recurring int

	err := scan(&ev.ID, &ev.UserID, &ev.Title, &ev.Description,
		&start, &end, &ev.Date, &isEvent, &recurring)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, start); err == nil {
		ev.StartTime = t
	}
	if t := nullStringToTime(end); t != nil {
		ev.EndTime = *t
	}
	ev.IsEvent = isEvent != 0
	ev.Recurring = schema.Recurrence(recurring)
	return &ev, nil
}

func (e *sqliteEngine) UpdateEvent(ctx context.Context, id int64, upd schema.EventUpdate) error {
	var sets []string
	var args []any
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, upd.StartTime.Format(time.RFC3339))
	}
	if upd.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, timeToNullString(*upd.EndTime))
	}
	if upd.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *upd.Date)
	}
	if upd.Recurring != nil {
		if !upd.Recurring.Valid() {
			return fmt.Errorf("invalid recurrence %d", int(*upd.Recurring))
		}
		sets = append(sets, "recurring = ?")
		args = append(args, int(*upd.Recurring))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := "UPDATE events SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := e.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update event %d: %w", id, err)
	}
	return nil
}

func (e *sqliteEngine) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := e.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	return nil
}

func (e *sqliteEngine) DeleteEventsForUser(ctx context.Context, userID int64) error {
	if _, err := e.conn.ExecContext(ctx, `DELETE FROM events WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete events for user %d: %w", userID, err)
	}
	return nil
}

// ----- rsvps -----

// CreateRSVP upserts on (event_id, invite_recipient_id): inviting the
// same recipient to the same event twice updates the status instead of
// duplicating the row.
func (e *sqliteEngine) CreateRSVP(ctx context.Context, r *schema.RSVP) (int64, error) {
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("invalid rsvp: %w", err)
	}
	query := `
	INSERT INTO rsvps (event_id, event_owner_id, invite_recipient_id, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(event_id, invite_recipient_id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at
	`
	_, err := e.conn.ExecContext(ctx, query,
		r.EventID, r.EventOwnerID, r.RecipientID, string(r.Status),
		r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert rsvp: %w", err)
	}

	// LastInsertId is unreliable across the upsert's update arm, so read
	// the surviving row's id back.
	existing, err := e.FindRSVP(ctx, r.EventID, r.RecipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to read back rsvp: %w", err)
	}
	r.ID = existing.ID
	return existing.ID, nil
}

const rsvpColumns = `id, event_id, event_owner_id, invite_recipient_id, status, created_at, updated_at`

func (e *sqliteEngine) GetRSVPByID(ctx context.Context, id int64) (*schema.RSVP, error) {
	row := e.conn.QueryRowContext(ctx,
		`SELECT `+rsvpColumns+` FROM rsvps WHERE id = ?`, id)
	return scanRSVPRowOrNotFound(row.Scan)
}

func (e *sqliteEngine) FindRSVP(ctx context.Context, eventID, recipientID int64) (*schema.RSVP, error) {
	row := e.conn.QueryRowContext(ctx,
		`SELECT `+rsvpColumns+` FROM rsvps WHERE event_id = ? AND invite_recipient_id = ?`,
		eventID, recipientID)
	return scanRSVPRowOrNotFound(row.Scan)
}

func scanRSVPRowOrNotFound(scan func(...any) error) (*schema.RSVP, error) {
	r, err := scanRSVPRow(scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rsvp: %w", err)
	}
	return r, nil
}

func (e *sqliteEngine) GetRSVPsForEvent(ctx context.Context, eventID int64) ([]schema.RSVP, error) {
	return e.queryRSVPs(ctx,
		`SELECT `+rsvpColumns+` FROM rsvps WHERE event_id = ? ORDER BY created_at ASC`, eventID)
}

func (e *sqliteEngine) GetRSVPsForUser(ctx context.Context, recipientID int64) ([]schema.RSVP, error) {
	return e.queryRSVPs(ctx,
		`SELECT `+rsvpColumns+` FROM rsvps
		 WHERE invite_recipient_id = ? ORDER BY created_at DESC, id DESC`, recipientID)
}

func (e *sqliteEngine) queryRSVPs(ctx context.Context, query string, args ...any) ([]schema.RSVP, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rsvps: %w", err)
	}
	defer rows.Close()

	var result []schema.RSVP
	for rows.Next() {
		r, err := scanRSVPRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rsvp: %w", err)
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rsvps: %w", err)
	}
	return result, nil
}

func scanRSVPRow(scan func(...any) error) (*schema.RSVP, error) {
	var r schema.RSVP
	var created, updated string
	err := scan(&r.ID, &r.EventID, &r.EventOwnerID, &r.RecipientID,
		&r.Status, &created, &updated)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		r.UpdatedAt = t
	}
	return &r, nil
}

func (e *sqliteEngine) UpdateRSVPStatus(ctx context.Context, id int64, status schema.RSVPStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid rsvp status %q", status)
	}
	_, err := e.conn.ExecContext(ctx,
		`UPDATE rsvps SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update rsvp %d: %w", id, err)
	}
	return nil
}

func (e *sqliteEngine) DeleteRSVP(ctx context.Context, id int64) error {
	if _, err := e.conn.ExecContext(ctx, `DELETE FROM rsvps WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete rsvp %d: %w", id, err)
	}
	return nil
}

// ----- notifications -----

func (e *sqliteEngine) CreateNotification(ctx context.Context, n *schema.Notification) (int64, error) {
	n.SetDefaults()
	if err := n.Validate(); err != nil {
		return 0, fmt.Errorf("invalid notification: %w", err)
	}
	res, err := e.conn.ExecContext(ctx,
		`INSERT INTO notifications (user_id, notif_msg, notif_type, created_at)
		 VALUES (?, ?, ?, ?)`,
		n.UserID, n.Message, n.Type, n.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	n.ID = id
	return id, nil
}

func (e *sqliteEngine) GetNotificationsForUser(ctx context.Context, userID int64) ([]schema.Notification, error) {
	rows, err := e.conn.QueryContext(ctx,
		`SELECT id, user_id, notif_msg, notif_type, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var result []schema.Notification
	for rows.Next() {
		var n schema.Notification
		var created string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &created); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			n.CreatedAt = t
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return result, nil
}

func (e *sqliteEngine) ClearNotificationsForUser(ctx context.Context, userID int64) error {
	_, err := e.conn.ExecContext(ctx,
		`DELETE FROM notifications WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear notifications for user %d: %w", userID, err)
	}
	return nil
}

// ----- preferences -----

// SetUserPreferences upserts the single preferences row for userID,
// applying only the fields present in upd.
func (e *sqliteEngine) SetUserPreferences(ctx context.Context, userID int64, upd schema.PreferencesUpdate) (*schema.Preferences, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("userId is required")
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	prefs := schema.Preferences{UserID: userID, NotificationsEnabled: true, UpdatedAt: now}

	var updated string
	var enabled int
	err = tx.QueryRowContext(ctx,
		`SELECT id, theme, notification_enabled, color_scheme, updated_at
		 FROM user_prefs WHERE user_id = ?`, userID).
		Scan(&prefs.ID, &prefs.Theme, &enabled, &prefs.ColorScheme, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	case err != nil:
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	default:
		prefs.NotificationsEnabled = enabled != 0
	}

	if upd.Theme != nil {
		prefs.Theme = *upd.Theme
	}
	if upd.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *upd.NotificationsEnabled
	}
	if upd.ColorScheme != nil {
		prefs.ColorScheme = *upd.ColorScheme
	}
	prefs.UpdatedAt = now

	if prefs.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_prefs (user_id, theme, notification_enabled, color_scheme, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			userID, prefs.Theme, boolToInt(prefs.NotificationsEnabled),
			prefs.ColorScheme, now.Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("failed to insert preferences: %w", err)
		}
		if prefs.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read preferences id: %w", err)
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`UPDATE user_prefs SET theme = ?, notification_enabled = ?, color_scheme = ?, updated_at = ?
			 WHERE id = ?`,
			prefs.Theme, boolToInt(prefs.NotificationsEnabled),
			prefs.ColorScheme, now.Format(time.RFC3339), prefs.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update preferences: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit preferences: %w", err)
	}
	return &prefs, nil
}

func (e *sqliteEngine) GetUserPreferences(ctx context.Context, userID int64) (*schema.Preferences, error) {
	var prefs schema.Preferences
	var enabled int
	var updated string
	err := e.conn.QueryRowContext(ctx,
		`SELECT id, user_id, theme, notification_enabled, color_scheme, updated_at
		 FROM user_prefs WHERE user_id = ?`, userID).
		Scan(&prefs.ID, &prefs.UserID, &prefs.Theme, &enabled, &prefs.ColorScheme, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	prefs.NotificationsEnabled = enabled != 0
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		prefs.UpdatedAt = t
	}
	return &prefs, nil
}

// ----- helpers -----

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeToNullString converts a time to a nullable string for SQL; zero
// times become NULL.
func timeToNullString(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// nullStringToTime converts a nullable SQL string to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
