package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/friendsync/friendsync/internal/kv"
	"github.com/friendsync/friendsync/internal/schema"
)

// DocumentKey is the fixed key the whole dataset is persisted under.
const DocumentKey = "friendsync_db"

// document is the entire dataset as one persisted JSON value. The meta
// block carries the per-table auto-increment counters so ids survive a
// process restart and are never reused.
type document struct {
	Meta          docMeta               `json:"meta"`
	Users         []schema.User         `json:"users"`
	Friends       []schema.Friendship   `json:"friends"`
	RSVPs         []schema.RSVP         `json:"rsvps"`
	UserPrefs     []schema.Preferences  `json:"user_prefs"`
	Events        []schema.Event        `json:"events"`
	Notifications []schema.Notification `json:"notifications"`
}

type docMeta struct {
	NextID map[string]int64 `json:"nextId"`
}

// documentEngine stores everything as one JSON document in the kv
// layer. Every operation loads the document, works on it in memory, and
// writes it back in full. The mutex makes that read-modify-write cycle
// atomic: without it two concurrent operations could both load, both
// write, and silently drop one set of changes.
type documentEngine struct {
	kv     kv.Store
	key    string
	logger *log.Logger

	mu sync.Mutex
}

// newDocumentEngine returns an engine persisting through store under
// DocumentKey. If logger is nil a stderr default is used.
func newDocumentEngine(store kv.Store, logger *log.Logger) *documentEngine {
	if logger == nil {
		logger = log.New(log.Writer(), "[store] ", log.LstdFlags)
	}
	return &documentEngine{kv: store, key: DocumentKey, logger: logger}
}

func (e *documentEngine) Close() error { return nil }

// load reads and normalizes the persisted document. A missing key
// yields a fresh empty document which is persisted immediately; an
// unparseable value is logged and replaced the same way. Normalization
// repairs drift from older document layouts: missing arrays, a missing
// meta block, or missing per-table counters (backfilled from the
// largest existing id plus one). A repaired document is written back at
// once so later loads skip the work.
func (e *documentEngine) load(ctx context.Context) (*document, error) {
	raw, ok, err := e.kv.Get(ctx, e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc := &document{}
	if !ok {
		doc.normalize()
		if err := e.save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		e.logger.Printf("WARNING: persisted document unreadable, starting fresh: %v", err)
		doc = &document{}
		doc.normalize()
		if err := e.save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if doc.normalize() {
		if err := e.save(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (e *documentEngine) save(ctx context.Context, doc *document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := e.kv.Set(ctx, e.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	return nil
}

// normalize fills structural gaps in the document and reports whether
// anything changed.
func (d *document) normalize() bool {
	changed := false

	if d.Users == nil {
		d.Users = []schema.User{}
		changed = true
	}
	if d.Friends == nil {
		d.Friends = []schema.Friendship{}
		changed = true
	}
	if d.RSVPs == nil {
		d.RSVPs = []schema.RSVP{}
		changed = true
	}
	if d.UserPrefs == nil {
		d.UserPrefs = []schema.Preferences{}
		changed = true
	}
	if d.Events == nil {
		d.Events = []schema.Event{}
		changed = true
	}
	if d.Notifications == nil {
		d.Notifications = []schema.Notification{}
		changed = true
	}

	if d.Meta.NextID == nil {
		d.Meta.NextID = make(map[string]int64)
		changed = true
	}

	maxIDs := map[string]int64{
		schema.TableUsers:         maxID(d.Users, func(u schema.User) int64 { return u.ID }),
		schema.TableFriends:       maxID(d.Friends, func(f schema.Friendship) int64 { return f.ID }),
		schema.TableRSVPs:         maxID(d.RSVPs, func(r schema.RSVP) int64 { return r.ID }),
		schema.TableUserPrefs:     maxID(d.UserPrefs, func(p schema.Preferences) int64 { return p.ID }),
		schema.TableEvents:        maxID(d.Events, func(e schema.Event) int64 { return e.ID }),
		schema.TableNotifications: maxID(d.Notifications, func(n schema.Notification) int64 { return n.ID }),
	}
	for _, table := range schema.Tables {
		if _, ok := d.Meta.NextID[table]; !ok {
			d.Meta.NextID[table] = maxIDs[table] + 1
			changed = true
		}
	}

	return changed
}

func maxID[T any](rows []T, id func(T) int64) int64 {
	var max int64
	for _, row := range rows {
		if v := id(row); v > max {
			max = v
		}
	}
	return max
}

// nextID hands out the next id for table. The counter only ever grows.
func (d *document) nextID(table string) int64 {
	id := d.Meta.NextID[table]
	if id < 1 {
		id = 1
	}
	d.Meta.NextID[table] = id + 1
	return id
}

// mutate runs fn against the loaded document under the engine mutex and
// persists the result in full.
func (e *documentEngine) mutate(ctx context.Context, fn func(*document) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return e.save(ctx, doc)
}

// view runs fn against the loaded document under the engine mutex
// without writing back.
func (e *documentEngine) view(ctx context.Context, fn func(*document) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

func (e *documentEngine) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(schema.Tables))
	err := e.view(ctx, func(d *document) error {
		counts[schema.TableUsers] = int64(len(d.Users))
		counts[schema.TableFriends] = int64(len(d.Friends))
		counts[schema.TableEvents] = int64(len(d.Events))
		counts[schema.TableRSVPs] = int64(len(d.RSVPs))
		counts[schema.TableNotifications] = int64(len(d.Notifications))
		counts[schema.TableUserPrefs] = int64(len(d.UserPrefs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// ----- users -----

func (e *documentEngine) CreateUser(ctx context.Context, u *schema.User) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, fmt.Errorf("invalid user: %w", err)
	}
	err := e.mutate(ctx, func(d *document) error {
		u.ID = d.nextID(schema.TableUsers)
		d.Users = append(d.Users, *u)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// UpsertUser writes a user row under its existing id and keeps the
// table counter above it so later local creates never collide.
func (e *documentEngine) UpsertUser(ctx context.Context, u *schema.User) error {
	if u.ID <= 0 {
		return fmt.Errorf("upsert requires an id")
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	return e.mutate(ctx, func(d *document) error {
		if next := u.ID + 1; d.Meta.NextID[schema.TableUsers] < next {
			d.Meta.NextID[schema.TableUsers] = next
		}
		for i := range d.Users {
			if d.Users[i].ID == u.ID {
				d.Users[i] = *u
				return nil
			}
		}
		d.Users = append(d.Users, *u)
		return nil
	})
}

func (e *documentEngine) GetUserByID(ctx context.Context, id int64) (*schema.User, error) {
	var found *schema.User
	err := e.view(ctx, func(d *document) error {
		for i := range d.Users {
			if d.Users[i].ID == id {
				user := d.Users[i]
				found = &user
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (e *documentEngine) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	var found *schema.User
	err := e.view(ctx, func(d *document) error {
		for i := range d.Users {
			if d.Users[i].Username == username {
				user := d.Users[i]
				found = &user
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (e *documentEngine) UpdateUser(ctx context.Context, id int64, upd schema.UserUpdate) error {
	return e.mutate(ctx, func(d *document) error {
		for i := range d.Users {
			if d.Users[i].ID != id {
				continue
			}
			if upd.Username != nil {
				d.Users[i].Username = *upd.Username
			}
			if upd.Email != nil {
				d.Users[i].Email = *upd.Email
			}
			return nil
		}
		// Missing id is a silent no-op.
		return nil
	})
}

// DeleteUser removes the user row and bulk-filters every table for rows
// referencing the id.
func (e *documentEngine) DeleteUser(ctx context.Context, id int64) error {
	return e.mutate(ctx, func(d *document) error {
		d.Users = keep(d.Users, func(u schema.User) bool { return u.ID != id })
		d.Friends = keep(d.Friends, func(f schema.Friendship) bool { return !f.Involves(id) })
		d.Events = keep(d.Events, func(ev schema.Event) bool { return ev.UserID != id })
		d.RSVPs = keep(d.RSVPs, func(r schema.RSVP) bool {
			return r.EventOwnerID != id && r.RecipientID != id
		})
		d.Notifications = keep(d.Notifications, func(n schema.Notification) bool { return n.UserID != id })
		d.UserPrefs = keep(d.UserPrefs, func(p schema.Preferences) bool { return p.UserID != id })
		return nil
	})
}

// keep filters rows in place, preserving order.
func keep[T any](rows []T, pred func(T) bool) []T {
	out := rows[:0]
	for _, row := range rows {
		if pred(row) {
			out = append(out, row)
		}
	}
	return out
}

// ----- friends -----

func (e *documentEngine) CreateFriendship(ctx context.Context, f *schema.Friendship) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("invalid friendship: %w", err)
	}
	err := e.mutate(ctx, func(d *document) error {
		f.ID = d.nextID(schema.TableFriends)
		d.Friends = append(d.Friends, *f)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

func (e *documentEngine) GetFriendsForUser(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := e.view(ctx, func(d *document) error {
		seen := map[int64]bool{}
		for _, f := range d.Friends {
			if f.Status != schema.FriendAccepted || !f.Involves(userID) {
				continue
			}
			other := f.Other(userID)
			if !seen[other] {
				seen[other] = true
				ids = append(ids, other)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (e *documentEngine) GetFriendshipsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error) {
	var result []schema.Friendship
	err := e.view(ctx, func(d *document) error {
		for _, f := range d.Friends {
			if f.Involves(userID) {
				result = append(result, f)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (e *documentEngine) FindFriendship(ctx context.Context, userID, friendID int64) (*schema.Friendship, error) {
	var found *schema.Friendship
	err := e.view(ctx, func(d *document) error {
		for i := range d.Friends {
			if d.Friends[i].UserID == userID && d.Friends[i].FriendID == friendID {
				f := d.Friends[i]
				found = &f
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (e *documentEngine) GetPendingRequestsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error) {
	var result []schema.Friendship
	err := e.view(ctx, func(d *document) error {
		for _, f := range d.Friends {
			if f.FriendID == userID && f.Status == schema.FriendPending {
				result = append(result, f)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (e *documentEngine) UpdateFriendshipStatus(ctx context.Context, id int64, status schema.FriendStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid friendship status %q", status)
	}
	return e.mutate(ctx, func(d *document) error {
		for i := range d.Friends {
			if d.Friends[i].ID == id {
				d.Friends[i].Status = status
				return nil
			}
		}
		return nil
	})
}

func (e *documentEngine) DeleteFriendship(ctx context.Context, userID, friendID int64) error {
	return e.mutate(ctx, func(d *document) error {
		d.Friends = keep(d.Friends, func(f schema.Friendship) bool {
			direct := f.UserID == userID && f.FriendID == friendID
			reverse := f.UserID == friendID && f.FriendID == userID
			return !direct && !reverse
		})
		return nil
	})
}

// ----- events -----

func (e *documentEngine) CreateEvent(ctx context.Context, ev *schema.Event) (int64, error) {
	ev.SetDefaults()
	if err := ev.Validate(); err != nil {
		return 0, fmt.Errorf("invalid event: %w", err)
	}
	err := e.mutate(ctx, func(d *document) error {
		ev.ID = d.nextID(schema.TableEvents)
		d.Events = append(d.Events, *ev)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return ev.ID, nil
}

func (e *documentEngine) GetEventByID(ctx context.Context, id int64) (*schema.Event, error) {
	var found *schema.Event
	err := e.view(ctx, func(d *document) error {
		for i := range d.Events {
			if d.Events[i].ID == id {
				ev := d.Events[i]
				found = &ev
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (e *documentEngine) GetEventsForUser(ctx context.Context, userID int64) ([]schema.Event, error) {
	return e.eventsForUser(ctx, userID, true)
}

func (e *documentEngine) GetFreeTimeForUser(ctx context.Context, userID int64) ([]schema.Event, error) {
	return e.eventsForUser(ctx, userID, false)
}

func (e *documentEngine) eventsForUser(ctx context.Context, userID int64, isEvent bool) ([]schema.Event, error) {
	var result []schema.Event
	err := e.view(ctx, func(d *document) error {
		for _, ev := range d.Events {
			if ev.UserID == userID && ev.IsEvent == isEvent {
				result = append(result, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

func (e *documentEngine) UpdateEvent(ctx context.Context, id int64, upd schema.EventUpdate) error {
	if upd.Recurring != nil && !upd.Recurring.Valid() {
		return fmt.Errorf("invalid recurrence %d", int(*upd.Recurring))
	}
	return e.mutate(ctx, func(d *document) error {
		for i := range d.Events {
			if d.Events[i].ID != id {
				continue
			}
			ev := &d.Events[i]
			if upd.Title != nil {
				ev.Title = *upd.Title
			}
			if upd.Description != nil {
				ev.Description = *upd.Description
			}
			if upd.StartTime != nil {
				ev.StartTime = *upd.StartTime
			}
			if upd.EndTime != nil {
				ev.EndTime = *upd.EndTime
			}
			if upd.Date != nil {
				ev.Date = *upd.Date
			}
			if upd.Recurring != nil {
				ev.Recurring = *upd.Recurring
			}
			return nil
		}
		return nil
	})
}

func (e *documentEngine) DeleteEvent(ctx context.Context, id int64) error {
	return e.mutate(ctx, func(d *document) error {
		d.Events = keep(d.Events, func(ev schema.Event) bool { return ev.ID != id })
		return nil
	})
}

func (e *documentEngine) DeleteEventsForUser(ctx context.Context, userID int64) error {
	return e.mutate(ctx, func(d *document) error {
		d.Events = keep(d.Events, func(ev schema.Event) bool { return ev.UserID != userID })
		return nil
	})
}

// ----- rsvps -----

// CreateRSVP upserts on (EventID, RecipientID), mirroring the unique
// constraint the sqlite engine declares.
func (e *documentEngine) CreateRSVP(ctx context.Context, r *schema.RSVP) (int64, error) {
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("invalid rsvp: %w", err)
	}
	err := e.mutate(ctx, func(d *document) error {
		for i := range d.RSVPs {
			if d.RSVPs[i].EventID == r.EventID && d.RSVPs[i].RecipientID == r.RecipientID {
				d.RSVPs[i].Status = r.Status
				d.RSVPs[i].UpdatedAt = r.UpdatedAt
				r.ID = d.RSVPs[i].ID
				r.CreatedAt = d.RSVPs[i].CreatedAt
				return nil
			}
		}
		r.ID = d.nextID(schema.TableRSVPs)
		d.RSVPs = append(d.RSVPs, *r)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (e *documentEngine) GetRSVPByID(ctx context.Context, id int64) (*schema.RSVP, error) {
	var found *schema.RSVP
	err := e.view(ctx, func(d *document) error {
		for i := range d.RSVPs {
			if d.RSVPs[i].ID == id {
				r := d.RSVPs[i]
				found = &r
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (e *documentEngine) FindRSVP(ctx context.Context, eventID, recipientID int64) (*schema.RSVP, error) {
	var found *schema.RSVP
	err := e.view(ctx, func(d *document) error {
		for i := range d.RSVPs {
			if d.RSVPs[i].EventID == eventID && d.RSVPs[i].RecipientID == recipientID {
				r := d.RSVPs[i]
				found = &r
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (e *documentEngine) GetRSVPsForEvent(ctx context.Context, eventID int64) ([]schema.RSVP, error) {
	var result []schema.RSVP
	err := e.view(ctx, func(d *document) error {
		for _, r := range d.RSVPs {
			if r.EventID == eventID {
				result = append(result, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (e *documentEngine) GetRSVPsForUser(ctx context.Context, recipientID int64) ([]schema.RSVP, error) {
	var result []schema.RSVP
	err := e.view(ctx, func(d *document) error {
		for _, r := range d.RSVPs {
			if r.RecipientID == recipientID {
				result = append(result, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (e *documentEngine) UpdateRSVPStatus(ctx context.Context, id int64, status schema.RSVPStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid rsvp status %q", status)
	}
	return e.mutate(ctx, func(d *document) error {
		for i := range d.RSVPs {
			if d.RSVPs[i].ID == id {
				d.RSVPs[i].Status = status
				d.RSVPs[i].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
		return nil
	})
}

func (e *documentEngine) DeleteRSVP(ctx context.Context, id int64) error {
	return e.mutate(ctx, func(d *document) error {
		d.RSVPs = keep(d.RSVPs, func(r schema.RSVP) bool { return r.ID != id })
		return nil
	})
}

// ----- notifications -----

func (e *documentEngine) CreateNotification(ctx context.Context, n *schema.Notification) (int64, error) {
	n.SetDefaults()
	if err := n.Validate(); err != nil {
		return 0, fmt.Errorf("invalid notification: %w", err)
	}
	err := e.mutate(ctx, func(d *document) error {
		n.ID = d.nextID(schema.TableNotifications)
		d.Notifications = append(d.Notifications, *n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}

func (e *documentEngine) GetNotificationsForUser(ctx context.Context, userID int64) ([]schema.Notification, error) {
	var result []schema.Notification
	err := e.view(ctx, func(d *document) error {
		for _, n := range d.Notifications {
			if n.UserID == userID {
				result = append(result, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (e *documentEngine) ClearNotificationsForUser(ctx context.Context, userID int64) error {
	return e.mutate(ctx, func(d *document) error {
		d.Notifications = keep(d.Notifications, func(n schema.Notification) bool {
			return n.UserID != userID
		})
		return nil
	})
}

// ----- preferences -----

func (e *documentEngine) SetUserPreferences(ctx context.Context, userID int64, upd schema.PreferencesUpdate) (*schema.Preferences, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("userId is required")
	}
	var result schema.Preferences
	err := e.mutate(ctx, func(d *document) error {
		now := time.Now().UTC()
		for i := range d.UserPrefs {
			if d.UserPrefs[i].UserID != userID {
				continue
			}
			p := &d.UserPrefs[i]
			if upd.Theme != nil {
				p.Theme = *upd.Theme
			}
			if upd.NotificationsEnabled != nil {
				p.NotificationsEnabled = *upd.NotificationsEnabled
			}
			if upd.ColorScheme != nil {
				p.ColorScheme = *upd.ColorScheme
			}
			p.UpdatedAt = now
			result = *p
			return nil
		}

		p := schema.Preferences{
			ID:                   d.nextID(schema.TableUserPrefs),
			UserID:               userID,
			NotificationsEnabled: true,
			UpdatedAt:            now,
		}
		if upd.Theme != nil {
			p.Theme = *upd.Theme
		}
		if upd.NotificationsEnabled != nil {
			p.NotificationsEnabled = *upd.NotificationsEnabled
		}
		if upd.ColorScheme != nil {
			p.ColorScheme = *upd.ColorScheme
		}
		d.UserPrefs = append(d.UserPrefs, p)
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (e *documentEngine) GetUserPreferences(ctx context.Context, userID int64) (*schema.Preferences, error) {
	var found *schema.Preferences
	err := e.view(ctx, func(d *document) error {
		for i := range d.UserPrefs {
			if d.UserPrefs[i].UserID == userID {
				p := d.UserPrefs[i]
				found = &p
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
