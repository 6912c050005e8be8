package store

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/friendsync/friendsync/internal/kv"
	"github.com/friendsync/friendsync/internal/schema"
)

// Mode identifies which storage engine is active.
type Mode string

const (
	// ModeUnset means engine selection has not run yet.
	ModeUnset Mode = ""
	// ModeSQLite is the native embedded SQL engine.
	ModeSQLite Mode = "sqlite"
	// ModeDocument is the single-document fallback engine.
	ModeDocument Mode = "document"
)

// Config holds store construction settings.
type Config struct {
	// DataDir is where both engines keep their files: the sqlite
	// database and the kv directory of the document engine.
	DataDir string

	// ForceFallback skips the sqlite probe entirely, the equivalent of
	// running on a platform with no native engine.
	ForceFallback bool
}

// Status reports the engine selection outcome.
type Status struct {
	Mode        Mode
	Initialized bool
}

// DBFileName is the sqlite database file created under DataDir.
const DBFileName = "friendsync.db"

// Store is the local data store. Construct with New, then use directly:
// every operation runs the idempotent initialization check itself, so
// an explicit Init call is optional.
type Store struct {
	cfg    Config
	logger *log.Logger

	mu     sync.Mutex
	engine engine
	mode   Mode
}

// New creates a store. No I/O happens until the first operation (or
// Init). If logger is nil a default stderr logger is used.
func New(cfg Config, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Store{cfg: cfg, logger: logger}
}

// Init runs engine selection. It is idempotent and safe to call
// concurrently from any number of call sites; only the first caller
// does work. Engine failures never surface here: the store degrades to
// the document engine and Init still succeeds.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.ensureInit(ctx)
	return err
}

// ensureInit returns the active engine, selecting one on first use.
// Selection is a one-shot transition: once the sqlite probe has failed
// the document engine is used for the rest of the process lifetime, and
// the probe is never retried.
func (s *Store) ensureInit(ctx context.Context) (engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return s.engine, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.cfg.ForceFallback {
		eng, err := openSQLite(ctx, filepath.Join(s.cfg.DataDir, DBFileName))
		if err == nil {
			s.engine = eng
			s.mode = ModeSQLite
			s.logger.Printf("using sqlite engine at %s", eng.path)
			return s.engine, nil
		}
		s.logger.Printf("sqlite unavailable, falling back to document engine: %v", err)
	}

	backend, err := kv.NewFileStore(s.cfg.DataDir)
	if err != nil {
		// No durable storage at all; keep the dataset in memory rather
		// than failing every caller.
		s.logger.Printf("WARNING: no durable kv storage (%v), using memory store", err)
		s.engine = newDocumentEngine(kv.NewMemStore(), s.logger)
	} else {
		s.engine = newDocumentEngine(backend, s.logger)
	}
	s.mode = ModeDocument
	return s.engine, nil
}

// Status reports which engine is active and whether initialization has
// completed.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Mode: s.mode, Initialized: s.engine != nil}
}

// Close releases the active engine, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	s.mode = ModeUnset
	return err
}

// Counts returns the row count per table.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Counts(ctx)
}

// ----- users -----

func (s *Store) CreateUser(ctx context.Context, u *schema.User) (int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return 0, err
	}
	return eng.CreateUser(ctx, u)
}

// UpsertUser writes a user row under a caller-supplied id, keeping the
// auto-increment counter ahead of it. The sync engine uses this to
// mirror server-assigned ids.
func (s *Store) UpsertUser(ctx context.Context, u *schema.User) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.UpsertUser(ctx, u)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*schema.User, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetUserByID(ctx, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetUserByUsername(ctx, username)
}

func (s *Store) UpdateUser(ctx context.Context, id int64, upd schema.UserUpdate) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.UpdateUser(ctx, id, upd)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.DeleteUser(ctx, id)
}

// ----- friends -----

func (s *Store) CreateFriendship(ctx context.Context, f *schema.Friendship) (int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return 0, err
	}
	return eng.CreateFriendship(ctx, f)
}

// GetFriendsForUser returns the ids of every user with an accepted
// friendship touching userID, regardless of which side sent the
// request, sorted ascending.
func (s *Store) GetFriendsForUser(ctx context.Context, userID int64) ([]int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetFriendsForUser(ctx, userID)
}

func (s *Store) GetFriendshipsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetFriendshipsForUser(ctx, userID)
}

// FindFriendship looks up the directed edge userID -> friendID.
func (s *Store) FindFriendship(ctx context.Context, userID, friendID int64) (*schema.Friendship, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.FindFriendship(ctx, userID, friendID)
}

func (s *Store) GetPendingRequestsForUser(ctx context.Context, userID int64) ([]schema.Friendship, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetPendingRequestsForUser(ctx, userID)
}

func (s *Store) UpdateFriendshipStatus(ctx context.Context, id int64, status schema.FriendStatus) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.UpdateFriendshipStatus(ctx, id, status)
}

func (s *Store) DeleteFriendship(ctx context.Context, userID, friendID int64) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.DeleteFriendship(ctx, userID, friendID)
}

// ----- events -----

func (s *Store) CreateEvent(ctx context.Context, ev *schema.Event) (int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return 0, err
	}
	return eng.CreateEvent(ctx, ev)
}

// AddFreeTime records an open availability block: an event row with
// IsEvent=false and no title.
func (s *Store) AddFreeTime(ctx context.Context, ev *schema.Event) (int64, error) {
	ev.IsEvent = false
	ev.Title = ""
	return s.CreateEvent(ctx, ev)
}

func (s *Store) GetEventByID(ctx context.Context, id int64) (*schema.Event, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetEventByID(ctx, id)
}

func (s *Store) GetEventsForUser(ctx context.Context, userID int64) ([]schema.Event, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetEventsForUser(ctx, userID)
}

func (s *Store) GetFreeTimeForUser(ctx context.Context, userID int64) ([]schema.Event, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetFreeTimeForUser(ctx, userID)
}

func (s *Store) UpdateEvent(ctx context.Context, id int64, upd schema.EventUpdate) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.UpdateEvent(ctx, id, upd)
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.DeleteEvent(ctx, id)
}

func (s *Store) DeleteEventsForUser(ctx context.Context, userID int64) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.DeleteEventsForUser(ctx, userID)
}

// ----- rsvps -----

func (s *Store) CreateRSVP(ctx context.Context, r *schema.RSVP) (int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return 0, err
	}
	return eng.CreateRSVP(ctx, r)
}

func (s *Store) GetRSVPByID(ctx context.Context, id int64) (*schema.RSVP, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetRSVPByID(ctx, id)
}

func (s *Store) FindRSVP(ctx context.Context, eventID, recipientID int64) (*schema.RSVP, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.FindRSVP(ctx, eventID, recipientID)
}

func (s *Store) GetRSVPsForEvent(ctx context.Context, eventID int64) ([]schema.RSVP, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetRSVPsForEvent(ctx, eventID)
}

func (s *Store) GetRSVPsForUser(ctx context.Context, recipientID int64) ([]schema.RSVP, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetRSVPsForUser(ctx, recipientID)
}

func (s *Store) UpdateRSVPStatus(ctx context.Context, id int64, status schema.RSVPStatus) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.UpdateRSVPStatus(ctx, id, status)
}

func (s *Store) DeleteRSVP(ctx context.Context, id int64) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.DeleteRSVP(ctx, id)
}

// ----- notifications -----

func (s *Store) CreateNotification(ctx context.Context, n *schema.Notification) (int64, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return 0, err
	}
	return eng.CreateNotification(ctx, n)
}

func (s *Store) GetNotificationsForUser(ctx context.Context, userID int64) ([]schema.Notification, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetNotificationsForUser(ctx, userID)
}

func (s *Store) ClearNotificationsForUser(ctx context.Context, userID int64) error {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return err
	}
	return eng.ClearNotificationsForUser(ctx, userID)
}

// ----- preferences -----

func (s *Store) SetUserPreferences(ctx context.Context, userID int64, upd schema.PreferencesUpdate) (*schema.Preferences, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.SetUserPreferences(ctx, userID, upd)
}

func (s *Store) GetUserPreferences(ctx context.Context, userID int64) (*schema.Preferences, error) {
	eng, err := s.ensureInit(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetUserPreferences(ctx, userID)
}
