// Package seed fills the local store with development fixtures.
//
// Seeding is the one operation in this codebase that refuses outright:
// it only runs when the configured environment is "development", so a
// mistyped flag can never inject fake rows into a real dataset.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/friendsync/friendsync/internal/schema"
	"github.com/friendsync/friendsync/internal/store"
)

// ErrNotDevelopment is returned when seeding is attempted outside the
// development environment.
var ErrNotDevelopment = errors.New("seed: refusing to run outside development environment")

// Environment value required for seeding to proceed.
const DevelopmentEnv = "development"

// Options controls the generated dataset.
type Options struct {
	// Environment must equal DevelopmentEnv or Run fails with
	// ErrNotDevelopment.
	Environment string

	// Randomize perturbs times and statuses with a seeded generator
	// instead of producing the fixed fixture set.
	Randomize bool

	// Seed drives the generator when Randomize is set. Zero means the
	// current time.
	Seed int64

	// Logger for seeding activity. Nil means a stderr default.
	Logger *log.Logger
}

// Summary reports how many rows of each kind were written.
type Summary struct {
	Users         int
	Friendships   int
	Events        int
	FreeTime      int
	RSVPs         int
	Notifications int
	Preferences   int
}

// Seeder writes a consistent development dataset through the store.
type Seeder struct {
	store  *store.Store
	opts   Options
	logger *log.Logger
}

// New creates a Seeder. The environment check happens in Run, not here,
// so construction is always safe.
func New(st *store.Store, opts Options) *Seeder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[seed] ", log.LstdFlags)
	}
	return &Seeder{store: st, opts: opts, logger: logger}
}

var seedUsers = []struct {
	username string
	email    string
}{
	{"avery", "avery@example.com"},
	{"blair", "blair@example.com"},
	{"casey", "casey@example.com"},
	{"devon", "devon@example.com"},
	{"emery", "emery@example.com"},
}

var seedEventTitles = []string{
	"Board game night",
	"Morning run",
	"Book club",
	"Dinner at the new place",
	"Study session",
}

// Run writes the dataset and returns a row-count summary. The dataset
// is self-consistent: every friendship, rsvp and notification refers to
// seeded users and events.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Environment != DevelopmentEnv {
		return nil, ErrNotDevelopment
	}

	rng := rand.New(rand.NewSource(s.seedValue()))
	base := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)

	var sum Summary

	userIDs := make([]int64, 0, len(seedUsers))
	for _, su := range seedUsers {
		id, err := s.store.CreateUser(ctx, &schema.User{Username: su.username, Email: su.email})
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", su.username, err)
		}
		userIDs = append(userIDs, id)
		sum.Users++
	}

	// A small friendship graph: each user befriends the next; every
	// other edge stays pending so accept flows have something to work
	// with.
	for i := 0; i < len(userIDs)-1; i++ {
		status := schema.FriendAccepted
		if i%2 == 1 {
			status = schema.FriendPending
		}
		f := &schema.Friendship{UserID: userIDs[i], FriendID: userIDs[i+1], Status: status}
		if _, err := s.store.CreateFriendship(ctx, f); err != nil {
			return nil, fmt.Errorf("failed to seed friendship: %w", err)
		}
		sum.Friendships++
	}

	// One event and one free-time block per user, spread over the week.
	eventIDs := make([]int64, 0, len(userIDs))
	for i, uid := range userIDs {
		start := base.AddDate(0, 0, i).Add(time.Duration(10+i) * time.Hour)
		if s.opts.Randomize {
			start = start.Add(time.Duration(rng.Intn(12)) * time.Hour)
		}
		ev := &schema.Event{
			UserID:      uid,
			Title:       seedEventTitles[i%len(seedEventTitles)],
			Description: "seeded event",
			StartTime:   start,
			EndTime:     start.Add(2 * time.Hour),
			IsEvent:     true,
			Recurring:   schema.RecurNone,
		}
		if i%2 == 0 {
			ev.Recurring = schema.RecurWeekly
		}
		ev.SetDefaults()
		id, err := s.store.CreateEvent(ctx, ev)
		if err != nil {
			return nil, fmt.Errorf("failed to seed event for user %d: %w", uid, err)
		}
		eventIDs = append(eventIDs, id)
		sum.Events++

		freeStart := start.AddDate(0, 0, 1)
		free := &schema.Event{
			UserID:    uid,
			StartTime: freeStart,
			EndTime:   freeStart.Add(3 * time.Hour),
		}
		free.SetDefaults()
		if _, err := s.store.AddFreeTime(ctx, free); err != nil {
			return nil, fmt.Errorf("failed to seed free time for user %d: %w", uid, err)
		}
		sum.FreeTime++
	}

	// Invite each user's next neighbor to their event.
	for i := 0; i < len(userIDs)-1; i++ {
		status := schema.RSVPPending
		if s.opts.Randomize {
			switch rng.Intn(3) {
			case 1:
				status = schema.RSVPAccepted
			case 2:
				status = schema.RSVPDeclined
			}
		} else if i%2 == 0 {
			status = schema.RSVPAccepted
		}
		r := &schema.RSVP{
			EventID:      eventIDs[i],
			EventOwnerID: userIDs[i],
			RecipientID:  userIDs[i+1],
			Status:       status,
		}
		if _, err := s.store.CreateRSVP(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to seed rsvp: %w", err)
		}
		sum.RSVPs++
	}

	for i, uid := range userIDs {
		n := &schema.Notification{
			UserID:    uid,
			Message:   fmt.Sprintf("%s invited you to %s", seedUsers[(i+1)%len(seedUsers)].username, seedEventTitles[i%len(seedEventTitles)]),
			Type:      "invite",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := s.store.CreateNotification(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to seed notification: %w", err)
		}
		sum.Notifications++
	}

	for i, uid := range userIDs {
		theme := i % 3
		enabled := i%2 == 0
		scheme := i % 2
		upd := schema.PreferencesUpdate{
			Theme:                &theme,
			NotificationsEnabled: &enabled,
			ColorScheme:          &scheme,
		}
		if _, err := s.store.SetUserPreferences(ctx, uid, upd); err != nil {
			return nil, fmt.Errorf("failed to seed preferences for user %d: %w", uid, err)
		}
		sum.Preferences++
	}

	s.logger.Printf("seeded %d users, %d friendships, %d events, %d free-time blocks, %d rsvps, %d notifications",
		sum.Users, sum.Friendships, sum.Events, sum.FreeTime, sum.RSVPs, sum.Notifications)
	return &sum, nil
}

func (s *Seeder) seedValue() int64 {
	if s.opts.Seed != 0 {
		return s.opts.Seed
	}
	if !s.opts.Randomize {
		return 1
	}
	return time.Now().UnixNano()
}
