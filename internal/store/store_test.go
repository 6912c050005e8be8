package store

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/friendsync/friendsync/internal/schema"
)

// newTestStore creates a store in a fresh temp directory. forceFallback
// selects the document engine; otherwise the sqlite engine is used.
func newTestStore(t *testing.T, forceFallback bool) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	s := New(Config{DataDir: dir, ForceFallback: forceFallback}, testLogger(t))
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func testLogger(t *testing.T) *log.Logger {
	t.Helper()
	return log.New(os.Stderr, "[test] ", 0)
}

// forEachEngine runs fn once per engine mode.
func forEachEngine(t *testing.T, fn func(t *testing.T, s *Store, dir string)) {
	t.Helper()
	for name, fallback := range map[string]bool{"sqlite": false, "document": true} {
		t.Run(name, func(t *testing.T) {
			s, dir := newTestStore(t, fallback)
			fn(t, s, dir)
		})
	}
}

func mustCreateUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), &schema.User{
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return id
}

func TestIDsAreMonotonic(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		var last int64
		for _, name := range []string{"alice", "bob", "carol"} {
			id := mustCreateUser(t, s, name)
			if id <= last {
				t.Fatalf("id %d not greater than previous %d", id, last)
			}
			last = id
		}

		// Deleting must not free the id for reuse.
		if err := s.DeleteUser(ctx, last); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		next := mustCreateUser(t, s, "dave")
		if next <= last {
			t.Errorf("id %d reused after deletion of %d", next, last)
		}
	})
}

func TestIDsSurviveRestart(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		first := mustCreateUser(t, s, "alice")

		// Engine selection happens on first use, so Mode is only
		// meaningful after an operation has run.
		mode := s.Status().Mode
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		reopened := New(Config{DataDir: dir, ForceFallback: mode == ModeDocument}, testLogger(t))
		defer reopened.Close()

		second := mustCreateUser(t, reopened, "bob")
		if second <= first {
			t.Errorf("id %d after restart not greater than %d", second, first)
		}
		if got := reopened.Status().Mode; got != mode {
			t.Errorf("reopened store selected %s engine, want %s", got, mode)
		}
	})
}

func TestEventRoundTrip(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		want := schema.Event{
			UserID:      1,
			Title:       "Team offsite",
			Description: "Bring snacks",
			StartTime:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			IsEvent:     true,
			Recurring:   schema.RecurWeekly,
		}
		id, err := s.CreateEvent(ctx, &want)
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		got, err := s.GetEventByID(ctx, id)
		if err != nil {
			t.Fatalf("GetEventByID failed: %v", err)
		}
		if got.Title != want.Title || got.Description != want.Description {
			t.Errorf("text fields = %q/%q, want %q/%q", got.Title, got.Description, want.Title, want.Description)
		}
		if !got.StartTime.Equal(want.StartTime) || !got.EndTime.Equal(want.EndTime) {
			t.Errorf("times = %v/%v, want %v/%v", got.StartTime, got.EndTime, want.StartTime, want.EndTime)
		}
		if !got.IsEvent || got.Recurring != schema.RecurWeekly {
			t.Errorf("flags = isEvent=%v recurring=%v", got.IsEvent, got.Recurring)
		}
		if got.Date != "2025-06-01" {
			t.Errorf("Date = %q, want default-filled 2025-06-01", got.Date)
		}
	})
}

func TestDeleteUserCascades(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		alice := mustCreateUser(t, s, "alice")
		bob := mustCreateUser(t, s, "bob")

		fid, err := s.CreateFriendship(ctx, &schema.Friendship{
			UserID: alice, FriendID: bob, Status: schema.FriendAccepted,
		})
		if err != nil {
			t.Fatalf("CreateFriendship failed: %v", err)
		}
		if err := s.UpdateFriendshipStatus(ctx, fid, schema.FriendAccepted); err != nil {
			t.Fatalf("UpdateFriendshipStatus failed: %v", err)
		}

		eventID, err := s.CreateEvent(ctx, &schema.Event{
			UserID: alice, Title: "Party", IsEvent: true,
			StartTime: time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if _, err := s.CreateRSVP(ctx, &schema.RSVP{
			EventID: eventID, EventOwnerID: alice, RecipientID: bob,
		}); err != nil {
			t.Fatalf("CreateRSVP failed: %v", err)
		}
		if _, err := s.CreateNotification(ctx, &schema.Notification{
			UserID: alice, Message: "Bob accepted your request", Type: "friend",
		}); err != nil {
			t.Fatalf("CreateNotification failed: %v", err)
		}
		if _, err := s.SetUserPreferences(ctx, alice, schema.PreferencesUpdate{}); err != nil {
			t.Fatalf("SetUserPreferences failed: %v", err)
		}

		if err := s.DeleteUser(ctx, alice); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}

		if friends, _ := s.GetFriendsForUser(ctx, bob); len(friends) != 0 {
			t.Errorf("bob still has friends %v after alice deleted", friends)
		}
		if events, _ := s.GetEventsForUser(ctx, alice); len(events) != 0 {
			t.Errorf("events remain after delete: %v", events)
		}
		if rsvps, _ := s.GetRSVPsForUser(ctx, bob); len(rsvps) != 0 {
			t.Errorf("rsvps remain after delete: %v", rsvps)
		}
		if notifs, _ := s.GetNotificationsForUser(ctx, alice); len(notifs) != 0 {
			t.Errorf("notifications remain after delete: %v", notifs)
		}
		if _, err := s.GetUserPreferences(ctx, alice); !errors.Is(err, ErrNotFound) {
			t.Errorf("preferences survived delete: err=%v", err)
		}
		if _, err := s.GetUserByID(ctx, alice); !errors.Is(err, ErrNotFound) {
			t.Errorf("user row survived delete: err=%v", err)
		}
	})
}

// Scenario: Alice requests Bob, Bob accepts, both see each other.
func TestAcceptedFriendshipIsSymmetric(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		alice := mustCreateUser(t, s, "alice")
		bob := mustCreateUser(t, s, "bob")

		fid, err := s.CreateFriendship(ctx, &schema.Friendship{
			UserID: alice, FriendID: bob, Status: schema.FriendPending,
		})
		if err != nil {
			t.Fatalf("CreateFriendship failed: %v", err)
		}

		// Bob sees the incoming request.
		pending, err := s.GetPendingRequestsForUser(ctx, bob)
		if err != nil {
			t.Fatalf("GetPendingRequestsForUser failed: %v", err)
		}
		if len(pending) != 1 || pending[0].UserID != alice {
			t.Fatalf("pending = %+v, want one request from alice", pending)
		}

		// Nobody is friends yet.
		if friends, _ := s.GetFriendsForUser(ctx, alice); len(friends) != 0 {
			t.Fatalf("friends before accept = %v", friends)
		}

		if err := s.UpdateFriendshipStatus(ctx, fid, schema.FriendAccepted); err != nil {
			t.Fatalf("accept failed: %v", err)
		}

		aliceFriends, _ := s.GetFriendsForUser(ctx, alice)
		bobFriends, _ := s.GetFriendsForUser(ctx, bob)
		if len(aliceFriends) != 1 || aliceFriends[0] != bob {
			t.Errorf("GetFriendsForUser(alice) = %v, want [%d]", aliceFriends, bob)
		}
		if len(bobFriends) != 1 || bobFriends[0] != alice {
			t.Errorf("GetFriendsForUser(bob) = %v, want [%d]", bobFriends, alice)
		}
	})
}

func TestFreeTimeAndEventsAreSeparate(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()
		start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

		if _, err := s.CreateEvent(ctx, &schema.Event{
			UserID: 1, Title: "Standup", StartTime: start, IsEvent: true,
		}); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		events, err := s.GetEventsForUser(ctx, 1)
		if err != nil {
			t.Fatalf("GetEventsForUser failed: %v", err)
		}
		if len(events) != 1 || !events[0].StartTime.Equal(start) || !events[0].IsEvent {
			t.Fatalf("events = %+v", events)
		}
		if free, _ := s.GetFreeTimeForUser(ctx, 1); len(free) != 0 {
			t.Errorf("free time = %+v, want empty", free)
		}

		// Free time block lands only in the free-time view.
		if _, err := s.AddFreeTime(ctx, &schema.Event{
			UserID:    1,
			StartTime: start.Add(2 * time.Hour),
			EndTime:   start.Add(4 * time.Hour),
		}); err != nil {
			t.Fatalf("AddFreeTime failed: %v", err)
		}

		free, err := s.GetFreeTimeForUser(ctx, 1)
		if err != nil {
			t.Fatalf("GetFreeTimeForUser failed: %v", err)
		}
		if len(free) != 1 || free[0].IsEvent || free[0].Title != "" {
			t.Fatalf("free = %+v, want one untitled non-event block", free)
		}
		if events, _ := s.GetEventsForUser(ctx, 1); len(events) != 1 {
			t.Errorf("events now = %+v, free time leaked into event view", events)
		}
	})
}

func TestEventsSortedByStartTime(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()
		base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

		// Insert out of order.
		for _, offset := range []time.Duration{4 * time.Hour, 0, 2 * time.Hour} {
			if _, err := s.CreateEvent(ctx, &schema.Event{
				UserID: 1, Title: "e", StartTime: base.Add(offset), IsEvent: true,
			}); err != nil {
				t.Fatalf("CreateEvent failed: %v", err)
			}
		}

		events, err := s.GetEventsForUser(ctx, 1)
		if err != nil {
			t.Fatalf("GetEventsForUser failed: %v", err)
		}
		for i := 1; i < len(events); i++ {
			if events[i].StartTime.Before(events[i-1].StartTime) {
				t.Fatalf("events not ascending: %v before %v",
					events[i].StartTime, events[i-1].StartTime)
			}
		}
	})
}

func TestNotificationsNewestFirst(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()
		base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

		for i, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
			if _, err := s.CreateNotification(ctx, &schema.Notification{
				UserID: 1, Message: "m", Type: "t", CreatedAt: base.Add(offset),
			}); err != nil {
				t.Fatalf("CreateNotification %d failed: %v", i, err)
			}
		}

		notifs, err := s.GetNotificationsForUser(ctx, 1)
		if err != nil {
			t.Fatalf("GetNotificationsForUser failed: %v", err)
		}
		if len(notifs) != 3 {
			t.Fatalf("got %d notifications, want 3", len(notifs))
		}
		if !notifs[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("first notification = %v, want newest", notifs[0].CreatedAt)
		}
	})
}

func TestRSVPUpsertOnDuplicateInvite(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		first, err := s.CreateRSVP(ctx, &schema.RSVP{
			EventID: 10, EventOwnerID: 1, RecipientID: 2, Status: schema.RSVPPending,
		})
		if err != nil {
			t.Fatalf("CreateRSVP failed: %v", err)
		}

		second, err := s.CreateRSVP(ctx, &schema.RSVP{
			EventID: 10, EventOwnerID: 1, RecipientID: 2, Status: schema.RSVPAccepted,
		})
		if err != nil {
			t.Fatalf("duplicate CreateRSVP failed: %v", err)
		}
		if second != first {
			t.Errorf("duplicate invite created new row %d, want upsert into %d", second, first)
		}

		rsvps, err := s.GetRSVPsForUser(ctx, 2)
		if err != nil {
			t.Fatalf("GetRSVPsForUser failed: %v", err)
		}
		if len(rsvps) != 1 {
			t.Fatalf("got %d rsvps, want exactly 1", len(rsvps))
		}
		if rsvps[0].Status != schema.RSVPAccepted {
			t.Errorf("status = %q, want accepted after upsert", rsvps[0].Status)
		}
	})
}

func TestUpdateMissingRowIsNoOp(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()
		title := "ghost"

		if err := s.UpdateEvent(ctx, 9999, schema.EventUpdate{Title: &title}); err != nil {
			t.Errorf("UpdateEvent on missing id: %v, want nil", err)
		}
		if err := s.UpdateUser(ctx, 9999, schema.UserUpdate{Username: &title}); err != nil {
			t.Errorf("UpdateUser on missing id: %v, want nil", err)
		}
		if err := s.UpdateRSVPStatus(ctx, 9999, schema.RSVPAccepted); err != nil {
			t.Errorf("UpdateRSVPStatus on missing id: %v, want nil", err)
		}
		if err := s.DeleteEvent(ctx, 9999); err != nil {
			t.Errorf("DeleteEvent on missing id: %v, want nil", err)
		}
	})
}

// Scenario: two concurrent preference writes for the same user must not
// produce duplicate rows.
func TestConcurrentPreferenceWritesKeepOneRow(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		themeA, themeB := 0, 1
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.SetUserPreferences(ctx, 1, schema.PreferencesUpdate{Theme: &themeA})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.SetUserPreferences(ctx, 1, schema.PreferencesUpdate{Theme: &themeB})
		}()
		wg.Wait()

		prefs, err := s.GetUserPreferences(ctx, 1)
		if err != nil {
			t.Fatalf("GetUserPreferences failed: %v", err)
		}
		if prefs.Theme != themeA && prefs.Theme != themeB {
			t.Errorf("theme = %d, want one of the written values", prefs.Theme)
		}

		counts, err := s.Counts(ctx)
		if err != nil {
			t.Fatalf("Counts failed: %v", err)
		}
		if counts[schema.TableUserPrefs] != 1 {
			t.Errorf("user_prefs rows = %d, want exactly 1", counts[schema.TableUserPrefs])
		}
	})
}

func TestForceFallbackSelectsDocumentEngine(t *testing.T) {
	s, _ := newTestStore(t, true)

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	status := s.Status()
	if status.Mode != ModeDocument || !status.Initialized {
		t.Errorf("Status = %+v, want initialized document engine", status)
	}
}

func TestInitIsIdempotentUnderConcurrency(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Init(context.Background()); err != nil {
					t.Errorf("Init failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if !s.Status().Initialized {
			t.Error("store not initialized after concurrent Init calls")
		}
	})
}

func TestStatusBeforeInit(t *testing.T) {
	s := New(Config{DataDir: t.TempDir()}, nil)
	status := s.Status()
	if status.Initialized || status.Mode != ModeUnset {
		t.Errorf("Status before init = %+v, want unset", status)
	}
}

func TestUndirectedFriendshipRemoval(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store, dir string) {
		ctx := context.Background()

		// Stored as alice->bob, removed as (bob, alice).
		fid, err := s.CreateFriendship(ctx, &schema.Friendship{
			UserID: 1, FriendID: 2, Status: schema.FriendAccepted,
		})
		if err != nil {
			t.Fatalf("CreateFriendship failed: %v", err)
		}
		if err := s.UpdateFriendshipStatus(ctx, fid, schema.FriendAccepted); err != nil {
			t.Fatalf("accept failed: %v", err)
		}

		if err := s.DeleteFriendship(ctx, 2, 1); err != nil {
			t.Fatalf("DeleteFriendship failed: %v", err)
		}
		if friends, _ := s.GetFriendsForUser(ctx, 1); len(friends) != 0 {
			t.Errorf("friendship survived reverse-direction removal: %v", friends)
		}
	})
}
