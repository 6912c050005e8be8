package schema

import (
	"strings"
	"testing"
	"time"
)

func TestFriendship_Validate(t *testing.T) {
	tests := []struct {
		name    string
		f       Friendship
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid pending edge",
			f:       Friendship{UserID: 1, FriendID: 2, Status: FriendPending},
			wantErr: false,
		},
		{
			name:    "missing user",
			f:       Friendship{FriendID: 2, Status: FriendPending},
			wantErr: true,
			errMsg:  "userId is required",
		},
		{
			name:    "self edge",
			f:       Friendship{UserID: 3, FriendID: 3, Status: FriendAccepted},
			wantErr: true,
			errMsg:  "cannot befriend self",
		},
		{
			name:    "unknown status",
			f:       Friendship{UserID: 1, FriendID: 2, Status: "blocked"},
			wantErr: true,
			errMsg:  "invalid friendship status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q does not contain %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFriendship_Other(t *testing.T) {
	f := Friendship{ID: 1, UserID: 10, FriendID: 20, Status: FriendAccepted}

	if got := f.Other(10); got != 20 {
		t.Errorf("Other(10) = %d, want 20", got)
	}
	if got := f.Other(20); got != 10 {
		t.Errorf("Other(20) = %d, want 10", got)
	}
	if got := f.Other(99); got != 0 {
		t.Errorf("Other(99) = %d, want 0", got)
	}
}

func TestEvent_Validate(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name    string
		e       Event
		wantErr bool
	}{
		{
			name:    "valid event",
			e:       Event{UserID: 1, Title: "Standup", StartTime: start, EndTime: end, IsEvent: true},
			wantErr: false,
		},
		{
			name:    "free time needs no title",
			e:       Event{UserID: 1, StartTime: start, EndTime: end, IsEvent: false},
			wantErr: false,
		},
		{
			name:    "event needs title",
			e:       Event{UserID: 1, StartTime: start, EndTime: end, IsEvent: true},
			wantErr: true,
		},
		{
			name:    "end before start",
			e:       Event{UserID: 1, Title: "x", StartTime: end, EndTime: start, IsEvent: true},
			wantErr: true,
		},
		{
			name:    "bad recurrence",
			e:       Event{UserID: 1, Title: "x", StartTime: start, IsEvent: true, Recurring: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvent_SetDefaults(t *testing.T) {
	e := Event{
		UserID:    1,
		Title:     "Lunch",
		StartTime: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
		IsEvent:   true,
	}
	e.SetDefaults()

	if e.Date != "2025-03-14" {
		t.Errorf("Date = %q, want 2025-03-14", e.Date)
	}

	// An explicit date is not overwritten.
	e.Date = "2025-03-15"
	e.SetDefaults()
	if e.Date != "2025-03-15" {
		t.Errorf("Date = %q, want 2025-03-15", e.Date)
	}
}

func TestRecurrence_String(t *testing.T) {
	cases := map[Recurrence]string{
		RecurNone:    "none",
		RecurDaily:   "daily",
		RecurWeekly:  "weekly",
		RecurMonthly: "monthly",
	}
	for r, want := range cases {
		if got := r.String(); got != want {
			t.Errorf("Recurrence(%d).String() = %q, want %q", int(r), got, want)
		}
	}
}

func TestRSVP_SetDefaults(t *testing.T) {
	r := RSVP{EventID: 1, EventOwnerID: 1, RecipientID: 2}
	r.SetDefaults()

	if r.Status != RSVPPending {
		t.Errorf("Status = %q, want pending", r.Status)
	}
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate after defaults: %v", err)
	}
}

func TestUser_Validate(t *testing.T) {
	u := User{Username: "alice", Email: "alice@example.com"}
	if err := u.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u = User{Username: "  "}
	if err := u.Validate(); err == nil {
		t.Error("expected error for blank username")
	}

	u = User{Username: "bob", Email: "not-an-address"}
	if err := u.Validate(); err == nil {
		t.Error("expected error for malformed email")
	}
}
