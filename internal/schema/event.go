package schema

import (
	"fmt"
	"time"
)

// Recurrence encodes how often an event repeats. The values are the
// repeat period in days, matching the wire format used by the backend.
type Recurrence int

const (
	RecurNone    Recurrence = 0
	RecurDaily   Recurrence = 1
	RecurWeekly  Recurrence = 7
	RecurMonthly Recurrence = 30
)

// Valid reports whether r is one of the known recurrence encodings.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// String returns a human-readable name for the recurrence.
func (r Recurrence) String() string {
	switch r {
	case RecurNone:
		return "none"
	case RecurDaily:
		return "daily"
	case RecurWeekly:
		return "weekly"
	case RecurMonthly:
		return "monthly"
	default:
		return fmt.Sprintf("every %d days", int(r))
	}
}

// Event is a timeline row owned by one user. Real commitments and open
// free-time blocks share this table: IsEvent distinguishes them. A
// free-time block has IsEvent=false and no title, a deliberate
// denormalization so one query covers the whole timeline.
type Event struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Date        string     `json:"date,omitempty"` // YYYY-MM-DD, day bucket for calendar views
	IsEvent     bool       `json:"isEvent"`
	Recurring   Recurrence `json:"recurring"`
}

// Validate checks ownership, time ordering and the recurrence encoding.
// Titles are required for real events only; free-time blocks have none.
func (e *Event) Validate() error {
	if e.UserID <= 0 {
		return fmt.Errorf("userId is required")
	}
	if e.IsEvent && e.Title == "" {
		return fmt.Errorf("title is required for events")
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("startTime is required")
	}
	if !e.EndTime.IsZero() && e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("endTime %s is before startTime %s",
			e.EndTime.Format(time.RFC3339), e.StartTime.Format(time.RFC3339))
	}
	if !e.Recurring.Valid() {
		return fmt.Errorf("invalid recurrence %d", int(e.Recurring))
	}
	return nil
}

// SetDefaults fills the day bucket from StartTime when omitted.
func (e *Event) SetDefaults() {
	if e.Date == "" && !e.StartTime.IsZero() {
		e.Date = e.StartTime.Format("2006-01-02")
	}
}

// EventUpdate is a partial update for an event row. Nil fields are left
// unchanged. The IsEvent flag is immutable once created; converting a
// free-time block into an event is a delete plus create.
type EventUpdate struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Date        *string
	Recurring   *Recurrence
}
