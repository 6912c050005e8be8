package schema

import (
	"fmt"
	"time"
)

// RSVPStatus is the recipient's answer to an event invite.
type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "pending"
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
)

// Valid reports whether s is a known RSVP status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPAccepted, RSVPDeclined:
		return true
	}
	return false
}

// RSVP links an invite recipient to one event. At most one RSVP exists
// per (EventID, RecipientID) pair; the store enforces this as an upsert
// rather than trusting caller discipline.
type RSVP struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"eventId"`
	EventOwnerID int64      `json:"eventOwnerId"`
	RecipientID  int64      `json:"inviteRecipientId"`
	Status       RSVPStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Validate checks the linked ids and the status enum.
func (r *RSVP) Validate() error {
	if r.EventID <= 0 {
		return fmt.Errorf("eventId is required")
	}
	if r.EventOwnerID <= 0 {
		return fmt.Errorf("eventOwnerId is required")
	}
	if r.RecipientID <= 0 {
		return fmt.Errorf("inviteRecipientId is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid rsvp status %q", r.Status)
	}
	return nil
}

// SetDefaults stamps creation/update times when the caller omitted them.
func (r *RSVP) SetDefaults() {
	now := time.Now().UTC()
	if r.Status == "" {
		r.Status = RSVPPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
}
