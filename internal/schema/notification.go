package schema

import (
	"fmt"
	"time"
)

// Notification is one entry in a user's append-only feed. Entries are
// never edited; the feed is cleared wholesale.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Message   string    `json:"notifMsg"`
	Type      string    `json:"notifType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the owning user and message presence.
func (n *Notification) Validate() error {
	if n.UserID <= 0 {
		return fmt.Errorf("userId is required")
	}
	if n.Message == "" {
		return fmt.Errorf("notifMsg is required")
	}
	return nil
}

// SetDefaults stamps the creation time when the caller omitted it.
func (n *Notification) SetDefaults() {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
}
