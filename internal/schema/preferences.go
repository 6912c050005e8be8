package schema

import (
	"fmt"
	"time"
)

// Preferences holds per-user display and notification settings. At most
// one row exists per user; SetUserPreferences upserts.
type Preferences struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"userId"`
	Theme                int       `json:"theme"`
	NotificationsEnabled bool      `json:"notificationEnabled"`
	ColorScheme          int       `json:"colorScheme"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Validate checks the owning user id.
func (p *Preferences) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("userId is required")
	}
	return nil
}

// PreferencesUpdate is a partial update for a preferences row. Nil
// fields are left unchanged; an upsert with all fields nil still bumps
// UpdatedAt.
type PreferencesUpdate struct {
	Theme                *int
	NotificationsEnabled *bool
	ColorScheme          *int
}
