package schema

import (
	"fmt"
	"strings"
)

// User is an account row. Passwords are never stored locally; auth is
// federated and the client only ever sees a bearer token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Validate checks that the user has the required identifying fields.
// Username uniqueness is a convention, not a constraint the fallback
// engine can enforce, so it is not checked here.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return fmt.Errorf("email %q is not an address", u.Email)
	}
	return nil
}

// UserUpdate is a partial update for a user row. Nil fields are left
// unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
}
