package schema

import "fmt"

// FriendStatus is the lifecycle state of a friendship edge.
type FriendStatus string

const (
	// FriendPending is a request that has been sent but not answered.
	FriendPending FriendStatus = "pending"
	// FriendAccepted is an established friendship. Accepted edges are
	// treated as symmetric: either endpoint matches friend queries.
	FriendAccepted FriendStatus = "accepted"
	// FriendRejected is a declined request.
	FriendRejected FriendStatus = "rejected"
)

// Valid reports whether s is a known friendship status.
func (s FriendStatus) Valid() bool {
	switch s {
	case FriendPending, FriendAccepted, FriendRejected:
		return true
	}
	return false
}

// Friendship is a directed edge UserID -> FriendID. The sender is always
// UserID; symmetry for accepted edges is applied at query time, not by
// storing a mirror row.
type Friendship struct {
	ID       int64        `json:"id"`
	UserID   int64        `json:"userId"`
	FriendID int64        `json:"friendId"`
	Status   FriendStatus `json:"status"`
}

// Validate checks endpoint ids and the status enum.
func (f *Friendship) Validate() error {
	if f.UserID <= 0 {
		return fmt.Errorf("userId is required")
	}
	if f.FriendID <= 0 {
		return fmt.Errorf("friendId is required")
	}
	if f.UserID == f.FriendID {
		return fmt.Errorf("cannot befriend self (user %d)", f.UserID)
	}
	if !f.Status.Valid() {
		return fmt.Errorf("invalid friendship status %q", f.Status)
	}
	return nil
}

// Involves reports whether either endpoint of the edge is userID.
func (f *Friendship) Involves(userID int64) bool {
	return f.UserID == userID || f.FriendID == userID
}

// Other returns the opposite endpoint of the edge relative to userID.
// Returns 0 if userID is not an endpoint.
func (f *Friendship) Other(userID int64) int64 {
	switch userID {
	case f.UserID:
		return f.FriendID
	case f.FriendID:
		return f.UserID
	}
	return 0
}
