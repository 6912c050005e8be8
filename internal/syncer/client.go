package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// remote payload shapes. The backend serves these from its own SQL
// rows, so booleans may arrive as 0/1 and event titles under either
// "eventTitle" or "title"; the wire types absorb both.

type remoteUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type remoteEvent struct {
	UserID      int64    `json:"userId"`
	EventTitle  string   `json:"eventTitle"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Date        string   `json:"date"`
	IsEvent     jsonBool `json:"isEvent"`
	Recurring   int      `json:"recurring"`
}

// title returns whichever title field the server populated.
func (e *remoteEvent) title() string {
	if e.EventTitle != "" {
		return e.EventTitle
	}
	return e.Title
}

type remoteFriend struct {
	FriendID int64  `json:"friendId"`
	Status   string `json:"status"`
}

type remoteRSVP struct {
	EventID      int64  `json:"eventId"`
	EventOwnerID int64  `json:"eventOwnerId"`
	RecipientID  int64  `json:"inviteRecipientId"`
	Status       string `json:"status"`
}

type remoteNotification struct {
	UserID    int64  `json:"userId"`
	Message   string `json:"notifMsg"`
	Type      string `json:"notifType"`
	CreatedAt string `json:"createdAt"`
}

type remotePreferences struct {
	Theme                int      `json:"theme"`
	NotificationsEnabled jsonBool `json:"notificationEnabled"`
	ColorScheme          int      `json:"colorScheme"`
}

// jsonBool accepts true/false as well as the 0/1 integers SQL-backed
// endpoints tend to emit.
type jsonBool bool

func (b *jsonBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("cannot parse %q as boolean", data)
	}
	return nil
}

// parseRemoteTime is forgiving about timestamp shape; a blank or
// unparseable value yields the zero time rather than failing the row.
func parseRemoteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Client talks to the remote FriendSync API. The bearer token can be
// swapped at any time (login, refresh) without affecting requests
// already in flight.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the API at baseURL. If logger is nil a
// default stderr logger is used.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetToken stores the bearer token used by subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// getJSON fetches path and decodes the body into out. A 404 reports
// found=false with no error; any other non-2xx status is an error for
// that resource only.
func (c *Client) getJSON(ctx context.Context, path string, out any) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	// Some endpoints answer a literal null for "no data".
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return true, nil
}

func (c *Client) fetchUser(ctx context.Context, userID int64) (*remoteUser, error) {
	var u remoteUser
	found, err := c.getJSON(ctx, fmt.Sprintf("/users/%d", userID), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (c *Client) fetchEvents(ctx context.Context, userID int64) ([]remoteEvent, error) {
	var events []remoteEvent
	if _, err := c.getJSON(ctx, fmt.Sprintf("/events/user/%d", userID), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) fetchFriends(ctx context.Context, userID int64) ([]remoteFriend, error) {
	var friends []remoteFriend
	if _, err := c.getJSON(ctx, fmt.Sprintf("/friends/user/%d", userID), &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

func (c *Client) fetchRSVPs(ctx context.Context, userID int64) ([]remoteRSVP, error) {
	var rsvps []remoteRSVP
	if _, err := c.getJSON(ctx, fmt.Sprintf("/rsvps/user/%d", userID), &rsvps); err != nil {
		return nil, err
	}
	return rsvps, nil
}

func (c *Client) fetchNotifications(ctx context.Context, userID int64) ([]remoteNotification, error) {
	var notifs []remoteNotification
	if _, err := c.getJSON(ctx, fmt.Sprintf("/notifications/user/%d", userID), &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

func (c *Client) fetchPreferences(ctx context.Context, userID int64) (*remotePreferences, error) {
	var prefs remotePreferences
	found, err := c.getJSON(ctx, fmt.Sprintf("/preferences/%d", userID), &prefs)
	if err != nil || !found {
		return nil, err
	}
	return &prefs, nil
}
