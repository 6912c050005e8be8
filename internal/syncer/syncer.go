package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/friendsync/friendsync/internal/schema"
	"github.com/friendsync/friendsync/internal/store"
)

// Strategy selects how a fetched batch is reconciled against local
// rows of the same type.
type Strategy int

const (
	// ReplaceAll deletes the user's local rows of the type, then
	// inserts the remote batch. Local-only rows are lost.
	ReplaceAll Strategy = iota
	// MergeByKey inserts records missing locally and updates matches;
	// it never deletes.
	MergeByKey
)

// Option customizes a Syncer created by New.
type Option func(*syncer)

// WithEventStrategy overrides the reconciliation strategy for events.
// The default is ReplaceAll.
func WithEventStrategy(st Strategy) Option {
	return func(s *syncer) { s.eventStrategy = st }
}

// WithNotificationStrategy overrides the reconciliation strategy for
// the notification feed. The default is ReplaceAll.
func WithNotificationStrategy(st Strategy) Option {
	return func(s *syncer) { s.notifStrategy = st }
}

type syncer struct {
	store  *store.Store
	client *Client
	logger *log.Logger

	eventStrategy Strategy
	notifStrategy Strategy
}

// New creates a Syncer that pulls from client and writes to st. If
// logger is nil a default stderr logger is used.
func New(st *store.Store, client *Client, logger *log.Logger, opts ...Option) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	s := &syncer{
		store:         st,
		client:        client,
		logger:        logger,
		eventStrategy: ReplaceAll,
		notifStrategy: ReplaceAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *syncer) SyncProfile(ctx context.Context, userID int64) error {
	u, err := s.client.fetchUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	return s.applyProfile(ctx, userID, u)
}

func (s *syncer) SyncEvents(ctx context.Context, userID int64) error {
	events, err := s.client.fetchEvents(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	return s.applyEvents(ctx, userID, events)
}

func (s *syncer) SyncFriends(ctx context.Context, userID int64) error {
	friends, err := s.client.fetchFriends(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch friends: %w", err)
	}
	return s.applyFriends(ctx, userID, friends)
}

func (s *syncer) SyncRSVPs(ctx context.Context, userID int64) error {
	rsvps, err := s.client.fetchRSVPs(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch rsvps: %w", err)
	}
	return s.applyRSVPs(ctx, userID, rsvps)
}

func (s *syncer) SyncNotifications(ctx context.Context, userID int64) error {
	notifs, err := s.client.fetchNotifications(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return s.applyNotifications(ctx, userID, notifs)
}

func (s *syncer) SyncPreferences(ctx context.Context, userID int64) error {
	prefs, err := s.client.fetchPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch preferences: %w", err)
	}
	return s.applyPreferences(ctx, userID, prefs)
}

func (s *syncer) FullSync(ctx context.Context, userID int64) error {
	var (
		profile *remoteUser
		events  []remoteEvent
		friends []remoteFriend
		rsvps   []remoteRSVP
		notifs  []remoteNotification
		prefs   *remotePreferences
	)

	// Each fetch degrades to its empty default on failure so one dead
	// endpoint cannot block the others.
	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		var err error
		if profile, err = s.client.fetchUser(ctx, userID); err != nil {
			s.logger.Printf("profile fetch failed for user %d: %v", userID, err)
			profile = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if events, err = s.client.fetchEvents(ctx, userID); err != nil {
			s.logger.Printf("events fetch failed for user %d: %v", userID, err)
			events = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if friends, err = s.client.fetchFriends(ctx, userID); err != nil {
			s.logger.Printf("friends fetch failed for user %d: %v", userID, err)
			friends = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if rsvps, err = s.client.fetchRSVPs(ctx, userID); err != nil {
			s.logger.Printf("rsvps fetch failed for user %d: %v", userID, err)
			rsvps = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if notifs, err = s.client.fetchNotifications(ctx, userID); err != nil {
			s.logger.Printf("notifications fetch failed for user %d: %v", userID, err)
			notifs = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if prefs, err = s.client.fetchPreferences(ctx, userID); err != nil {
			s.logger.Printf("preferences fetch failed for user %d: %v", userID, err)
			prefs = nil
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Applies run sequentially in a fixed order so that rows referenced
	// by later resources (events before rsvps) exist first.
	if err := s.applyProfile(ctx, userID, profile); err != nil {
		return err
	}
	if err := s.applyEvents(ctx, userID, events); err != nil {
		return err
	}
	if err := s.applyFriends(ctx, userID, friends); err != nil {
		return err
	}
	if err := s.applyRSVPs(ctx, userID, rsvps); err != nil {
		return err
	}
	if err := s.applyNotifications(ctx, userID, notifs); err != nil {
		return err
	}
	if err := s.applyPreferences(ctx, userID, prefs); err != nil {
		return err
	}

	s.logger.Printf("sync complete for user %d: %d events, %d friends, %d rsvps, %d notifications",
		userID, len(events), len(friends), len(rsvps), len(notifs))
	return nil
}

// ----- apply helpers -----
//
// Apply errors fall in two classes: a store failure aborts the helper,
// while a bad individual record is logged and skipped.

func (s *syncer) applyProfile(ctx context.Context, userID int64, u *remoteUser) error {
	if u == nil {
		return nil
	}
	local := &schema.User{ID: u.ID, Username: u.Username, Email: u.Email}
	if local.ID == 0 {
		local.ID = userID
	}
	if err := local.Validate(); err != nil {
		s.logger.Printf("skipping remote profile for user %d: %v", userID, err)
		return nil
	}
	if err := s.store.UpsertUser(ctx, local); err != nil {
		return fmt.Errorf("failed to apply profile: %w", err)
	}
	return nil
}

func (s *syncer) applyEvents(ctx context.Context, userID int64, events []remoteEvent) error {
	existing, err := s.store.GetEventsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	free, err := s.store.GetFreeTimeForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load free time: %w", err)
	}
	local := append(existing, free...)

	incoming := make([]*schema.Event, 0, len(events))
	for i := range events {
		re := &events[i]
		ev := &schema.Event{
			UserID:      userID,
			Title:       re.title(),
			Description: re.Description,
			StartTime:   parseRemoteTime(re.StartTime),
			EndTime:     parseRemoteTime(re.EndTime),
			Date:        re.Date,
			IsEvent:     bool(re.IsEvent),
			Recurring:   schema.Recurrence(re.Recurring),
		}
		ev.SetDefaults()
		if err := ev.Validate(); err != nil {
			s.logger.Printf("skipping remote event %q for user %d: %v", ev.Title, userID, err)
			continue
		}
		incoming = append(incoming, ev)
	}

	var seen map[string]bool
	switch s.eventStrategy {
	case ReplaceAll:
		// An unchanged remote set is a no-op, so repeated passes keep
		// the same rows (and ids) instead of reminting them.
		if eventSetsEqual(local, incoming) {
			return nil
		}
		if err := s.store.DeleteEventsForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear events: %w", err)
		}
	case MergeByKey:
		seen = make(map[string]bool, len(local))
		for _, ev := range local {
			seen[eventKey(ev.Title, ev.StartTime.Unix())] = true
		}
	}

	for _, ev := range incoming {
		if seen != nil && seen[eventKey(ev.Title, ev.StartTime.Unix())] {
			continue
		}
		if _, err := s.store.CreateEvent(ctx, ev); err != nil {
			return fmt.Errorf("failed to apply event %q: %w", ev.Title, err)
		}
	}
	return nil
}

func eventKey(title string, start int64) string {
	return fmt.Sprintf("%s|%d", title, start)
}

// eventSetsEqual reports whether the local rows and the incoming batch
// describe the same event set, ignoring ids (remote events carry none).
func eventSetsEqual(local []schema.Event, incoming []*schema.Event) bool {
	if len(local) != len(incoming) {
		return false
	}
	counts := make(map[string]int, len(local))
	for i := range local {
		counts[eventIdentity(&local[i])]++
	}
	for _, ev := range incoming {
		key := eventIdentity(ev)
		counts[key]--
		if counts[key] < 0 {
			return false
		}
	}
	return true
}

func eventIdentity(ev *schema.Event) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%t|%d",
		ev.Title, ev.Description, ev.Date, ev.StartTime.Unix(), ev.EndTime.Unix(), ev.IsEvent, ev.Recurring)
}

// notificationSetsEqual is the notification analogue of
// eventSetsEqual. Creation times are left out of the identity: the
// server omits them on some payloads, in which case the local row
// carries a stamp assigned at insert time.
func notificationSetsEqual(local []schema.Notification, incoming []*schema.Notification) bool {
	if len(local) != len(incoming) {
		return false
	}
	counts := make(map[string]int, len(local))
	for _, n := range local {
		counts[n.Message+"|"+n.Type]++
	}
	for _, n := range incoming {
		key := n.Message + "|" + n.Type
		counts[key]--
		if counts[key] < 0 {
			return false
		}
	}
	return true
}

func (s *syncer) applyFriends(ctx context.Context, userID int64, friends []remoteFriend) error {
	existing, err := s.store.GetFriendshipsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load friendships: %w", err)
	}
	local := make(map[int64]*schema.Friendship, len(existing))
	for i := range existing {
		local[existing[i].Other(userID)] = &existing[i]
	}

	for _, rf := range friends {
		status := schema.FriendStatus(rf.Status)
		if !status.Valid() {
			s.logger.Printf("skipping remote friendship %d->%d with status %q", userID, rf.FriendID, rf.Status)
			continue
		}
		cur, ok := local[rf.FriendID]
		if !ok {
			f := &schema.Friendship{UserID: userID, FriendID: rf.FriendID, Status: status}
			if err := f.Validate(); err != nil {
				s.logger.Printf("skipping remote friendship %d->%d: %v", userID, rf.FriendID, err)
				continue
			}
			if _, err := s.store.CreateFriendship(ctx, f); err != nil {
				return fmt.Errorf("failed to apply friendship with %d: %w", rf.FriendID, err)
			}
			continue
		}
		// Promote only: the server accepting a request overrides a local
		// pending edge, but remote state never demotes or removes one.
		if status == schema.FriendAccepted && cur.Status != schema.FriendAccepted {
			if err := s.store.UpdateFriendshipStatus(ctx, cur.ID, schema.FriendAccepted); err != nil {
				return fmt.Errorf("failed to promote friendship with %d: %w", rf.FriendID, err)
			}
		}
	}
	return nil
}

func (s *syncer) applyRSVPs(ctx context.Context, userID int64, rsvps []remoteRSVP) error {
	for _, rr := range rsvps {
		r := &schema.RSVP{
			EventID:      rr.EventID,
			EventOwnerID: rr.EventOwnerID,
			RecipientID:  rr.RecipientID,
			Status:       schema.RSVPStatus(rr.Status),
		}
		r.SetDefaults()
		if err := r.Validate(); err != nil {
			s.logger.Printf("skipping remote rsvp for event %d: %v", rr.EventID, err)
			continue
		}
		// CreateRSVP upserts on (eventId, inviteRecipientId), so an
		// existing pair just picks up the remote status.
		if _, err := s.store.CreateRSVP(ctx, r); err != nil {
			return fmt.Errorf("failed to apply rsvp for event %d: %w", rr.EventID, err)
		}
	}
	return nil
}

func (s *syncer) applyNotifications(ctx context.Context, userID int64, notifs []remoteNotification) error {
	existing, err := s.store.GetNotificationsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}

	incoming := make([]*schema.Notification, 0, len(notifs))
	for _, rn := range notifs {
		n := &schema.Notification{
			UserID:    userID,
			Message:   rn.Message,
			Type:      rn.Type,
			CreatedAt: parseRemoteTime(rn.CreatedAt),
		}
		n.SetDefaults()
		if err := n.Validate(); err != nil {
			s.logger.Printf("skipping remote notification for user %d: %v", userID, err)
			continue
		}
		incoming = append(incoming, n)
	}

	var seen map[string]bool
	switch s.notifStrategy {
	case ReplaceAll:
		if notificationSetsEqual(existing, incoming) {
			return nil
		}
		if err := s.store.ClearNotificationsForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear notifications: %w", err)
		}
	case MergeByKey:
		seen = make(map[string]bool, len(existing))
		for _, n := range existing {
			seen[n.Message+"|"+n.Type] = true
		}
	}

	for _, n := range incoming {
		if seen != nil && seen[n.Message+"|"+n.Type] {
			continue
		}
		if _, err := s.store.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("failed to apply notification: %w", err)
		}
	}
	return nil
}

func (s *syncer) applyPreferences(ctx context.Context, userID int64, prefs *remotePreferences) error {
	if prefs == nil {
		return nil
	}
	theme := prefs.Theme
	enabled := bool(prefs.NotificationsEnabled)
	scheme := prefs.ColorScheme
	upd := schema.PreferencesUpdate{
		Theme:                &theme,
		NotificationsEnabled: &enabled,
		ColorScheme:          &scheme,
	}
	if _, err := s.store.SetUserPreferences(ctx, userID, upd); err != nil {
		return fmt.Errorf("failed to apply preferences: %w", err)
	}
	return nil
}
