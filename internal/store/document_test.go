package store

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/friendsync/friendsync/internal/kv"
	"github.com/friendsync/friendsync/internal/schema"
)

func TestDocumentNormalizesLegacyLayout(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemStore()

	// An older document: no meta block, some arrays missing entirely,
	// existing rows whose counters must be backfilled from max id + 1.
	legacy := `{
		"users": [
			{"id": 3, "username": "alice", "email": "a@example.com"},
			{"id": 7, "username": "bob", "email": "b@example.com"}
		],
		"events": [
			{"id": 12, "userId": 3, "title": "Old", "startTime": "2024-01-01T09:00:00Z", "isEvent": true, "recurring": 0}
		]
	}`
	if err := backend.Set(ctx, DocumentKey, legacy); err != nil {
		t.Fatalf("seeding legacy doc failed: %v", err)
	}

	eng := newDocumentEngine(backend, nil)

	// First read repairs the document in place.
	user, err := eng.GetUserByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user.Username != "bob" {
		t.Errorf("username = %q, want bob", user.Username)
	}

	raw, ok, err := backend.Get(ctx, DocumentKey)
	if err != nil || !ok {
		t.Fatalf("document missing after normalization: ok=%v err=%v", ok, err)
	}
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("normalized document unparseable: %v", err)
	}
	if doc.Friends == nil || doc.RSVPs == nil || doc.Notifications == nil || doc.UserPrefs == nil {
		t.Error("missing arrays not backfilled")
	}
	if got := doc.Meta.NextID[schema.TableUsers]; got != 8 {
		t.Errorf("users counter = %d, want 8 (max id 7 + 1)", got)
	}
	if got := doc.Meta.NextID[schema.TableEvents]; got != 13 {
		t.Errorf("events counter = %d, want 13 (max id 12 + 1)", got)
	}

	// New ids continue above the repaired counters.
	id, err := eng.CreateUser(ctx, &schema.User{Username: "carol"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id != 8 {
		t.Errorf("new user id = %d, want 8", id)
	}
}

func TestDocumentMissingKeyProducesFreshDocument(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemStore()
	eng := newDocumentEngine(backend, nil)

	users, err := eng.GetFriendsForUser(ctx, 1)
	if err != nil {
		t.Fatalf("read on empty store failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("friends = %v, want empty", users)
	}

	// The fresh document is persisted, not just held in memory.
	raw, ok, err := backend.Get(ctx, DocumentKey)
	if err != nil || !ok {
		t.Fatalf("fresh document not persisted: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(raw, `"meta"`) {
		t.Errorf("fresh document lacks meta block: %s", raw)
	}
}

func TestDocumentUnparseableValueIsReplaced(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemStore()
	if err := backend.Set(ctx, DocumentKey, "not json at all {"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	eng := newDocumentEngine(backend, nil)
	id, err := eng.CreateUser(ctx, &schema.User{Username: "alice"})
	if err != nil {
		t.Fatalf("CreateUser after corruption failed: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1 in fresh document", id)
	}
}

func TestDocumentCountersSurviveEngineRestart(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemStore()

	eng := newDocumentEngine(backend, nil)
	first, err := eng.CreateNotification(ctx, &schema.Notification{UserID: 1, Message: "hi"})
	if err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}
	if err := eng.ClearNotificationsForUser(ctx, 1); err != nil {
		t.Fatalf("ClearNotificationsForUser failed: %v", err)
	}

	// A fresh engine over the same backend must not reuse the id even
	// though the table is now empty.
	reopened := newDocumentEngine(backend, nil)
	second, err := reopened.CreateNotification(ctx, &schema.Notification{UserID: 1, Message: "again"})
	if err != nil {
		t.Fatalf("CreateNotification after restart failed: %v", err)
	}
	if second <= first {
		t.Errorf("id %d reused after clear + restart (previous %d)", second, first)
	}
}
