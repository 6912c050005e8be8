// Package syncer pulls a user's remote state and reconciles it into the
// local data store.
//
// # Overview
//
// The syncer is a read-only consumer of the remote FriendSync API: it
// never pushes local changes. One sync pass fetches six per-user
// resources and applies each with a resource-specific reconciliation
// policy:
//
//	GET /users/{id}                 → profile     (upsert)
//	GET /events/user/{id}           → events      (destructive replace)
//	GET /friends/user/{id}          → friendships (additive merge)
//	GET /rsvps/user/{id}            → rsvps       (additive merge + status)
//	GET /notifications/user/{id}    → feed        (destructive replace)
//	GET /preferences/{id}           → preferences (upsert)
//
// Destructive replace deletes every local row of that type for the user
// before inserting the remote set; a local row created between passes
// that the server does not know about is lost. Additive merge only ever
// inserts or updates, never deletes. The replace policy is a named
// Strategy so the destructive default can be switched per resource
// without touching the reconciliation code.
//
// # Failure model
//
// The pass is resilient: the six fetches run concurrently and each
// failure degrades to an empty or absent default, so a friends-endpoint
// outage still lets notifications sync. Per-item apply failures are
// logged and skipped. Nothing from a sync pass is surfaced to the user.
//
// # Usage
//
//	client := syncer.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, nil)
//	client.SetToken(token)
//	s := syncer.New(st, client, nil)
//	if err := s.FullSync(ctx, userID); err != nil {
//	    log.Printf("sync failed: %v", err)
//	}
package syncer
