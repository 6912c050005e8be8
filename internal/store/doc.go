// Package store provides the local data store for the FriendSync client.
//
// # Overview
//
// Store is the single entry point for structured persistence. It exposes
// typed CRUD over six tables (users, friends, events, rsvps,
// notifications, user_prefs) and hides which physical engine is active:
//
//	UI / Sync Engine / Seed
//	         ↓
//	      store.Store
//	         ↓
//	 ┌───────┴────────┐
//	 sqlite engine    document engine
//	 (embedded SQL,   (one JSON document
//	  WAL mode)        over the kv layer)
//
// # Engine selection
//
// Initialization is idempotent and safe to call from any number of call
// sites; every public operation re-runs the same check, so the store
// self-heals when used before explicit startup. The sqlite engine is
// probed first; if the database cannot be opened or its schema cannot be
// created, the store degrades permanently to the document engine for the
// rest of the process lifetime. The probe is never retried.
//
// # Consistency
//
// Operations are atomic at the single-row level only; there are no
// cross-entity transactions. The document engine serializes every
// operation through one mutex so its whole-document read-modify-write
// cycle cannot interleave and lose writes. Deleting a user cascades
// across all six tables in both engines. Per-table ids only ever grow
// and are never reused, even after deletion or a process restart.
package store
