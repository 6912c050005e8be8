package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/friendsync/friendsync/internal/daemon"
	"github.com/friendsync/friendsync/internal/store"
)

// Handler bridges daemon events to dashboard messages. Wire its On*
// methods to the auto-sync loop and the store watcher, and call
// RefreshStats after events that change row counts.
type Handler struct {
	server *Server
	store  *store.Store
	logger *log.Logger
}

// NewHandler creates an event handler connected to a dashboard server.
func NewHandler(server *Server, st *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		server: server,
		store:  st,
		logger: logger,
	}
}

// OnSyncComplete broadcasts the outcome of one sync pass, then pushes
// fresh statistics.
func (h *Handler) OnSyncComplete(userID int64, duration time.Duration, passErr error) {
	data := SyncCompleteData{
		UserID:   userID,
		Duration: duration,
	}
	if passErr != nil {
		data.Error = passErr.Error()
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("failed to marshal sync data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncComplete,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	h.RefreshStats(context.Background())
}

// OnStoreChanged broadcasts an on-disk store file change.
func (h *Handler) OnStoreChanged(ev daemon.StoreEvent) {
	data := StoreUpdateData{
		Path: ev.Path,
		Op:   ev.Op.String(),
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("failed to marshal store event: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStoreUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// RefreshStats reads current row counts and broadcasts them.
func (h *Handler) RefreshStats(ctx context.Context) {
	counts, err := h.store.Counts(ctx)
	if err != nil {
		h.logger.Printf("failed to read store counts: %v", err)
		return
	}

	data := StatsData{
		Engine: string(h.store.Status().Mode),
		Counts: counts,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
