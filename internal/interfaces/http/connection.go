package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ledgerlink/internal/domain/connection"
	"ledgerlink/internal/domain/sync"
)

// ConnectionHandler exposes connection status and sync operations
type ConnectionHandler struct {
	connectionService *connection.Service
	orchestrator      *sync.Orchestrator
	pool              JobSubmitter
}

// JobSubmitter lets the handler hand sync triggers to the worker pool
// without blocking the request.
type JobSubmitter interface {
	SubmitConnectionSync(connectionID string) error
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *connection.Service, orchestrator *sync.Orchestrator, pool JobSubmitter) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
		orchestrator:      orchestrator,
		pool:              pool,
	}
}

// StaleStatusResponse mirrors connection.StaleStatus for transport
type StaleStatusResponse struct {
	Stale   bool   `json:"stale"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the full health report for one connection
type StatusResponse struct {
	ConnectionID       string              `json:"connectionId"`
	Status             string              `json:"status"`
	InstitutionName    string              `json:"institutionName"`
	InstitutionSummary string              `json:"institutionSummary"`
	SyncStatusSummary  string              `json:"syncStatusSummary"`
	NeedsAttention     bool                `json:"needsAttention"`
	AttentionSummary   []string            `json:"attentionSummary"`
	StaleStatus        StaleStatusResponse `json:"staleStatus"`
	RateLimitedMessage string              `json:"rateLimitedMessage,omitempty"`
	ReconciledCount    int                 `json:"reconciledCount"`
	ReconciledMessage  string              `json:"reconciledMessage,omitempty"`
	StalePendingCount  int                 `json:"stalePendingCount"`
	StalePendingNames  []string            `json:"stalePendingAccounts,omitempty"`
	StalePendingText   string              `json:"stalePendingMessage,omitempty"`
	ScheduledDeletion  bool                `json:"scheduledForDeletion"`
}

// HandleConnectionStatus returns the health report for a connection
func (h *ConnectionHandler) HandleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadConnection(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	stale := h.connectionService.StaleSyncStatus(ctx, conn)
	reconciled := h.connectionService.LastSyncReconciledStatus(ctx, conn)
	stalePending := h.connectionService.StalePending(ctx, conn, 0)

	resp := StatusResponse{
		ConnectionID:       conn.ID,
		Status:             conn.Status,
		InstitutionName:    conn.InstitutionDisplayName(),
		InstitutionSummary: h.connectionService.InstitutionSummary(ctx, conn),
		SyncStatusSummary:  h.connectionService.SyncStatusSummary(ctx, conn),
		NeedsAttention:     h.connectionService.NeedsAttention(ctx, conn),
		AttentionSummary:   h.connectionService.AttentionSummary(ctx, conn),
		StaleStatus: StaleStatusResponse{
			Stale:   stale.Stale,
			Reason:  stale.Reason,
			Message: stale.Message,
		},
		RateLimitedMessage: h.connectionService.RateLimitedMessage(ctx, conn),
		ReconciledCount:    reconciled.Count,
		ReconciledMessage:  reconciled.Message,
		StalePendingCount:  stalePending.Count,
		StalePendingNames:  stalePending.Accounts,
		StalePendingText:   stalePending.Message,
		ScheduledDeletion:  conn.ScheduledForDeletion,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleTriggerSync queues a sync for the connection and returns 202
func (h *ConnectionHandler) HandleTriggerSync(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadConnection(w, r)
	if !ok {
		return
	}

	if conn.ScheduledForDeletion {
		http.Error(w, "Connection is scheduled for deletion", http.StatusConflict)
		return
	}

	if err := h.pool.SubmitConnectionSync(conn.ID); err != nil {
		log.Printf("Error queueing sync for connection %s: %v", conn.ID, err)
		http.Error(w, "Failed to queue sync", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"connectionId": conn.ID,
		"status":       "queued",
	})
}

// HandleDeleteConnection schedules the connection for deletion
func (h *ConnectionHandler) HandleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Connection ID is required", http.StatusBadRequest)
		return
	}

	if err := h.connectionService.DestroyLater(r.Context(), id); err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			http.Error(w, "Connection not found", http.StatusNotFound)
			return
		}
		log.Printf("Error scheduling deletion for connection %s: %v", id, err)
		http.Error(w, "Failed to schedule deletion", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConnectionHandler) loadConnection(w http.ResponseWriter, r *http.Request) (*connection.Connection, bool) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Connection ID is required", http.StatusBadRequest)
		return nil, false
	}

	conn, err := h.connectionService.GetConnection(r.Context(), id)
	if err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			http.Error(w, "Connection not found", http.StatusNotFound)
			return nil, false
		}
		log.Printf("Error loading connection %s: %v", id, err)
		http.Error(w, "Failed to load connection", http.StatusInternalServerError)
		return nil, false
	}
	return conn, true
}
