package syncrun

import (
	"time"
)

// Run statuses. A run is immutable once written except for these terminal fields.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Stats keys recorded by the snapshot importer and the dedup pass.
const (
	StatTotalAccounts     = "total_accounts"
	StatLinkedAccounts    = "linked_accounts"
	StatUnlinkedAccounts  = "unlinked_accounts"
	StatPendingReconciled = "pending_reconciled"
)

// Run is one execution record of a synchronization attempt for a connection.
// Stats is free-form: it may arrive as a map, as a raw JSON string, or not at
// all. Consumers must go through ParseStats and never read it directly.
type Run struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connectionId"`
	Status       string     `json:"status"`
	Stats        any        `json:"stats,omitempty"`
	Error        string     `json:"error,omitempty"`
	StatusText   string     `json:"statusText,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}
