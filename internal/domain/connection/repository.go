package connection

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for connection data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	GetByID(ctx context.Context, id string) (*Connection, error)

	// ListActive returns connections not scheduled for deletion.
	ListActive(ctx context.Context) ([]*Connection, error)

	// Update persists the connection's mutable fields (raw payload,
	// institution fields, status, last-synced timestamp) in one write.
	Update(ctx context.Context, conn *Connection) error

	// MarkForDeletion flips the scheduled-for-deletion flag. Hard removal
	// happens later in an asynchronous destroy.
	MarkForDeletion(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error
}

// UpsertLinkedAccountParams holds the bridge-reported fields for one account.
type UpsertLinkedAccountParams struct {
	ConnectionID   string
	ExternalID     string
	Name           string
	Currency       string
	CurrentBalance decimal.Decimal
	OrgData        map[string]any
	Institution    Institution
	RawPayload     json.RawMessage
}

// LinkedAccountRepository defines the interface for linked account data access
type LinkedAccountRepository interface {
	ListByConnectionID(ctx context.Context, connectionID string) ([]*LinkedAccount, error)

	// Upsert creates or refreshes a linked account keyed on
	// (connection_id, external_id). Link references to local accounts are
	// never touched by an upsert; once set they are stable.
	Upsert(ctx context.Context, params UpsertLinkedAccountParams) (*LinkedAccount, error)

	CountByConnectionID(ctx context.Context, connectionID string) (int, error)
}
