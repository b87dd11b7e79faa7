package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByIDs retrieves the accounts for the given ids in a single query.
	// Missing ids are silently skipped.
	ListByIDs(ctx context.Context, ids []string) ([]*Account, error)

	// Update refreshes the given fields on an account
	Update(ctx context.Context, id string, params UpdateParams) (*Account, error)
}
