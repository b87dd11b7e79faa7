package entry

import (
	"context"
	"time"
)

// Repository defines the interface for entry data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// CountStalePendingByAccount counts pending, non-excluded entries dated
	// strictly before cutoff, grouped by account, for all the given accounts
	// in a single query. Accounts with no stale entries are absent from the
	// result map.
	CountStalePendingByAccount(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error)

	// LatestTransactionDate returns the newest entry date across the given
	// accounts, or nil if none of them have entries.
	LatestTransactionDate(ctx context.Context, accountIDs []string) (*time.Time, error)

	// ListUncategorized returns up to limit entries on the account that have
	// no category yet, newest first.
	ListUncategorized(ctx context.Context, accountID string, limit int) ([]*Entry, error)

	// UpdateCategory sets the category on a single entry.
	UpdateCategory(ctx context.Context, entryID, category string) error
}
