package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ledgerlink/internal/domain/entry"
)

// EntryRepository implements the entry.Repository interface for PostgreSQL
type EntryRepository struct {
	db *DB
}

// NewEntryRepository creates a new PostgreSQL entry repository
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// CountStalePendingByAccount counts pending, non-excluded entries dated
// strictly before cutoff, grouped by account, in a single query. Walking the
// accounts one by one would be an N+1 pattern; the GROUP BY keeps the
// per-account breakdown consistent with the total.
func (r *EntryRepository) CountStalePendingByAccount(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error) {
	if len(accountIDs) == 0 {
		return map[string]int{}, nil
	}

	query := `
		SELECT account_id, COUNT(*)
		FROM entries
		WHERE account_id = ANY($1)
		  AND pending = TRUE
		  AND excluded = FALSE
		  AND date < $2
		GROUP BY account_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(accountIDs), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count stale pending entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var accountID string
		var count int
		if err := rows.Scan(&accountID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stale pending count: %w", err)
		}
		counts[accountID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale pending counts: %w", err)
	}

	return counts, nil
}

// LatestTransactionDate returns the newest entry date across the given
// accounts, or nil if none of them have entries.
func (r *EntryRepository) LatestTransactionDate(ctx context.Context, accountIDs []string) (*time.Time, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	query := `SELECT MAX(date) FROM entries WHERE account_id = ANY($1)`

	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, pq.Array(accountIDs)).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to get latest transaction date: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// ListUncategorized returns up to limit entries on the account that have no
// category yet, newest first.
func (r *EntryRepository) ListUncategorized(ctx context.Context, accountID string, limit int) ([]*entry.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, account_id, name, amount, currency, date, pending, excluded, category, created_at, updated_at
		FROM entries
		WHERE account_id = $1 AND category IS NULL AND excluded = FALSE
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized entries: %w", err)
	}
	defer rows.Close()

	var entries []*entry.Entry
	for rows.Next() {
		var e entry.Entry
		var category sql.NullString
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Name, &e.Amount, &e.Currency, &e.Date,
			&e.Pending, &e.Excluded, &category, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if category.Valid {
			e.Category = &category.String
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// UpdateCategory sets the category on a single entry.
func (r *EntryRepository) UpdateCategory(ctx context.Context, entryID, category string) error {
	query := `UPDATE entries SET category = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, entryID, category); err != nil {
		return fmt.Errorf("failed to update entry category: %w", err)
	}
	return nil
}

// compile-time interface check
var _ entry.Repository = (*EntryRepository)(nil)
