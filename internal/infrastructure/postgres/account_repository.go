package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"ledgerlink/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	id, name, account_type, subtype, currency, balance, classification,
	created_at, updated_at
`

func scanAccount(scanner interface{ Scan(...any) error }) (*account.Account, error) {
	var acc account.Account
	var subtype, classification sql.NullString

	err := scanner.Scan(
		&acc.ID, &acc.Name, &acc.AccountType, &subtype, &acc.Currency,
		&acc.Balance, &classification, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Subtype = subtype.String
	acc.Classification = classification.String
	return &acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// ListByIDs retrieves the accounts for the given ids in a single query
func (r *AccountRepository) ListByIDs(ctx context.Context, ids []string) ([]*account.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Update refreshes the given fields on an account
func (r *AccountRepository) Update(ctx context.Context, id string, params account.UpdateParams) (*account.Account, error) {
	query := `
		UPDATE accounts
		SET name = COALESCE($2, name),
		    balance = COALESCE($3, balance),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	var name sql.NullString
	if params.Name != nil {
		name = sql.NullString{String: *params.Name, Valid: true}
	}
	var balance any
	if params.Balance != nil {
		balance = *params.Balance
	}

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id, name, balance))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return acc, nil
}
