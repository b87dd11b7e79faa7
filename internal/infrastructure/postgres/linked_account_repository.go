package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"ledgerlink/internal/domain/connection"
)

// LinkedAccountRepository implements the connection.LinkedAccountRepository interface for PostgreSQL
type LinkedAccountRepository struct {
	db *DB
}

// NewLinkedAccountRepository creates a new PostgreSQL linked account repository
func NewLinkedAccountRepository(db *DB) *LinkedAccountRepository {
	return &LinkedAccountRepository{db: db}
}

const linkedAccountColumns = `
	id, connection_id, external_id, name, currency, current_balance,
	account_id, legacy_account_id, org_data,
	institution_id, institution_name, institution_domain, institution_url,
	raw_payload, created_at, updated_at
`

func scanLinkedAccount(scanner interface{ Scan(...any) error }) (*connection.LinkedAccount, error) {
	var la connection.LinkedAccount
	var accountID, legacyAccountID sql.NullString
	var instID, instName, instDomain, instURL sql.NullString
	var orgData, rawPayload []byte

	err := scanner.Scan(
		&la.ID, &la.ConnectionID, &la.ExternalID, &la.Name, &la.Currency, &la.CurrentBalance,
		&accountID, &legacyAccountID, &orgData,
		&instID, &instName, &instDomain, &instURL,
		&rawPayload, &la.CreatedAt, &la.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		la.AccountID = &accountID.String
	}
	if legacyAccountID.Valid {
		la.LegacyAccountID = &legacyAccountID.String
	}
	if len(orgData) > 0 {
		if err := json.Unmarshal(orgData, &la.OrgData); err != nil {
			// Stored org data is bridge-sourced; tolerate corruption.
			log.Printf("Warning: malformed org data on linked account %s: %v", la.ID, err)
		}
	}
	la.Institution = connection.Institution{
		ID:     instID.String,
		Name:   instName.String,
		Domain: instDomain.String,
		URL:    instURL.String,
	}
	la.RawPayload = rawPayload

	return &la, nil
}

// ListByConnectionID returns all linked accounts for a connection
func (r *LinkedAccountRepository) ListByConnectionID(ctx context.Context, connectionID string) ([]*connection.LinkedAccount, error) {
	query := `
		SELECT ` + linkedAccountColumns + `
		FROM linked_accounts
		WHERE connection_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*connection.LinkedAccount
	for rows.Next() {
		la, err := scanLinkedAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}
		accounts = append(accounts, la)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate linked accounts: %w", err)
	}

	return accounts, nil
}

// Upsert creates or refreshes a linked account keyed on
// (connection_id, external_id). Link references to local accounts are never
// touched here; once set they are stable for the account's lifetime.
func (r *LinkedAccountRepository) Upsert(ctx context.Context, params connection.UpsertLinkedAccountParams) (*connection.LinkedAccount, error) {
	var orgData []byte
	if len(params.OrgData) > 0 {
		var err error
		orgData, err = json.Marshal(params.OrgData)
		if err != nil {
			return nil, fmt.Errorf("failed to encode org data: %w", err)
		}
	}

	query := `
		INSERT INTO linked_accounts (
			id, connection_id, external_id, name, currency, current_balance,
			org_data, institution_id, institution_name, institution_domain,
			institution_url, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (connection_id, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			current_balance = EXCLUDED.current_balance,
			org_data = EXCLUDED.org_data,
			institution_id = EXCLUDED.institution_id,
			institution_name = EXCLUDED.institution_name,
			institution_domain = EXCLUDED.institution_domain,
			institution_url = EXCLUDED.institution_url,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = NOW()
		RETURNING ` + linkedAccountColumns

	la, err := scanLinkedAccount(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.ConnectionID, params.ExternalID,
		params.Name, nullString(params.Currency), params.CurrentBalance,
		nullBytes(orgData),
		nullString(params.Institution.ID), nullString(params.Institution.Name),
		nullString(params.Institution.Domain), nullString(params.Institution.URL),
		nullBytes(params.RawPayload),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert linked account: %w", err)
	}

	return la, nil
}

// CountByConnectionID counts all linked accounts under a connection
func (r *LinkedAccountRepository) CountByConnectionID(ctx context.Context, connectionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM linked_accounts WHERE connection_id = $1`, connectionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count linked accounts: %w", err)
	}
	return count, nil
}
