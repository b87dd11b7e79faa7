package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ledgerlink/internal/domain/connection"
)

// ConnectionRepository implements the connection.Repository interface for PostgreSQL
type ConnectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new PostgreSQL connection repository
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `
	id, name, access_url, status, raw_payload,
	institution_id, institution_name, institution_domain, institution_url,
	raw_institution_payload, last_synced_at, scheduled_for_deletion,
	created_at, updated_at
`

func scanConnection(scanner interface{ Scan(...any) error }) (*connection.Connection, error) {
	var conn connection.Connection
	var rawPayload, rawInstitution []byte
	var instID, instName, instDomain, instURL sql.NullString
	var lastSyncedAt sql.NullTime

	err := scanner.Scan(
		&conn.ID, &conn.Name, &conn.AccessURL, &conn.Status, &rawPayload,
		&instID, &instName, &instDomain, &instURL,
		&rawInstitution, &lastSyncedAt, &conn.ScheduledForDeletion,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.RawPayload = rawPayload
	conn.RawInstitutionPayload = rawInstitution
	conn.InstitutionID = instID.String
	conn.InstitutionName = instName.String
	conn.InstitutionDomain = instDomain.String
	conn.InstitutionURL = instURL.String
	if lastSyncedAt.Valid {
		conn.LastSyncedAt = &lastSyncedAt.Time
	}

	return &conn, nil
}

// GetByID retrieves a connection by its ID
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, connection.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// ListActive returns connections not scheduled for deletion, newest first
func (r *ConnectionRepository) ListActive(ctx context.Context) ([]*connection.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE scheduled_for_deletion = FALSE
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*connection.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}

	return conns, nil
}

// Update persists the connection's mutable fields in one write
func (r *ConnectionRepository) Update(ctx context.Context, conn *connection.Connection) error {
	query := `
		UPDATE connections
		SET name = $2,
		    status = $3,
		    raw_payload = $4,
		    institution_id = $5,
		    institution_name = $6,
		    institution_domain = $7,
		    institution_url = $8,
		    raw_institution_payload = $9,
		    last_synced_at = $10,
		    updated_at = NOW()
		WHERE id = $1
	`

	var lastSyncedAt sql.NullTime
	if conn.LastSyncedAt != nil {
		lastSyncedAt = sql.NullTime{Time: *conn.LastSyncedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		conn.ID, conn.Name, conn.Status, nullBytes(conn.RawPayload),
		nullString(conn.InstitutionID), nullString(conn.InstitutionName),
		nullString(conn.InstitutionDomain), nullString(conn.InstitutionURL),
		nullBytes(conn.RawInstitutionPayload), lastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return connection.ErrConnectionNotFound
	}

	return nil
}

// MarkForDeletion flips the scheduled-for-deletion flag
func (r *ConnectionRepository) MarkForDeletion(ctx context.Context, id string) error {
	query := `
		UPDATE connections
		SET scheduled_for_deletion = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark connection for deletion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion mark result: %w", err)
	}
	if affected == 0 {
		return connection.ErrConnectionNotFound
	}

	return nil
}

// Delete removes a connection. Linked accounts and sync runs cascade.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
