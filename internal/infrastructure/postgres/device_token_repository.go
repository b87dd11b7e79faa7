package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ledgerlink/internal/domain/notification"
)

// DeviceTokenRepository implements notification.Repository using PostgreSQL.
type DeviceTokenRepository struct {
	db *DB
}

// NewDeviceTokenRepository creates a new PostgreSQL device token repository
func NewDeviceTokenRepository(db *DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

var _ notification.Repository = (*DeviceTokenRepository)(nil)

func (r *DeviceTokenRepository) UpsertDeviceToken(ctx context.Context, token, platform string) (*notification.DeviceToken, error) {
	query := `
		INSERT INTO device_tokens (id, token, platform, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (token) DO UPDATE SET
			platform = EXCLUDED.platform,
			active = TRUE,
			updated_at = NOW()
		RETURNING token, platform, active, created_at, updated_at`

	var dt notification.DeviceToken
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), token, platform).Scan(
		&dt.Token, &dt.Platform, &dt.Active, &dt.CreatedAt, &dt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}
	return &dt, nil
}

func (r *DeviceTokenRepository) DeactivateToken(ctx context.Context, token string) error {
	query := `UPDATE device_tokens SET active = FALSE, updated_at = NOW() WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}
	return nil
}

func (r *DeviceTokenRepository) ListActiveTokens(ctx context.Context) ([]string, error) {
	query := `SELECT token FROM device_tokens WHERE active = TRUE ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
