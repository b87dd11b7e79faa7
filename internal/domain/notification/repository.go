package notification

import "context"

// Repository defines data access for device tokens.
type Repository interface {
	// UpsertDeviceToken registers a token, reactivating it if it was
	// previously deactivated.
	UpsertDeviceToken(ctx context.Context, token, platform string) (*DeviceToken, error)

	// DeactivateToken marks a token inactive (invalid/unregistered on FCM).
	DeactivateToken(ctx context.Context, token string) error

	// ListActiveTokens returns all active push targets.
	ListActiveTokens(ctx context.Context) ([]string, error)
}
