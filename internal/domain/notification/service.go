package notification

import (
	"context"
	"fmt"
	"log"

	"ledgerlink/internal/domain/connection"
)

// Service sends sync-related push notifications. It is a best-effort
// collaborator: callers invoke it through the completion event's
// run-and-report wrapper and never depend on its success.
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for push delivery
func (s *Service) RegisterDevice(ctx context.Context, token, platform string) (*DeviceToken, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	return s.repo.UpsertDeviceToken(ctx, token, platform)
}

// SyncCompleted pushes a "sync finished" notification for a connection.
// Registered as a sync completion listener.
func (s *Service) SyncCompleted(ctx context.Context, conn *connection.Connection) error {
	tokens, err := s.repo.ListActiveTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to list device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	title := fmt.Sprintf("%s synced", conn.InstitutionDisplayName())
	body := "Your accounts are up to date."
	data := map[string]string{
		"type":         "sync_complete",
		"connectionId": conn.ID,
	}

	if err := s.messenger.SendMulticast(ctx, tokens, title, body, data); err != nil {
		return fmt.Errorf("failed to push sync notification: %w", err)
	}

	log.Printf("Pushed sync-complete notification for connection %s to %d devices", conn.ID, len(tokens))
	return nil
}
