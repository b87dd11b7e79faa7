package ai

import "context"

// ClientInterface defines the AI provider operations used by domain
// services. Allows mocking in tests.
type ClientInterface interface {
	Categorize(ctx context.Context, items []Item) ([]Categorization, error)
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)
