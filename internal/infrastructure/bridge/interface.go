package bridge

import (
	"context"
	"time"
)

// ClientInterface defines the methods required from the aggregation bridge client
type ClientInterface interface {
	// GetSnapshot fetches the full accounts snapshot behind an access URL.
	// startDate and endDate bound the transaction window; either may be nil.
	GetSnapshot(ctx context.Context, accessURL string, startDate, endDate *time.Time) (*Snapshot, error)
}
