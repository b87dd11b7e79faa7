package connection

import (
	"context"
	"fmt"
	"log"
	"time"

	"ledgerlink/internal/domain/account"
	"ledgerlink/internal/domain/entry"
	"ledgerlink/internal/domain/syncrun"
)

// Thresholds are the health classifier's day thresholds. The three values
// are independent knobs; they are not derived from each other.
type Thresholds struct {
	// ConnectionStaleDays is how long after the last successful sync a
	// connection is considered stale (strict greater-than).
	ConnectionStaleDays int
	// TransactionStaleDays is how long without a new transaction the data is
	// considered stale (strict greater-than).
	TransactionStaleDays int
	// PendingStaleDays is the default age past which a pending entry counts
	// as stale.
	PendingStaleDays int
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConnectionStaleDays:  3,
		TransactionStaleDays: 14,
		PendingStaleDays:     8,
	}
}

// DefaultRateLimitPhrases are the substrings that identify a rate-limited
// run in the bridge's error or status text.
var DefaultRateLimitPhrases = []string{
	"make fewer requests",
	"only refreshed once every 24 hours",
	"rate limit",
}

// ServiceConfig carries the health classifier's tunables. Zero values fall
// back to the defaults.
type ServiceConfig struct {
	Thresholds       Thresholds
	RateLimitPhrases []string
	Now              func() time.Time
}

// Service computes user-facing connection status: sync summaries, staleness,
// rate-limit detection, reconciliation counts. All state is derived from
// current data plus wall-clock "today"; nothing is stored. Status queries
// degrade to "no data" shapes on malformed or missing inputs instead of
// failing, so the UI always has something to render.
type Service struct {
	connections Repository
	linked      LinkedAccountRepository
	accounts    account.Repository
	entries     entry.Repository
	runs        syncrun.Repository

	thresholds       Thresholds
	rateLimitPhrases []string
	now              func() time.Time
}

// NewService creates a new connection status service
func NewService(
	connections Repository,
	linked LinkedAccountRepository,
	accounts account.Repository,
	entries entry.Repository,
	runs syncrun.Repository,
	cfg ServiceConfig,
) *Service {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if len(cfg.RateLimitPhrases) == 0 {
		cfg.RateLimitPhrases = DefaultRateLimitPhrases
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		connections:      connections,
		linked:           linked,
		accounts:         accounts,
		entries:          entries,
		runs:             runs,
		thresholds:       cfg.Thresholds,
		rateLimitPhrases: cfg.RateLimitPhrases,
		now:              cfg.Now,
	}
}

// GetConnection loads a connection by id.
func (s *Service) GetConnection(ctx context.Context, id string) (*Connection, error) {
	conn, err := s.connections.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %s: %w", id, err)
	}
	return conn, nil
}

// DestroyLater soft-deletes a connection by flipping its deletion flag.
// Hard removal is deferred to an asynchronous destroy job; in-flight sync
// pipelines observe the flag and stop scheduling account work.
func (s *Service) DestroyLater(ctx context.Context, id string) error {
	if err := s.connections.MarkForDeletion(ctx, id); err != nil {
		return fmt.Errorf("failed to schedule connection %s for deletion: %w", id, err)
	}
	log.Printf("Connection %s scheduled for deletion", id)
	return nil
}

// HasCompletedInitialSetup reports whether any bridge-reported account has
// been linked to a local account.
func (s *Service) HasCompletedInitialSetup(ctx context.Context, conn *Connection) bool {
	resolved, _ := s.resolvedAccounts(ctx, conn)
	return len(resolved) > 0
}

// ConnectedInstitutions returns the unique institutions across the
// connection's linked accounts, deduplicated by domain (falling back to
// name). Accounts without organization data are skipped.
func (s *Service) ConnectedInstitutions(ctx context.Context, conn *Connection) []Institution {
	linked, err := s.linked.ListByConnectionID(ctx, conn.ID)
	if err != nil {
		log.Printf("Warning: failed to list linked accounts for connection %s: %v", conn.ID, err)
		return nil
	}

	seen := make(map[string]struct{})
	var institutions []Institution
	for _, la := range linked {
		if len(la.OrgData) == 0 {
			continue
		}
		inst := la.Institution
		key := inst.Domain
		if key == "" {
			key = inst.Name
		}
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		institutions = append(institutions, inst)
	}
	return institutions
}

// InstitutionSummary renders a one-line description of the institutions
// behind this connection.
func (s *Service) InstitutionSummary(ctx context.Context, conn *Connection) string {
	institutions := s.ConnectedInstitutions(ctx, conn)
	switch len(institutions) {
	case 0:
		return "No institutions connected"
	case 1:
		if institutions[0].Name != "" {
			return institutions[0].Name
		}
		if institutions[0].Domain != "" {
			return institutions[0].Domain
		}
		return "1 institution"
	default:
		return fmt.Sprintf("%d institutions", len(institutions))
	}
}

// latestRun fetches the most recent sync run, degrading to nil on error.
func (s *Service) latestRun(ctx context.Context, conn *Connection) *syncrun.Run {
	run, err := s.runs.LatestByConnectionID(ctx, conn.ID)
	if err != nil {
		log.Printf("Warning: failed to load latest sync run for connection %s: %v", conn.ID, err)
		return nil
	}
	return run
}

// resolvedAccounts returns the local accounts the connection's linked
// accounts resolve to, along with all linked accounts. Unlinked accounts are
// excluded from the first slice. Errors degrade to empty results; status
// computations must always produce an answer.
func (s *Service) resolvedAccounts(ctx context.Context, conn *Connection) ([]*account.Account, []*LinkedAccount) {
	linked, err := s.linked.ListByConnectionID(ctx, conn.ID)
	if err != nil {
		log.Printf("Warning: failed to list linked accounts for connection %s: %v", conn.ID, err)
		return nil, nil
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, la := range linked {
		if id, ok := la.CurrentAccountID(); ok {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, linked
	}

	accounts, err := s.accounts.ListByIDs(ctx, ids)
	if err != nil {
		log.Printf("Warning: failed to load accounts for connection %s: %v", conn.ID, err)
		return nil, linked
	}
	return accounts, linked
}
