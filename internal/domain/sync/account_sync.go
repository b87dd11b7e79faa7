package sync

import (
	"context"
	"fmt"
	"log"

	"ledgerlink/internal/domain/account"
	"ledgerlink/internal/domain/entry"
	aiclient "ledgerlink/internal/provider/ai"
)

// How many uncategorized entries one account sync picks up. Matches the AI
// provider's batch limit so a single request covers the whole page.
const categorizeBatchSize = 25

// AccountSyncService executes the per-account work a connection sync fans
// out: enrich the account's newest entries with categories. Runs after the
// parent pipeline has completed; failures here never affect the parent run.
type AccountSyncService struct {
	accounts account.Repository
	entries  entry.Repository
	ai       aiclient.ClientInterface
}

// NewAccountSyncService creates a new per-account sync service
func NewAccountSyncService(accounts account.Repository, entries entry.Repository, ai aiclient.ClientInterface) *AccountSyncService {
	return &AccountSyncService{accounts: accounts, entries: entries, ai: ai}
}

var _ AccountSyncer = (*AccountSyncService)(nil)

// SyncAccount enriches one account's uncategorized entries. A nil AI client
// turns this into a no-op so the pipeline works without a provider key.
func (s *AccountSyncService) SyncAccount(ctx context.Context, req AccountSyncRequest) error {
	acct, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", req.AccountID, err)
	}

	if s.ai == nil {
		return nil
	}

	entries, err := s.entries.ListUncategorized(ctx, acct.ID, categorizeBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list uncategorized entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	items := make([]aiclient.Item, 0, len(entries))
	byRef := make(map[string]*entry.Entry, len(entries))
	for _, e := range entries {
		items = append(items, aiclient.Item{
			Ref:         e.ID,
			Description: e.Name,
			Amount:      e.Amount.String(),
		})
		byRef[e.ID] = e
	}

	categorizations, err := s.ai.Categorize(ctx, items)
	if err != nil {
		return fmt.Errorf("failed to categorize entries for account %s: %w", acct.ID, err)
	}

	applied := 0
	for _, c := range categorizations {
		if c.Category == "" {
			continue
		}
		if _, ok := byRef[c.Ref]; !ok {
			log.Printf("Warning: categorization for unknown entry %s ignored", c.Ref)
			continue
		}
		if err := s.entries.UpdateCategory(ctx, c.Ref, c.Category); err != nil {
			log.Printf("Warning: failed to store category for entry %s: %v", c.Ref, err)
			continue
		}
		applied++
	}

	log.Printf("Account sync for %s: categorized %d/%d entries", acct.ID, applied, len(entries))
	return nil
}
