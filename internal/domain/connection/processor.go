package connection

import (
	"context"
	"fmt"
	"log"

	"ledgerlink/internal/domain/account"
)

// Processor normalizes one linked account after an import: it resolves the
// authoritative local account (new-style wins over a migrated legacy one)
// and refreshes that account from the bridge-reported state.
type Processor struct {
	accounts account.Repository
}

// NewProcessor creates a new linked account processor
func NewProcessor(accounts account.Repository) *Processor {
	return &Processor{accounts: accounts}
}

// Process refreshes the local account a linked account resolves to.
// Unlinked accounts are skipped; they have nothing to normalize yet.
func (p *Processor) Process(ctx context.Context, la *LinkedAccount) error {
	accountID, ok := la.CurrentAccountID()
	if !ok {
		return nil
	}

	params := account.UpdateParams{
		Balance: &la.CurrentBalance,
	}
	if la.Name != "" {
		params.Name = &la.Name
	}

	if _, err := p.accounts.Update(ctx, accountID, params); err != nil {
		return fmt.Errorf("failed to refresh account %s from linked account %s: %w", accountID, la.ID, err)
	}

	log.Printf("Processed linked account %s -> account %s (balance %s)", la.ID, accountID, la.CurrentBalance)
	return nil
}
