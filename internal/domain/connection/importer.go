package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/syncrun"
	"ledgerlink/internal/infrastructure/bridge"
)

// ErrNoSnapshot indicates the caller invoked an import without a snapshot.
// This is a caller-contract violation, not a retriable condition.
var ErrNoSnapshot = errors.New("no accounts snapshot provided")

// Importer ingests a full accounts snapshot for a connection: it stores the
// raw payload for audit/replay, upserts the bridge-reported accounts, and
// records run statistics. Running an import twice with identical input is a
// no-op beyond the writes.
type Importer struct {
	connections Repository
	linked      LinkedAccountRepository
	runs        syncrun.Repository
}

// NewImporter creates a new snapshot importer
func NewImporter(connections Repository, linked LinkedAccountRepository, runs syncrun.Repository) *Importer {
	return &Importer{
		connections: connections,
		linked:      linked,
		runs:        runs,
	}
}

// ApplyInstitutionData resolves the organization data and assigns the
// normalized institution fields onto the connection. It does not save; the
// caller controls the transaction boundary so institution fields land in the
// same write as the rest of the run's mutations.
func (im *Importer) ApplyInstitutionData(conn *Connection, org map[string]any) {
	inst := ResolveInstitution(org)

	conn.InstitutionID = inst.ID
	conn.InstitutionName = inst.Name
	conn.InstitutionDomain = inst.Domain
	conn.InstitutionURL = inst.URL

	if raw, err := json.Marshal(org); err == nil {
		conn.RawInstitutionPayload = raw
	} else {
		log.Printf("Warning: failed to encode institution payload for connection %s: %v", conn.ID, err)
	}
}

// ImportSnapshot stores the raw snapshot verbatim on the connection, upserts
// every bridge-reported account with its own resolved institution data, and
// records account statistics against the sync run. run may be nil for ad-hoc
// imports outside a sync pipeline.
func (im *Importer) ImportSnapshot(ctx context.Context, conn *Connection, snapshot *bridge.Snapshot, run *syncrun.Run) error {
	if snapshot == nil {
		return ErrNoSnapshot
	}

	conn.RawPayload = snapshot.Raw

	total := 0
	linkedCount := 0
	for i := range snapshot.Accounts {
		acct := &snapshot.Accounts[i]

		balance, err := acct.GetBalance()
		if err != nil {
			// One malformed balance must not abort the import.
			log.Printf("Warning: connection %s: unparsable balance for account %s: %v", conn.ID, acct.ID, err)
			balance = decimal.Zero
		}

		rawAccount, _ := json.Marshal(acct)
		la, err := im.linked.Upsert(ctx, UpsertLinkedAccountParams{
			ConnectionID:   conn.ID,
			ExternalID:     acct.ID,
			Name:           acct.Name,
			Currency:       acct.Currency,
			CurrentBalance: balance,
			OrgData:        acct.Org,
			Institution:    ResolveInstitution(acct.Org),
			RawPayload:     rawAccount,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert linked account %s: %w", acct.ID, err)
		}

		total++
		if la.Linked() {
			linkedCount++
		}
	}

	if err := im.connections.Update(ctx, conn); err != nil {
		return fmt.Errorf("failed to persist snapshot on connection %s: %w", conn.ID, err)
	}

	if run != nil {
		stats := syncrun.Stats{
			syncrun.StatTotalAccounts:    total,
			syncrun.StatLinkedAccounts:   linkedCount,
			syncrun.StatUnlinkedAccounts: total - linkedCount,
		}
		if err := im.runs.UpdateStats(ctx, run.ID, stats); err != nil {
			// Stats are a reporting aid; consumers fall back to live counts.
			log.Printf("Warning: failed to record stats for run %s: %v", run.ID, err)
		} else {
			run.Stats = stats
		}
	}

	log.Printf("Connection %s: imported snapshot with %d accounts (%d linked, %d unlinked)",
		conn.ID, total, linkedCount, total-linkedCount)

	return nil
}
