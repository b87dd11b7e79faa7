package connection

import (
	"context"
	"fmt"
	"log"
	"sort"

	"ledgerlink/internal/domain/syncrun"
)

// ReconciledStatus reports how many pending entries the dedup pass merged
// into their posted counterparts during the last sync.
type ReconciledStatus struct {
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// StalePendingStatus reports pending entries that have sat unsettled past
// the threshold age, with the names of the affected accounts.
type StalePendingStatus struct {
	Count    int      `json:"count"`
	Accounts []string `json:"accounts,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// LastSyncReconciledStatus reads the reconciled-duplicate count from the
// latest run's stats. The engine only reports the count; the entry-level
// merge is done by a separate dedup pass during the run. Absent or malformed
// stats yield a zero count with no message.
func (s *Service) LastSyncReconciledStatus(ctx context.Context, conn *Connection) ReconciledStatus {
	run := s.latestRun(ctx, conn)
	if run == nil {
		return ReconciledStatus{Count: 0}
	}

	stats := syncrun.ParseStats(run.Stats)
	count := stats.Int(syncrun.StatPendingReconciled)
	if count <= 0 {
		return ReconciledStatus{Count: 0}
	}

	return ReconciledStatus{
		Count: count,
		Message: fmt.Sprintf("%d duplicate pending %s reconciled automatically during the last sync",
			count, pluralizeVerb("transaction was", "transactions were", count)),
	}
}

// StalePending counts pending, non-excluded entries older than the given
// number of days across all linked accounts that resolve to a local account,
// in one batched query. days <= 0 falls back to the configured default.
// The per-account breakdown always sums to the total because both come from
// the same query pass.
func (s *Service) StalePending(ctx context.Context, conn *Connection, days int) StalePendingStatus {
	if days <= 0 {
		days = s.thresholds.PendingStaleDays
	}

	resolved, _ := s.resolvedAccounts(ctx, conn)
	if len(resolved) == 0 {
		return StalePendingStatus{Count: 0}
	}

	ids := make([]string, 0, len(resolved))
	for _, acct := range resolved {
		ids = append(ids, acct.ID)
	}

	cutoff := s.now().AddDate(0, 0, -days)
	countsByAccount, err := s.entries.CountStalePendingByAccount(ctx, ids, cutoff)
	if err != nil {
		log.Printf("Warning: failed to count stale pending entries for connection %s: %v", conn.ID, err)
		return StalePendingStatus{Count: 0}
	}

	total := 0
	var names []string
	for _, acct := range resolved {
		if n := countsByAccount[acct.ID]; n > 0 {
			total += n
			names = append(names, acct.Name)
		}
	}
	if total == 0 {
		return StalePendingStatus{Count: 0}
	}

	sort.Strings(names)
	return StalePendingStatus{
		Count:    total,
		Accounts: names,
		Message: fmt.Sprintf("%d pending %s been unsettled for more than %d days",
			total, pluralizeVerb("transaction has", "transactions have", total), days),
	}
}

func pluralizeVerb(singular, plural string, count int) string {
	if count == 1 {
		return singular
	}
	return plural
}
