package connection

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ledgerlink/internal/domain/syncrun"
)

// Staleness reasons
const (
	ReasonConnection    = "connection"
	ReasonDataFreshness = "data freshness"
)

// RateLimitedMessageText is the canned user-facing message shown when the
// latest run tripped the bridge's refresh limit.
const RateLimitedMessageText = "You've hit the provider's daily refresh limit. Please try again after the bridge refreshes (up to 24 hours)."

// AttentionAccountSetup is the fixed attention line for unlinked accounts.
const AttentionAccountSetup = "Accounts need setup"

// AttentionNeedsUpdate is the fixed attention line for a flagged credential.
const AttentionNeedsUpdate = "Connection needs update"

// StaleStatus is the result of the staleness check.
type StaleStatus struct {
	Stale                bool   `json:"stale"`
	Reason               string `json:"reason,omitempty"`
	DaysSinceSync        int    `json:"daysSinceSync,omitempty"`
	DaysSinceTransaction int    `json:"daysSinceTransaction,omitempty"`
	Message              string `json:"message,omitempty"`
}

// StaleSyncStatus classifies whether the connection's data looks stale.
// A connection that has never synced successfully is not stale: that is
// insufficient data, not evidence of failure. The last-sync check
// short-circuits before the transaction-freshness check. Boundaries are
// strict greater-than.
func (s *Service) StaleSyncStatus(ctx context.Context, conn *Connection) StaleStatus {
	if conn.LastSyncedAt == nil {
		return StaleStatus{Stale: false}
	}

	today := s.now()

	daysSinceSync := daysBetween(*conn.LastSyncedAt, today)
	if daysSinceSync > s.thresholds.ConnectionStaleDays {
		return StaleStatus{
			Stale:         true,
			Reason:        ReasonConnection,
			DaysSinceSync: daysSinceSync,
			Message:       fmt.Sprintf("Last successful sync was %d days ago. Your bank connection may need attention.", daysSinceSync),
		}
	}

	resolved, _ := s.resolvedAccounts(ctx, conn)
	if len(resolved) == 0 {
		return StaleStatus{Stale: false}
	}

	ids := make([]string, 0, len(resolved))
	for _, acct := range resolved {
		ids = append(ids, acct.ID)
	}

	latestDate, err := s.entries.LatestTransactionDate(ctx, ids)
	if err != nil {
		log.Printf("Warning: failed to load latest transaction date for connection %s: %v", conn.ID, err)
		return StaleStatus{Stale: false}
	}
	if latestDate == nil {
		return StaleStatus{Stale: false}
	}

	daysSinceTransaction := daysBetween(*latestDate, today)
	if daysSinceTransaction > s.thresholds.TransactionStaleDays {
		return StaleStatus{
			Stale:                true,
			Reason:               ReasonDataFreshness,
			DaysSinceTransaction: daysSinceTransaction,
			Message:              fmt.Sprintf("No new transactions in %d days. Check your provider dashboard to ensure your bank connections are active.", daysSinceTransaction),
		}
	}

	return StaleStatus{Stale: false}
}

// RateLimitedMessage inspects the latest run's error and status text for the
// bridge's rate-limit phrasing. It returns the canned message on a match and
// an empty string otherwise (including when no run exists).
func (s *Service) RateLimitedMessage(ctx context.Context, conn *Connection) string {
	run := s.latestRun(ctx, conn)
	if run == nil {
		return ""
	}

	var parts []string
	if run.Error != "" {
		parts = append(parts, run.Error)
	}
	if run.StatusText != "" {
		parts = append(parts, run.StatusText)
	}
	if len(parts) == 0 {
		return ""
	}

	msg := strings.ToLower(strings.Join(parts, " — "))
	for _, phrase := range s.rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return RateLimitedMessageText
		}
	}
	return ""
}

// NeedsAttention reports whether the connection requires user action:
// a flagged credential, stale data, or accounts still pending setup.
func (s *Service) NeedsAttention(ctx context.Context, conn *Connection) bool {
	return conn.NeedsUpdate() ||
		s.StaleSyncStatus(ctx, conn).Stale ||
		s.pendingAccountSetup(ctx, conn)
}

// AttentionSummary lists each issue requiring attention, in fixed order:
// connection status, staleness, account setup.
func (s *Service) AttentionSummary(ctx context.Context, conn *Connection) []string {
	var issues []string
	if conn.NeedsUpdate() {
		issues = append(issues, AttentionNeedsUpdate)
	}
	if stale := s.StaleSyncStatus(ctx, conn); stale.Stale {
		issues = append(issues, stale.Message)
	}
	if s.pendingAccountSetup(ctx, conn) {
		issues = append(issues, AttentionAccountSetup)
	}
	return issues
}

// SyncStatusSummary renders the one-line account summary for the UI. The
// latest run's stats are authoritative when present; otherwise live counts
// are the fallback. Both paths share the same rendering rule. An empty
// string means there is nothing to report yet.
func (s *Service) SyncStatusSummary(ctx context.Context, conn *Connection) string {
	run := s.latestRun(ctx, conn)
	if run == nil {
		return ""
	}

	if stats := syncrun.ParseStats(run.Stats); stats != nil {
		return renderAccountSummary(
			stats.Int(syncrun.StatTotalAccounts),
			stats.Int(syncrun.StatLinkedAccounts),
			stats.Int(syncrun.StatUnlinkedAccounts),
		)
	}

	// Fallback to current account counts
	total, err := s.linked.CountByConnectionID(ctx, conn.ID)
	if err != nil {
		log.Printf("Warning: failed to count linked accounts for connection %s: %v", conn.ID, err)
		return ""
	}
	resolved, _ := s.resolvedAccounts(ctx, conn)
	linkedCount := len(resolved)
	return renderAccountSummary(total, linkedCount, total-linkedCount)
}

func renderAccountSummary(total, linked, unlinked int) string {
	switch {
	case total == 0:
		return "No accounts found"
	case unlinked == 0:
		return fmt.Sprintf("%d %s synced", linked, pluralize("account", linked))
	default:
		return fmt.Sprintf("%d synced, %d need setup", linked, unlinked)
	}
}

func pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}

func (s *Service) pendingAccountSetup(ctx context.Context, conn *Connection) bool {
	_, linked := s.resolvedAccounts(ctx, conn)
	for _, la := range linked {
		if !la.Linked() {
			return true
		}
	}
	return false
}

// daysBetween counts whole calendar days from one date to another,
// ignoring time of day.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
