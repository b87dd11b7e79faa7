package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledgerlink/internal/domain/account"
	"ledgerlink/internal/domain/syncrun"
)

func TestLastSyncReconciledStatus(t *testing.T) {
	tests := []struct {
		name        string
		run         *syncrun.Run
		wantCount   int
		wantMessage string
	}{
		{"no run", nil, 0, ""},
		{"run without stats", &syncrun.Run{ID: "r1"}, 0, ""},
		{
			"zero reconciled",
			&syncrun.Run{ID: "r1", Stats: map[string]any{syncrun.StatPendingReconciled: 0}},
			0, "",
		},
		{
			"singular",
			&syncrun.Run{ID: "r1", Stats: map[string]any{syncrun.StatPendingReconciled: 1}},
			1, "1 duplicate pending transaction was reconciled automatically during the last sync",
		},
		{
			"plural",
			&syncrun.Run{ID: "r1", Stats: map[string]any{syncrun.StatPendingReconciled: 4}},
			4, "4 duplicate pending transactions were reconciled automatically during the last sync",
		},
		{
			"stats stored as json string",
			&syncrun.Run{ID: "r1", Stats: `{"pending_reconciled": 2}`},
			2, "2 duplicate pending transactions were reconciled automatically during the last sync",
		},
		{
			"malformed stats degrade to zero",
			&syncrun.Run{ID: "r1", Stats: "{{broken"},
			0, "",
		},
		{
			"negative count treated as zero",
			&syncrun.Run{ID: "r1", Stats: map[string]any{syncrun.StatPendingReconciled: -3}},
			0, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &mockRunRepo{
				LatestByConnectionIDFunc: func(ctx context.Context, connectionID string) (*syncrun.Run, error) {
					return tt.run, nil
				},
			}
			svc := newTestService(nil, nil, nil, nil, runs)

			got := svc.LastSyncReconciledStatus(context.Background(), &Connection{ID: "conn-1"})

			assert.Equal(t, tt.wantCount, got.Count)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

func TestStalePending(t *testing.T) {
	linked := &mockLinkedAccountRepo{
		ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
			return []*LinkedAccount{
				linkedTo("acc-1", "ext-1"),
				linkedTo("acc-2", "ext-2"),
				{ID: "la-3", ExternalID: "ext-3"}, // unlinked, must not be counted
			}, nil
		},
	}
	accounts := &mockAccountRepo{
		ListByIDsFunc: func(ctx context.Context, ids []string) ([]*account.Account, error) {
			assert.ElementsMatch(t, []string{"acc-1", "acc-2"}, ids)
			return []*account.Account{
				{ID: "acc-1", Name: "Savings"},
				{ID: "acc-2", Name: "Checking"},
			}, nil
		},
	}

	t.Run("counts grouped by account", func(t *testing.T) {
		var gotCutoff time.Time
		entries := &mockEntryRepo{
			CountStalePendingByAccountFunc: func(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error) {
				gotCutoff = cutoff
				return map[string]int{"acc-1": 2, "acc-2": 1}, nil
			},
		}
		svc := newTestService(nil, linked, accounts, entries, nil)

		got := svc.StalePending(context.Background(), &Connection{ID: "conn-1"}, 0)

		assert.Equal(t, 3, got.Count)
		assert.Equal(t, []string{"Checking", "Savings"}, got.Accounts)
		assert.Equal(t, "3 pending transactions have been unsettled for more than 8 days", got.Message)
		assert.Equal(t, testNow.AddDate(0, 0, -8), gotCutoff)
	})

	t.Run("singular message and custom days", func(t *testing.T) {
		entries := &mockEntryRepo{
			CountStalePendingByAccountFunc: func(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error) {
				return map[string]int{"acc-2": 1}, nil
			},
		}
		svc := newTestService(nil, linked, accounts, entries, nil)

		got := svc.StalePending(context.Background(), &Connection{ID: "conn-1"}, 30)

		assert.Equal(t, 1, got.Count)
		assert.Equal(t, []string{"Checking"}, got.Accounts)
		assert.Equal(t, "1 pending transaction has been unsettled for more than 30 days", got.Message)
	})

	t.Run("no stale entries", func(t *testing.T) {
		svc := newTestService(nil, linked, accounts, &mockEntryRepo{}, nil)

		got := svc.StalePending(context.Background(), &Connection{ID: "conn-1"}, 0)

		assert.Zero(t, got.Count)
		assert.Empty(t, got.Accounts)
		assert.Empty(t, got.Message)
	})

	t.Run("no linked accounts", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil, nil)

		got := svc.StalePending(context.Background(), &Connection{ID: "conn-1"}, 0)

		assert.Zero(t, got.Count)
	})

	t.Run("query failure degrades to zero", func(t *testing.T) {
		entries := &mockEntryRepo{
			CountStalePendingByAccountFunc: func(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error) {
				return nil, errors.New("db down")
			},
		}
		svc := newTestService(nil, linked, accounts, entries, nil)

		got := svc.StalePending(context.Background(), &Connection{ID: "conn-1"}, 0)

		assert.Zero(t, got.Count)
	})
}
