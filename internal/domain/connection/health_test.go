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

func TestStaleSyncStatus_NeverSynced(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, nil)

	got := svc.StaleSyncStatus(context.Background(), &Connection{ID: "conn-1"})

	assert.False(t, got.Stale)
}

func TestStaleSyncStatus_ConnectionBoundary(t *testing.T) {
	tests := []struct {
		name       string
		syncedDays int
		wantStale  bool
	}{
		{"synced today", 0, false},
		{"exactly at threshold", 3, false},
		{"one past threshold", 4, true},
		{"long stale", 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, nil, nil, nil, nil)
			conn := &Connection{ID: "conn-1", LastSyncedAt: timePtr(daysAgo(tt.syncedDays))}

			got := svc.StaleSyncStatus(context.Background(), conn)

			assert.Equal(t, tt.wantStale, got.Stale)
			if tt.wantStale {
				assert.Equal(t, ReasonConnection, got.Reason)
				assert.Equal(t, tt.syncedDays, got.DaysSinceSync)
				assert.Contains(t, got.Message, "Last successful sync")
			}
		})
	}
}

func TestStaleSyncStatus_TransactionFreshness(t *testing.T) {
	tests := []struct {
		name     string
		txDays   int
		wantStale bool
	}{
		{"fresh transactions", 1, false},
		{"exactly at threshold", 14, false},
		{"one past threshold", 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linked := &mockLinkedAccountRepo{
				ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
					return []*LinkedAccount{linkedTo("acc-1", "ext-1")}, nil
				},
			}
			accounts := &mockAccountRepo{
				ListByIDsFunc: func(ctx context.Context, ids []string) ([]*account.Account, error) {
					return []*account.Account{{ID: "acc-1", Name: "Checking"}}, nil
				},
			}
			entries := &mockEntryRepo{
				LatestTransactionDateFunc: func(ctx context.Context, accountIDs []string) (*time.Time, error) {
					return timePtr(daysAgo(tt.txDays)), nil
				},
			}

			svc := newTestService(nil, linked, accounts, entries, nil)
			conn := &Connection{ID: "conn-1", LastSyncedAt: timePtr(daysAgo(1))}

			got := svc.StaleSyncStatus(context.Background(), conn)

			assert.Equal(t, tt.wantStale, got.Stale)
			if tt.wantStale {
				assert.Equal(t, ReasonDataFreshness, got.Reason)
				assert.Equal(t, tt.txDays, got.DaysSinceTransaction)
				assert.Contains(t, got.Message, "No new transactions")
			}
		})
	}
}

func TestStaleSyncStatus_ConnectionCheckShortCircuits(t *testing.T) {
	// Both checks would trip. The connection check reports first.
	linked := &mockLinkedAccountRepo{
		ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
			return []*LinkedAccount{linkedTo("acc-1", "ext-1")}, nil
		},
	}
	entries := &mockEntryRepo{
		LatestTransactionDateFunc: func(ctx context.Context, accountIDs []string) (*time.Time, error) {
			t.Fatal("transaction check should not run after connection check trips")
			return nil, nil
		},
	}

	svc := newTestService(nil, linked, nil, entries, nil)
	conn := &Connection{ID: "conn-1", LastSyncedAt: timePtr(daysAgo(10))}

	got := svc.StaleSyncStatus(context.Background(), conn)

	assert.True(t, got.Stale)
	assert.Equal(t, ReasonConnection, got.Reason)
}

func TestStaleSyncStatus_NoLinkedAccounts(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, nil)
	conn := &Connection{ID: "conn-1", LastSyncedAt: timePtr(daysAgo(1))}

	got := svc.StaleSyncStatus(context.Background(), conn)

	assert.False(t, got.Stale)
}

func TestStaleSyncStatus_EntryLookupFailureDegrades(t *testing.T) {
	linked := &mockLinkedAccountRepo{
		ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
			return []*LinkedAccount{linkedTo("acc-1", "ext-1")}, nil
		},
	}
	accounts := &mockAccountRepo{
		ListByIDsFunc: func(ctx context.Context, ids []string) ([]*account.Account, error) {
			return []*account.Account{{ID: "acc-1"}}, nil
		},
	}
	entries := &mockEntryRepo{
		LatestTransactionDateFunc: func(ctx context.Context, accountIDs []string) (*time.Time, error) {
			return nil, errors.New("db down")
		},
	}

	svc := newTestService(nil, linked, accounts, entries, nil)
	conn := &Connection{ID: "conn-1", LastSyncedAt: timePtr(daysAgo(1))}

	got := svc.StaleSyncStatus(context.Background(), conn)

	assert.False(t, got.Stale)
}

func TestRateLimitedMessage(t *testing.T) {
	tests := []struct {
		name       string
		run        *syncrun.Run
		wantLimited bool
	}{
		{"no run", nil, false},
		{"no error text", &syncrun.Run{ID: "r1"}, false},
		{
			"make fewer requests in error",
			&syncrun.Run{ID: "r1", Error: "Please MAKE FEWER REQUESTS to the server"},
			true,
		},
		{
			"daily refresh phrase in status text",
			&syncrun.Run{ID: "r1", StatusText: "Data is only refreshed once every 24 hours"},
			true,
		},
		{
			"rate limit across joined error and status",
			&syncrun.Run{ID: "r1", Error: "upstream said: rate", StatusText: "limit exceeded"},
			false,
		},
		{
			"generic failure is not a rate limit",
			&syncrun.Run{ID: "r1", Error: "connection refused"},
			false,
		},
		{
			"rate limit phrase",
			&syncrun.Run{ID: "r1", Error: "bridge rate limit hit"},
			true,
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

			got := svc.RateLimitedMessage(context.Background(), &Connection{ID: "conn-1"})

			if tt.wantLimited {
				assert.Equal(t, RateLimitedMessageText, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestNeedsAttention(t *testing.T) {
	t.Run("needs update status", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil, nil)
		conn := &Connection{ID: "conn-1", Status: StatusNeedsUpdate}

		assert.True(t, svc.NeedsAttention(context.Background(), conn))
	})

	t.Run("healthy connection", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil, nil)
		conn := &Connection{ID: "conn-1", Status: StatusActive, LastSyncedAt: timePtr(daysAgo(1))}

		assert.False(t, svc.NeedsAttention(context.Background(), conn))
	})

	t.Run("unlinked accounts pending setup", func(t *testing.T) {
		linked := &mockLinkedAccountRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
				return []*LinkedAccount{{ID: "la-1", ExternalID: "ext-1"}}, nil
			},
		}
		svc := newTestService(nil, linked, nil, nil, nil)
		conn := &Connection{ID: "conn-1", Status: StatusActive, LastSyncedAt: timePtr(daysAgo(1))}

		assert.True(t, svc.NeedsAttention(context.Background(), conn))
	})
}

func TestAttentionSummaryOrder(t *testing.T) {
	// Flagged credential, stale sync, and an unlinked account all at once.
	linked := &mockLinkedAccountRepo{
		ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
			return []*LinkedAccount{{ID: "la-1", ExternalID: "ext-1"}}, nil
		},
	}
	svc := newTestService(nil, linked, nil, nil, nil)
	conn := &Connection{ID: "conn-1", Status: StatusNeedsUpdate, LastSyncedAt: timePtr(daysAgo(10))}

	got := svc.AttentionSummary(context.Background(), conn)

	assert.Len(t, got, 3)
	assert.Equal(t, AttentionNeedsUpdate, got[0])
	assert.Contains(t, got[1], "Last successful sync was 10 days ago")
	assert.Equal(t, AttentionAccountSetup, got[2])
}

func TestSyncStatusSummary(t *testing.T) {
	t.Run("no runs yet", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil, nil)

		got := svc.SyncStatusSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Empty(t, got)
	})

	t.Run("stats with all accounts linked", func(t *testing.T) {
		runs := &mockRunRepo{
			LatestByConnectionIDFunc: func(ctx context.Context, connectionID string) (*syncrun.Run, error) {
				return &syncrun.Run{ID: "r1", Stats: map[string]any{
					syncrun.StatTotalAccounts:    3,
					syncrun.StatLinkedAccounts:   3,
					syncrun.StatUnlinkedAccounts: 0,
				}}, nil
			},
		}
		svc := newTestService(nil, nil, nil, nil, runs)

		got := svc.SyncStatusSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "3 accounts synced", got)
	})

	t.Run("stats singular", func(t *testing.T) {
		runs := &mockRunRepo{
			LatestByConnectionIDFunc: func(ctx context.Context, connectionID string) (*syncrun.Run, error) {
				return &syncrun.Run{ID: "r1", Stats: map[string]any{
					syncrun.StatTotalAccounts:    1,
					syncrun.StatLinkedAccounts:   1,
					syncrun.StatUnlinkedAccounts: 0,
				}}, nil
			},
		}
		svc := newTestService(nil, nil, nil, nil, runs)

		got := svc.SyncStatusSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "1 account synced", got)
	})

	t.Run("stats with unlinked accounts", func(t *testing.T) {
		runs := &mockRunRepo{
			LatestByConnectionIDFunc: func(ctx context.Context, connectionID string) (*syncrun.Run, error) {
				return &syncrun.Run{ID: "r1", Stats: map[string]any{
					syncrun.StatTotalAccounts:    5,
					syncrun.StatLinkedAccounts:   3,
					syncrun.StatUnlinkedAccounts: 2,
				}}, nil
			},
		}
		svc := newTestService(nil, nil, nil, nil, runs)

		got := svc.SyncStatusSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "3 synced, 2 need setup", got)
	})

	t.Run("stats with zero accounts", func(t *testing.T) {
		runs := &mockRunRepo{
			LatestByConnectionIDFunc: func(ctx context.Context, connectionID string) (*syncrun.Run, error) {
				return &syncrun.Run{ID: "r1", Stats: map[string]any{
					syncrun.StatTotalAccounts:    0,
					syncrun.StatLinkedAccounts:   0,
					syncrun.StatUnlinkedAccounts: 0,
				}}, nil
			},
		}
		svc := newTestService(nil, nil, nil, nil, runs)

		got := svc.SyncStatusSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "No accounts found", got)
	})

	t.Run("malformed stats fall back to live counts", func(t *testing.T) {
		runs := &mockRunRepo{
			LatestByConnectionIDFunc: func(ctx context.Context, connectionID string) (*syncrun.Run, error) {
				return &syncrun.Run{ID: "r1", Stats: "{{not json"}, nil
			},
		}
		linked := &mockLinkedAccountRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
				return []*LinkedAccount{linkedTo("acc-1", "ext-1"), {ID: "la-2", ExternalID: "ext-2"}}, nil
			},
			CountByConnectionIDFunc: func(ctx context.Context, connectionID string) (int, error) {
				return 2, nil
			},
		}
		accounts := &mockAccountRepo{
			ListByIDsFunc: func(ctx context.Context, ids []string) ([]*account.Account, error) {
				return []*account.Account{{ID: "acc-1"}}, nil
			},
		}
		svc := newTestService(nil, linked, accounts, nil, runs)

		got := svc.SyncStatusSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "1 synced, 1 need setup", got)
	})
}

func TestInstitutionSummary(t *testing.T) {
	orgA := map[string]any{"name": "Bank A", "domain": "a.com"}
	orgB := map[string]any{"name": "Bank B", "domain": "b.com"}

	withOrg := func(la *LinkedAccount, org map[string]any) *LinkedAccount {
		la.OrgData = org
		la.Institution = ResolveInstitution(org)
		return la
	}

	t.Run("no institutions", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil, nil)

		got := svc.InstitutionSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "No institutions connected", got)
	})

	t.Run("single institution by name", func(t *testing.T) {
		linked := &mockLinkedAccountRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
				return []*LinkedAccount{
					withOrg(linkedTo("acc-1", "ext-1"), orgA),
					withOrg(linkedTo("acc-2", "ext-2"), orgA),
				}, nil
			},
		}
		svc := newTestService(nil, linked, nil, nil, nil)

		got := svc.InstitutionSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "Bank A", got)
	})

	t.Run("multiple institutions counted", func(t *testing.T) {
		linked := &mockLinkedAccountRepo{
			ListByConnectionIDFunc: func(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
				return []*LinkedAccount{
					withOrg(linkedTo("acc-1", "ext-1"), orgA),
					withOrg(linkedTo("acc-2", "ext-2"), orgB),
				}, nil
			},
		}
		svc := newTestService(nil, linked, nil, nil, nil)

		got := svc.InstitutionSummary(context.Background(), &Connection{ID: "conn-1"})

		assert.Equal(t, "2 institutions", got)
	})
}
