package connection

import (
	"context"
	"time"

	"ledgerlink/internal/domain/account"
	"ledgerlink/internal/domain/entry"
	"ledgerlink/internal/domain/syncrun"
)

// Hand-written mocks with function fields for test customization.

type mockConnectionRepo struct {
	GetByIDFunc         func(ctx context.Context, id string) (*Connection, error)
	ListActiveFunc      func(ctx context.Context) ([]*Connection, error)
	UpdateFunc          func(ctx context.Context, conn *Connection) error
	MarkForDeletionFunc func(ctx context.Context, id string) error
	DeleteFunc          func(ctx context.Context, id string) error
}

func (m *mockConnectionRepo) GetByID(ctx context.Context, id string) (*Connection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrConnectionNotFound
}

func (m *mockConnectionRepo) ListActive(ctx context.Context) ([]*Connection, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockConnectionRepo) Update(ctx context.Context, conn *Connection) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, conn)
	}
	return nil
}

func (m *mockConnectionRepo) MarkForDeletion(ctx context.Context, id string) error {
	if m.MarkForDeletionFunc != nil {
		return m.MarkForDeletionFunc(ctx, id)
	}
	return nil
}

func (m *mockConnectionRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockLinkedAccountRepo struct {
	ListByConnectionIDFunc  func(ctx context.Context, connectionID string) ([]*LinkedAccount, error)
	UpsertFunc              func(ctx context.Context, params UpsertLinkedAccountParams) (*LinkedAccount, error)
	CountByConnectionIDFunc func(ctx context.Context, connectionID string) (int, error)
}

func (m *mockLinkedAccountRepo) ListByConnectionID(ctx context.Context, connectionID string) ([]*LinkedAccount, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

func (m *mockLinkedAccountRepo) Upsert(ctx context.Context, params UpsertLinkedAccountParams) (*LinkedAccount, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return &LinkedAccount{ConnectionID: params.ConnectionID, ExternalID: params.ExternalID}, nil
}

func (m *mockLinkedAccountRepo) CountByConnectionID(ctx context.Context, connectionID string) (int, error) {
	if m.CountByConnectionIDFunc != nil {
		return m.CountByConnectionIDFunc(ctx, connectionID)
	}
	return 0, nil
}

type mockAccountRepo struct {
	GetByIDFunc   func(ctx context.Context, id string) (*account.Account, error)
	ListByIDsFunc func(ctx context.Context, ids []string) ([]*account.Account, error)
	UpdateFunc    func(ctx context.Context, id string, params account.UpdateParams) (*account.Account, error)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *mockAccountRepo) ListByIDs(ctx context.Context, ids []string) ([]*account.Account, error) {
	if m.ListByIDsFunc != nil {
		return m.ListByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, id string, params account.UpdateParams) (*account.Account, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return &account.Account{ID: id}, nil
}

type mockEntryRepo struct {
	CountStalePendingByAccountFunc func(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error)
	LatestTransactionDateFunc      func(ctx context.Context, accountIDs []string) (*time.Time, error)
}

func (m *mockEntryRepo) CountStalePendingByAccount(ctx context.Context, accountIDs []string, cutoff time.Time) (map[string]int, error) {
	if m.CountStalePendingByAccountFunc != nil {
		return m.CountStalePendingByAccountFunc(ctx, accountIDs, cutoff)
	}
	return map[string]int{}, nil
}

func (m *mockEntryRepo) LatestTransactionDate(ctx context.Context, accountIDs []string) (*time.Time, error) {
	if m.LatestTransactionDateFunc != nil {
		return m.LatestTransactionDateFunc(ctx, accountIDs)
	}
	return nil, nil
}

func (m *mockEntryRepo) ListUncategorized(ctx context.Context, accountID string, limit int) ([]*entry.Entry, error) {
	return nil, nil
}

func (m *mockEntryRepo) UpdateCategory(ctx context.Context, entryID, category string) error {
	return nil
}

type mockRunRepo struct {
	CreateFunc               func(ctx context.Context, run *syncrun.Run) error
	LatestByConnectionIDFunc func(ctx context.Context, connectionID string) (*syncrun.Run, error)
	ListByConnectionIDFunc   func(ctx context.Context, connectionID string, limit int) ([]*syncrun.Run, error)
	UpdateStatsFunc          func(ctx context.Context, runID string, stats syncrun.Stats) error
	CompleteFunc             func(ctx context.Context, runID, status, errText, statusText string) error
}

func (m *mockRunRepo) Create(ctx context.Context, run *syncrun.Run) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, run)
	}
	return nil
}

func (m *mockRunRepo) LatestByConnectionID(ctx context.Context, connectionID string) (*syncrun.Run, error) {
	if m.LatestByConnectionIDFunc != nil {
		return m.LatestByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

func (m *mockRunRepo) ListByConnectionID(ctx context.Context, connectionID string, limit int) ([]*syncrun.Run, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID, limit)
	}
	return nil, nil
}

func (m *mockRunRepo) UpdateStats(ctx context.Context, runID string, stats syncrun.Stats) error {
	if m.UpdateStatsFunc != nil {
		return m.UpdateStatsFunc(ctx, runID, stats)
	}
	return nil
}

func (m *mockRunRepo) Complete(ctx context.Context, runID, status, errText, statusText string) error {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, runID, status, errText, statusText)
	}
	return nil
}

// testNow is the fixed "today" used across status tests.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(conns *mockConnectionRepo, linked *mockLinkedAccountRepo, accounts *mockAccountRepo, entries *mockEntryRepo, runs *mockRunRepo) *Service {
	if conns == nil {
		conns = &mockConnectionRepo{}
	}
	if linked == nil {
		linked = &mockLinkedAccountRepo{}
	}
	if accounts == nil {
		accounts = &mockAccountRepo{}
	}
	if entries == nil {
		entries = &mockEntryRepo{}
	}
	if runs == nil {
		runs = &mockRunRepo{}
	}
	return NewService(conns, linked, accounts, entries, runs, ServiceConfig{
		Now: func() time.Time { return testNow },
	})
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

// linkedTo builds a linked account resolving to the given local account.
func linkedTo(accountID, externalID string) *LinkedAccount {
	return &LinkedAccount{
		ID:           "la-" + externalID,
		ConnectionID: "conn-1",
		ExternalID:   externalID,
		Name:         "Account " + externalID,
		AccountID:    strPtr(accountID),
	}
}
