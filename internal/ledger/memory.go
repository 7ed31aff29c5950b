package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/playpool/duelserver/internal/models"
)

type entryKey struct {
	ref       string
	accountID string
	kind      string
}

// Memory is an in-process ledger for development and tests. When
// startingBalance is positive, unknown accounts are opened on first lookup.
type Memory struct {
	mu              sync.Mutex
	accounts        map[string]*models.Account
	applied         map[entryKey]struct{}
	txs             []models.LedgerTransaction
	startingBalance int64
	commissionPct   int
}

func NewMemory(startingBalance int64, commissionPct int) *Memory {
	return &Memory{
		accounts:        make(map[string]*models.Account),
		applied:         make(map[entryKey]struct{}),
		startingBalance: startingBalance,
		commissionPct:   commissionPct,
	}
}

// Deposit opens the account if needed and adds amount to it.
func (m *Memory) Deposit(accountID string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		now := time.Now()
		a = &models.Account{AccountID: accountID, CreatedAt: now, UpdatedAt: now}
		m.accounts[accountID] = a
	}
	a.Balance += amount
}

// Account returns a copy of the account row.
func (m *Memory) Account(accountID string) (models.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, false
	}
	return *a, true
}

// Transactions returns the movements recorded for accountID, oldest first.
func (m *Memory) Transactions(accountID string) []models.LedgerTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerTransaction
	for _, tx := range m.txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

func (m *Memory) lookup(accountID string) (*models.Account, error) {
	a, ok := m.accounts[accountID]
	if ok {
		return a, nil
	}
	if m.startingBalance <= 0 {
		return nil, ErrAccountNotFound
	}
	now := time.Now()
	a = &models.Account{AccountID: accountID, Balance: m.startingBalance, CreatedAt: now, UpdatedAt: now}
	m.accounts[accountID] = a
	return a, nil
}

func (m *Memory) Balance(ctx context.Context, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.lookup(accountID)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

func (m *Memory) Debit(ctx context.Context, accountID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return m.apply(accountID, ref, models.KindGameEntry, -amount, amount, 0, func(a *models.Account) {})
}

func (m *Memory) Credit(ctx context.Context, accountID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	fee := Fee(amount, m.commissionPct)
	return m.apply(accountID, ref, models.KindGameWin, amount-fee, amount, fee, func(a *models.Account) { a.Wins++ })
}

func (m *Memory) RecordLoss(ctx context.Context, accountID string, ref string) error {
	return m.apply(accountID, ref, models.KindGameLoss, 0, 0, 0, func(a *models.Account) { a.Losses++ })
}

func (m *Memory) Refund(ctx context.Context, accountID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return m.apply(accountID, ref, models.KindGameRefund, amount, amount, 0, func(a *models.Account) {})
}

func (m *Memory) apply(accountID, ref, kind string, delta, amount, fee int64, stat func(*models.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.lookup(accountID)
	if err != nil {
		return err
	}
	key := entryKey{ref: ref, accountID: accountID, kind: kind}
	if _, done := m.applied[key]; done {
		return nil
	}
	if a.Balance+delta < 0 {
		return ErrInsufficientFunds
	}

	now := time.Now()
	a.Balance += delta
	a.UpdatedAt = now
	stat(a)
	m.applied[key] = struct{}{}
	m.txs = append(m.txs, models.LedgerTransaction{
		ID:        int64(len(m.txs) + 1),
		AccountID: accountID,
		Reference: ref,
		Kind:      kind,
		Amount:    amount,
		Fee:       fee,
		Status:    "COMPLETED",
		CreatedAt: now,
	})
	return nil
}
