package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDebitInsufficient(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)
	m.Deposit("alice", 15)

	err := m.Debit(ctx, "alice", 20, "match-1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	bal, err := m.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(15), bal)
}

func TestMemoryUnknownAccount(t *testing.T) {
	m := NewMemory(0, 0)
	_, err := m.Balance(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemorySeedsUnknownAccounts(t *testing.T) {
	m := NewMemory(100, 0)
	bal, err := m.Balance(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
}

func TestMemoryReferenceAppliedOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)
	m.Deposit("alice", 100)
	m.Deposit("bob", 100)

	require.NoError(t, m.Debit(ctx, "alice", 20, "match-1"))
	require.NoError(t, m.Debit(ctx, "alice", 20, "match-1"))
	require.NoError(t, m.Credit(ctx, "bob", 40, "match-1"))
	require.NoError(t, m.Credit(ctx, "bob", 40, "match-1"))
	require.NoError(t, m.RecordLoss(ctx, "alice", "match-1"))
	require.NoError(t, m.RecordLoss(ctx, "alice", "match-1"))

	a, _ := m.Account("alice")
	b, _ := m.Account("bob")
	assert.Equal(t, int64(80), a.Balance)
	assert.Equal(t, 1, a.Losses)
	assert.Equal(t, int64(140), b.Balance)
	assert.Equal(t, 1, b.Wins)
	assert.Len(t, m.Transactions("alice"), 2)
	assert.Len(t, m.Transactions("bob"), 1)
}

func TestMemoryCreditAppliesCommission(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 10)
	m.Deposit("bob", 0)

	require.NoError(t, m.Credit(ctx, "bob", 40, "match-7"))
	b, _ := m.Account("bob")
	assert.Equal(t, int64(36), b.Balance)

	txs := m.Transactions("bob")
	require.Len(t, txs, 1)
	assert.Equal(t, int64(4), txs[0].Fee)
	assert.Equal(t, "GAME_WIN", txs[0].Kind)
}

func TestMemoryRefund(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)
	m.Deposit("alice", 50)

	require.NoError(t, m.Debit(ctx, "alice", 20, "match-2"))
	require.NoError(t, m.Refund(ctx, "alice", 20, "match-2"))
	a, _ := m.Account("alice")
	assert.Equal(t, int64(50), a.Balance)
	assert.Equal(t, 0, a.Wins)
}

func TestFee(t *testing.T) {
	assert.Equal(t, int64(0), Fee(40, 0))
	assert.Equal(t, int64(4), Fee(40, 10))
	assert.Equal(t, int64(40), Fee(40, 150))
	assert.Equal(t, int64(0), Fee(-5, 10))
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100, 0)
	assert.ErrorIs(t, m.Debit(ctx, "a", 0, "r"), ErrInvalidAmount)
	assert.ErrorIs(t, m.Credit(ctx, "a", -1, "r"), ErrInvalidAmount)
	assert.ErrorIs(t, m.Refund(ctx, "a", 0, "r"), ErrInvalidAmount)
}
