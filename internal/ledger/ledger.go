// Package ledger holds the account store collaborator used to move stakes
// and payouts. Every mutating call carries a reference (the match id); an
// adapter applies a given (reference, account, kind) at most once.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Ledger is the debit/credit/record surface the orchestrator settles against.
type Ledger interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	Debit(ctx context.Context, accountID string, amount int64, ref string) error
	Credit(ctx context.Context, accountID string, amount int64, ref string) error
	RecordLoss(ctx context.Context, accountID string, ref string) error
	Refund(ctx context.Context, accountID string, amount int64, ref string) error
}

// Fee returns the house commission taken from a payout.
func Fee(amount int64, commissionPct int) int64 {
	if commissionPct <= 0 || amount <= 0 {
		return 0
	}
	if commissionPct > 100 {
		commissionPct = 100
	}
	return amount * int64(commissionPct) / 100
}
