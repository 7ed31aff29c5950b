package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/decred/slog"
	"github.com/jmoiron/sqlx"
	"github.com/playpool/duelserver/internal/models"
)

// Postgres is the sqlx-backed ledger. Balances live in accounts; every
// movement is a ledger_transactions row unique on (reference, account, kind).
type Postgres struct {
	db            *sqlx.DB
	commissionPct int
	log           slog.Logger
}

func NewPostgres(db *sqlx.DB, commissionPct int, log slog.Logger) *Postgres {
	return &Postgres{db: db, commissionPct: commissionPct, log: log}
}

// entry describes one ledger movement applied inside a transaction.
type entry struct {
	accountID   string
	ref         string
	kind        string
	delta       int64 // signed balance change
	amount      int64 // recorded amount (gross)
	fee         int64
	statColumn  string // "", "wins" or "losses"
	description string
}

func (p *Postgres) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := p.db.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE account_id=$1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (p *Postgres) Debit(ctx context.Context, accountID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return p.apply(ctx, entry{
		accountID: accountID, ref: ref, kind: models.KindGameEntry,
		delta: -amount, amount: amount, description: "Match stake",
	})
}

func (p *Postgres) Credit(ctx context.Context, accountID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	fee := Fee(amount, p.commissionPct)
	return p.apply(ctx, entry{
		accountID: accountID, ref: ref, kind: models.KindGameWin,
		delta: amount - fee, amount: amount, fee: fee, statColumn: "wins",
		description: "Match winnings",
	})
}

func (p *Postgres) RecordLoss(ctx context.Context, accountID string, ref string) error {
	return p.apply(ctx, entry{
		accountID: accountID, ref: ref, kind: models.KindGameLoss,
		statColumn: "losses", description: "Match loss",
	})
}

func (p *Postgres) Refund(ctx context.Context, accountID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return p.apply(ctx, entry{
		accountID: accountID, ref: ref, kind: models.KindGameRefund,
		delta: amount, amount: amount, description: "Stake refund",
	})
}

func (p *Postgres) apply(ctx context.Context, e entry) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE account_id=$1 FOR UPDATE`, e.accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_transactions (account_id, reference, kind, amount, fee, description, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,'COMPLETED',NOW())
		ON CONFLICT (reference, account_id, kind) DO NOTHING`,
		e.accountID, e.ref, e.kind, e.amount, e.fee, e.description)
	if err != nil {
		return fmt.Errorf("failed to insert ledger transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		p.log.Debugf("Ledger %s for %s ref=%s already applied", e.kind, e.accountID, e.ref)
		return nil
	}

	if balance+e.delta < 0 {
		return ErrInsufficientFunds
	}

	query := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE account_id = $2`
	switch e.statColumn {
	case "wins":
		query = `UPDATE accounts SET balance = balance + $1, wins = wins + 1, updated_at = NOW() WHERE account_id = $2`
	case "losses":
		query = `UPDATE accounts SET balance = balance + $1, losses = losses + 1, updated_at = NOW() WHERE account_id = $2`
	}
	if _, err := tx.ExecContext(ctx, query, e.delta, e.accountID); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	p.log.Infof("Ledger %s applied: account=%s ref=%s amount=%d fee=%d", e.kind, e.accountID, e.ref, e.amount, e.fee)
	return nil
}

// EnsureAccount creates the account row if missing (seeding / dev tooling).
func (p *Postgres) EnsureAccount(ctx context.Context, accountID, displayName string, balance int64) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, display_name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (account_id) DO NOTHING`, accountID, displayName, balance)
	return err
}

// Account loads an account row.
func (p *Postgres) Account(ctx context.Context, accountID string) (*models.Account, error) {
	var a models.Account
	err := p.db.GetContext(ctx, &a, `SELECT account_id, display_name, balance, wins, losses, created_at, updated_at FROM accounts WHERE account_id=$1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
