package models

import (
	"time"
)

// Account is a player's wallet row in the ledger store.
type Account struct {
	AccountID   string    `db:"account_id" json:"account_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Balance     int64     `db:"balance" json:"balance"`
	Wins        int       `db:"wins" json:"wins"`
	Losses      int       `db:"losses" json:"losses"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerTransaction records one money or stat movement tied to a match.
type LedgerTransaction struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"account_id"`
	Reference   string    `db:"reference" json:"reference"`
	Kind        string    `db:"kind" json:"kind"`
	Amount      int64     `db:"amount" json:"amount"`
	Fee         int64     `db:"fee" json:"fee"`
	Description string    `db:"description" json:"description,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Ledger transaction kinds
const (
	KindGameEntry  = "GAME_ENTRY"
	KindGameWin    = "GAME_WIN"
	KindGameLoss   = "GAME_LOSS"
	KindGameRefund = "GAME_REFUND"
)
