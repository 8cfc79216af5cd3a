package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's current balances in both platform currencies.
// It is a projection of the transaction log and is mutated exclusively
// by the ledger service.
type Wallet struct {
	UserID        int64           `db:"user_id"`
	ITCBalance    decimal.Decimal `db:"itc_balance"`
	PointsBalance int64           `db:"points_balance"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// NewWallet returns a zero-balance wallet for a user that has not been
// credited yet. Wallets are auto-vivified on first credit.
func NewWallet(userID int64) *Wallet {
	return &Wallet{
		UserID:     userID,
		ITCBalance: decimal.Zero,
	}
}

// Balance returns the wallet's balance in the given currency as a decimal.
// Points are an integer currency; the decimal form is used so both
// currencies flow through the same ledger code path.
func (w *Wallet) Balance(currency Currency) decimal.Decimal {
	if currency == CurrencyPoints {
		return decimal.NewFromInt(w.PointsBalance)
	}
	return w.ITCBalance
}
