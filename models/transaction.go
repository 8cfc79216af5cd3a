package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency identifies one of the two platform currencies.
type Currency string

const (
	CurrencyPoints Currency = "points"
	CurrencyITC    Currency = "itc"
)

// Valid reports whether the currency is one of the two supported values.
func (c Currency) Valid() bool {
	return c == CurrencyPoints || c == CurrencyITC
}

// TransactionType represents the business reason for a balance change
type TransactionType string

const (
	TransactionTypePurchase        TransactionType = "purchase"
	TransactionTypeReward          TransactionType = "reward"
	TransactionTypeReferral        TransactionType = "referral"
	TransactionTypeMilestone       TransactionType = "milestone"
	TransactionTypeBoostEarned     TransactionType = "boost_earned"
	TransactionTypeBoostSpent      TransactionType = "boost_spent"
	TransactionTypeRefund          TransactionType = "refund"
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
)

// RelatedType represents what type of entity a transaction refers to
type RelatedType string

const (
	RelatedTypeOrder         RelatedType = "order"
	RelatedTypePayment       RelatedType = "payment"
	RelatedTypeCommunityPost RelatedType = "community_post"
	RelatedTypeBoost         RelatedType = "community_boost"
	RelatedTypeTransaction   RelatedType = "transaction"
)

// RelatedEntity points a transaction at the domain object that caused it.
type RelatedEntity struct {
	Type RelatedType
	ID   string
}

// Transaction is one immutable entry in the append-only ledger.
// Invariant: BalanceAfter == BalanceBefore + Amount, and BalanceAfter equals
// the wallet balance at the moment the entry was appended. Corrections are
// new transactions; rows are never updated or deleted.
type Transaction struct {
	ID                int64           `db:"id"`
	UserID            int64           `db:"user_id"`
	Currency          Currency        `db:"currency"`
	Amount            decimal.Decimal `db:"amount"`
	Type              TransactionType `db:"type"`
	BalanceBefore     decimal.Decimal `db:"balance_before"`
	BalanceAfter      decimal.Decimal `db:"balance_after"`
	Description       string          `db:"description"`
	RelatedEntityType *RelatedType    `db:"related_entity_type"`
	RelatedEntityID   *string         `db:"related_entity_id"`
	Metadata          map[string]any  `db:"metadata"`
	CreatedAt         time.Time       `db:"created_at"`
}

// HistoryFilter narrows a transaction history query.
type HistoryFilter struct {
	Currency *Currency
	Types    []TransactionType
	Limit    int
	Offset   int
}
