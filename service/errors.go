package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"printbay/models"
)

// Sentinel errors for the ledger's business-rule taxonomy. Callers classify
// with errors.Is; the HTTP layer maps each to a machine-readable code and
// never reports a business rejection as a generic failure.
var (
	// ErrInsufficientBalance rejects a debit that would take a balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSelfInteractionForbidden rejects a creator voting or boosting their own post.
	ErrSelfInteractionForbidden = errors.New("cannot boost your own post")

	// ErrInvalidAmount rejects amounts outside policy bounds.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrWalletNotFound is returned only where auto-vivification is not
	// semantically safe (e.g. admin adjustment of an unknown user id).
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrRewardOutOfPolicy rejects a computed reward that breaches the
	// anti-abuse ceilings. Never clamped, always rejected.
	ErrRewardOutOfPolicy = errors.New("reward exceeds policy ceiling")

	// ErrDuplicateExternalEvent short-circuits a replayed payment event.
	// The intake treats it as success, not failure.
	ErrDuplicateExternalEvent = errors.New("external event already processed")

	// ErrPostNotFound rejects boost operations on unknown posts.
	ErrPostNotFound = errors.New("community post not found")

	// ErrConcurrencyConflict surfaces after bounded internal retries on
	// serialization or deadlock failures.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrStorageUnavailable surfaces storage-level failures; retryable by the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NewInsufficientBalanceError wraps ErrInsufficientBalance with the amounts
// the caller needs for a human-readable rejection.
func NewInsufficientBalanceError(currency models.Currency, required, available decimal.Decimal) error {
	name := "points"
	if currency == models.CurrencyITC {
		name = "ITC"
	}
	return fmt.Errorf("%w: insufficient %s balance: required %s, available %s",
		ErrInsufficientBalance, name, required.String(), available.String())
}
