package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"printbay/events"
	"printbay/models"
)

// maxDeltaAttempts bounds internal retries on serialization failures before
// the conflict is surfaced to the caller.
const maxDeltaAttempts = 3

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	audit      AuditSink
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, audit AuditSink) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		audit:      audit,
	}
}

// applyLedgerDelta applies one balance change and appends the matching
// transaction inside the caller's unit of work. This is the single entry
// point for all balance mutations in the system: the conditional wallet
// update and the transaction append commit or roll back together.
func applyLedgerDelta(ctx context.Context, uow UnitOfWork, req DeltaRequest) (*models.Transaction, error) {
	if !req.Currency.Valid() {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalidAmount, req.Currency)
	}
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrInvalidAmount)
	}
	if req.Currency == models.CurrencyPoints && !req.Amount.IsInteger() {
		return nil, fmt.Errorf("%w: points amounts must be whole numbers", ErrInvalidAmount)
	}

	// First touch creates a zero-balance wallet instead of failing
	created, err := uow.WalletRepository().EnsureExists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if created {
		uow.EventBus().Publish(events.WalletCreatedEvent{UserID: req.UserID})
	}

	newBalance, err := uow.WalletRepository().ApplyDelta(ctx, req.UserID, req.Currency, req.Amount)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		UserID:        req.UserID,
		Currency:      req.Currency,
		Amount:        req.Amount,
		Type:          req.Type,
		BalanceBefore: newBalance.Sub(req.Amount),
		BalanceAfter:  newBalance,
		Description:   req.Description,
		Metadata:      req.Metadata,
	}
	if req.Related != nil {
		txn.RelatedEntityType = &req.Related.Type
		txn.RelatedEntityID = &req.Related.ID
	}

	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, err
	}

	// Flushed only after the surrounding transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          req.UserID,
		Currency:        req.Currency,
		OldBalance:      txn.BalanceBefore,
		NewBalance:      txn.BalanceAfter,
		TransactionID:   txn.ID,
		TransactionType: txn.Type,
		ChangeAmount:    req.Amount,
	})

	return txn, nil
}

// ApplyDelta atomically applies one balance change and appends the matching
// transaction, retrying a bounded number of times on storage conflicts.
func (s *ledgerService) ApplyDelta(ctx context.Context, req DeltaRequest) (*models.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= maxDeltaAttempts; attempt++ {
		txn, err := s.applyOnce(ctx, req)
		if err == nil {
			return txn, nil
		}
		if !isRetryableStorageError(err) {
			return nil, err
		}

		lastErr = err
		log.WithFields(log.Fields{
			"userID":   req.UserID,
			"currency": req.Currency,
			"type":     req.Type,
			"attempt":  attempt,
		}).WithError(err).Warn("Retrying ledger delta after storage conflict")
	}

	return nil, fmt.Errorf("%w: %v", ErrConcurrencyConflict, lastErr)
}

func (s *ledgerService) applyOnce(ctx context.Context, req DeltaRequest) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	txn, err := applyLedgerDelta(ctx, uow, req)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return txn, nil
}

// GetWallet returns the user's wallet; unknown users get a zero-balance view
func (s *ledgerService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if wallet == nil {
		return models.NewWallet(userID), nil
	}
	return wallet, nil
}

// GetTransactionHistory returns a page of the user's ledger entries
func (s *ledgerService) GetTransactionHistory(ctx context.Context, userID int64, filter models.HistoryFilter) ([]*models.Transaction, int64, error) {
	if filter.Currency != nil && !filter.Currency.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown currency %q", ErrInvalidAmount, *filter.Currency)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txns, total, err := uow.TransactionRepository().GetByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	if err := uow.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return txns, total, nil
}

// AdminAdjust applies an administrative delta; always audited
func (s *ledgerService) AdminAdjust(ctx context.Context, adminID, userID int64, currency models.Currency, delta decimal.Decimal, reason string) (*models.Transaction, error) {
	if reason == "" {
		return nil, fmt.Errorf("adjustment reason is required")
	}

	detail := map[string]any{
		"currency": string(currency),
		"delta":    delta.String(),
		"reason":   reason,
	}

	txn, err := s.adminAdjustOnce(ctx, adminID, userID, currency, delta, reason)
	if err != nil {
		s.audit.LogWalletError(ctx, adminID, userID, err, detail)
		return nil, err
	}

	detail["transaction_id"] = txn.ID
	detail["new_balance"] = txn.BalanceAfter.String()
	s.audit.LogWalletAction(ctx, adminID, userID, models.AuditActionAdjustWallet, detail)

	return txn, nil
}

func (s *ledgerService) adminAdjustOnce(ctx context.Context, adminID, userID int64, currency models.Currency, delta decimal.Decimal, reason string) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Adjusting an unknown user is more likely a typo than a first touch,
	// so this path does not auto-vivify
	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrWalletNotFound)
	}

	txn, err := applyLedgerDelta(ctx, uow, DeltaRequest{
		UserID:      userID,
		Currency:    currency,
		Amount:      delta,
		Type:        models.TransactionTypeAdminAdjustment,
		Description: reason,
		Metadata: map[string]any{
			"admin_id": adminID,
			"reason":   reason,
		},
	})
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.WalletAdjustedEvent{
		AdminID:  adminID,
		UserID:   userID,
		Currency: currency,
		Delta:    delta,
		Reason:   reason,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return txn, nil
}

// isRetryableStorageError reports whether the error is a serialization or
// deadlock failure worth retrying
func isRetryableStorageError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
