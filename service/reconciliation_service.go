package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"printbay/models"
)

const reconcileBatchSize = 100

type reconciliationService struct {
	uowFactory UnitOfWorkFactory
	ledger     LedgerService
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(uowFactory UnitOfWorkFactory, ledger LedgerService) ReconciliationService {
	return &reconciliationService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

// SweepOrphanedBoostDebits refunds boost debits that have neither a boost row
// nor a refund referencing them. Such debits are left behind when the process
// dies between the committed debit and the boost transaction, or when the
// inline refund itself fails. The one-refund-per-debit index makes the sweep
// safe to run concurrently with the inline refund and with itself.
func (s *reconciliationService) SweepOrphanedBoostDebits(ctx context.Context, olderThan time.Time) (int, error) {
	debits, err := s.findOrphanedDebits(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	refunded := 0
	for _, debit := range debits {
		_, err := s.ledger.ApplyDelta(ctx, DeltaRequest{
			UserID:      debit.UserID,
			Currency:    debit.Currency,
			Amount:      debit.Amount.Neg(),
			Type:        models.TransactionTypeRefund,
			Description: fmt.Sprintf("reconciliation refund for boost debit %d", debit.ID),
			Related:     &models.RelatedEntity{Type: models.RelatedTypeTransaction, ID: strconv.FormatInt(debit.ID, 10)},
			Metadata: map[string]any{
				"debit_txn_id":   debit.ID,
				"reconciliation": true,
			},
		})
		if err != nil {
			// Another refund won the race for this debit; nothing left to do
			if isUniqueViolation(err) {
				log.WithField("debitTxnID", debit.ID).Info("Boost debit refunded concurrently, skipping")
				continue
			}
			log.WithFields(log.Fields{
				"debitTxnID": debit.ID,
				"userID":     debit.UserID,
			}).WithError(err).Error("Failed to refund orphaned boost debit")
			continue
		}

		log.WithFields(log.Fields{
			"debitTxnID": debit.ID,
			"userID":     debit.UserID,
			"amount":     debit.Amount.Neg().String(),
		}).Warn("Refunded orphaned boost debit")
		refunded++
	}

	return refunded, nil
}

func (s *reconciliationService) findOrphanedDebits(ctx context.Context, olderThan time.Time) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	debits, err := uow.TransactionRepository().FindUnreconciledBoostDebits(ctx, olderThan, reconcileBatchSize)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return debits, nil
}
