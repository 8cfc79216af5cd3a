package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"

	"printbay/events"
	"printbay/models"
)

type paymentIntakeService struct {
	uowFactory UnitOfWorkFactory
}

// NewPaymentIntakeService creates a new payment intake service
func NewPaymentIntakeService(uowFactory UnitOfWorkFactory) PaymentIntakeService {
	return &paymentIntakeService{uowFactory: uowFactory}
}

// HandlePaymentSucceeded credits the purchased ITC for a completed payment.
// The order row and the wallet credit are two independent idempotent steps,
// each keyed by the payment id, so a crash between them is safely retryable
// without double effect.
func (s *paymentIntakeService) HandlePaymentSucceeded(ctx context.Context, event models.PaymentEvent) error {
	if event.PaymentID == "" {
		return fmt.Errorf("%w: payment id is required", ErrInvalidAmount)
	}
	if event.UserID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidAmount)
	}
	if !event.ITCPurchased.IsPositive() {
		return fmt.Errorf("%w: purchased ITC must be positive", ErrInvalidAmount)
	}

	if err := s.recordOrder(ctx, event); err != nil {
		return err
	}

	return s.creditPurchase(ctx, event)
}

// recordOrder upserts the paid order keyed by payment id
func (s *paymentIntakeService) recordOrder(ctx context.Context, event models.PaymentEvent) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	order := &models.Order{
		UserID:       event.UserID,
		PaymentID:    event.PaymentID,
		Total:        event.Amount,
		ITCPurchased: event.ITCPurchased,
		Status:       models.OrderStatusPaid,
	}

	created, err := uow.OrderRepository().CreateFromPayment(ctx, order)
	if err != nil {
		return err
	}
	if !created {
		// Checkout pre-creates pending orders; settle the existing row instead
		if err := uow.OrderRepository().UpdateStatus(ctx, event.PaymentID, models.OrderStatusPaid); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// creditPurchase applies the wallet credit exactly once per payment id.
// The guard is a lookup inside the crediting transaction; a partial unique
// index on the transaction log backstops the race between two replays.
func (s *paymentIntakeService) creditPurchase(ctx context.Context, event models.PaymentEvent) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	exists, err := uow.TransactionRepository().ExistsForRelated(ctx,
		models.TransactionTypePurchase, models.RelatedTypePayment, event.PaymentID)
	if err != nil {
		return err
	}
	if exists {
		// Replay: already credited, treated as success
		log.WithField("paymentID", event.PaymentID).Info("Payment already credited, skipping")
		return nil
	}

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["payment_id"] = event.PaymentID

	_, err = applyLedgerDelta(ctx, uow, DeltaRequest{
		UserID:      event.UserID,
		Currency:    models.CurrencyITC,
		Amount:      event.ITCPurchased,
		Type:        models.TransactionTypePurchase,
		Description: fmt.Sprintf("ITC purchase (payment %s)", event.PaymentID),
		Related:     &models.RelatedEntity{Type: models.RelatedTypePayment, ID: event.PaymentID},
		Metadata:    metadata,
	})
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent replay won the race; the credit exists exactly once
			log.WithField("paymentID", event.PaymentID).Info("Concurrent replay already credited payment")
			return nil
		}
		return err
	}

	uow.EventBus().Publish(events.PaymentCreditedEvent{
		PaymentID: event.PaymentID,
		UserID:    event.UserID,
		ITCAmount: event.ITCPurchased,
	})

	if err := uow.Commit(); err != nil {
		if isUniqueViolation(err) {
			// A concurrent replay won the race; the credit exists exactly once
			log.WithField("paymentID", event.PaymentID).Info("Concurrent replay already credited payment")
			return nil
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
