package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"printbay/events"
	"printbay/models"
)

type intakeFixture struct {
	uow    *MockUnitOfWork
	wallet *MockWalletRepository
	txn    *MockTransactionRepository
	orders *MockOrderRepository
	svc    PaymentIntakeService
}

func newIntakeFixture() *intakeFixture {
	f := &intakeFixture{
		uow:    new(MockUnitOfWork),
		wallet: new(MockWalletRepository),
		txn:    new(MockTransactionRepository),
		orders: new(MockOrderRepository),
	}
	f.uow.SetRepositories(f.wallet, f.txn, nil, nil, nil, f.orders)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(f.uow)

	f.svc = NewPaymentIntakeService(factory)
	return f
}

func paidEvent() models.PaymentEvent {
	return models.PaymentEvent{
		PaymentID:    "itc-abc123",
		UserID:       7,
		Amount:       decimal.NewFromInt(25),
		ITCPurchased: decimal.NewFromInt(25),
	}
}

func TestPaymentIntake_HandlePaymentSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("records the order and credits the wallet", func(t *testing.T) {
		f := newIntakeFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Commit").Return(nil)
		f.uow.On("Rollback").Return(nil)

		f.orders.On("CreateFromPayment", ctx, mock.MatchedBy(func(o *models.Order) bool {
			return o.PaymentID == "itc-abc123" && o.UserID == 7 &&
				o.Status == models.OrderStatusPaid &&
				o.ITCPurchased.Equal(decimal.NewFromInt(25))
		})).Return(true, nil)

		f.txn.On("ExistsForRelated", ctx,
			models.TransactionTypePurchase, models.RelatedTypePayment, "itc-abc123").
			Return(false, nil)
		f.wallet.On("EnsureExists", ctx, int64(7)).Return(false, nil)
		f.wallet.On("ApplyDelta", ctx, int64(7), models.CurrencyITC, decimal.NewFromInt(25)).
			Return(decimal.NewFromInt(25), nil)
		f.txn.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Type == models.TransactionTypePurchase &&
				txn.RelatedEntityID != nil && *txn.RelatedEntityID == "itc-abc123"
		})).Return(nil)

		err := f.svc.HandlePaymentSucceeded(ctx, paidEvent())
		require.NoError(t, err)

		published := f.uow.PublishedEvents()
		var credited bool
		for _, evt := range published {
			if _, ok := evt.(events.PaymentCreditedEvent); ok {
				credited = true
			}
		}
		assert.True(t, credited, "expected a PaymentCreditedEvent")

		f.orders.AssertExpectations(t)
		f.txn.AssertExpectations(t)
	})

	t.Run("settles a pre-created pending order", func(t *testing.T) {
		f := newIntakeFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Commit").Return(nil)
		f.uow.On("Rollback").Return(nil)

		// checkout already wrote the pending row for this payment id
		f.orders.On("CreateFromPayment", ctx, mock.Anything).Return(false, nil)
		f.orders.On("UpdateStatus", ctx, "itc-abc123", models.OrderStatusPaid).Return(nil)

		f.txn.On("ExistsForRelated", ctx,
			models.TransactionTypePurchase, models.RelatedTypePayment, "itc-abc123").
			Return(false, nil)
		f.wallet.On("EnsureExists", ctx, int64(7)).Return(false, nil)
		f.wallet.On("ApplyDelta", ctx, int64(7), models.CurrencyITC, decimal.NewFromInt(25)).
			Return(decimal.NewFromInt(25), nil)
		f.txn.On("Record", ctx, mock.Anything).Return(nil)

		err := f.svc.HandlePaymentSucceeded(ctx, paidEvent())
		require.NoError(t, err)
		f.orders.AssertExpectations(t)
	})

	t.Run("replay is a no-op success", func(t *testing.T) {
		f := newIntakeFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Commit").Return(nil)
		f.uow.On("Rollback").Return(nil)

		f.orders.On("CreateFromPayment", ctx, mock.Anything).Return(false, nil)
		f.orders.On("UpdateStatus", ctx, "itc-abc123", models.OrderStatusPaid).Return(nil)
		f.txn.On("ExistsForRelated", ctx,
			models.TransactionTypePurchase, models.RelatedTypePayment, "itc-abc123").
			Return(true, nil)

		err := f.svc.HandlePaymentSucceeded(ctx, paidEvent())
		require.NoError(t, err)
		f.wallet.AssertNotCalled(t, "ApplyDelta")
	})

	t.Run("concurrent replay losing the race is still success", func(t *testing.T) {
		f := newIntakeFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Commit").Return(nil)
		f.uow.On("Rollback").Return(nil)

		f.orders.On("CreateFromPayment", ctx, mock.Anything).Return(false, nil)
		f.orders.On("UpdateStatus", ctx, "itc-abc123", models.OrderStatusPaid).Return(nil)
		f.txn.On("ExistsForRelated", ctx,
			models.TransactionTypePurchase, models.RelatedTypePayment, "itc-abc123").
			Return(false, nil)
		f.wallet.On("EnsureExists", ctx, int64(7)).Return(false, nil)
		f.wallet.On("ApplyDelta", ctx, int64(7), models.CurrencyITC, decimal.NewFromInt(25)).
			Return(decimal.NewFromInt(25), nil)
		// the other replay's committed credit trips the unique index
		f.txn.On("Record", ctx, mock.Anything).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uniq_purchase_per_payment"})

		err := f.svc.HandlePaymentSucceeded(ctx, paidEvent())
		assert.NoError(t, err)
	})

	t.Run("invalid events rejected", func(t *testing.T) {
		f := newIntakeFixture()

		event := paidEvent()
		event.PaymentID = ""
		assert.ErrorIs(t, f.svc.HandlePaymentSucceeded(ctx, event), ErrInvalidAmount)

		event = paidEvent()
		event.UserID = 0
		assert.ErrorIs(t, f.svc.HandlePaymentSucceeded(ctx, event), ErrInvalidAmount)

		event = paidEvent()
		event.ITCPurchased = decimal.Zero
		assert.ErrorIs(t, f.svc.HandlePaymentSucceeded(ctx, event), ErrInvalidAmount)
	})
}
