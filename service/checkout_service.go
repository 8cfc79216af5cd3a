package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"printbay/models"
)

// itcUnitPrice is the storefront price of one ITC. ITC sells at par with
// the order total so the webhook can derive either from the other.
var itcUnitPrice = decimal.NewFromInt(1)

type checkoutService struct {
	snapClient snap.Client
	uowFactory UnitOfWorkFactory
}

// NewCheckoutService creates a checkout service against the payment
// processor's Snap API
func NewCheckoutService(serverKey string, sandbox bool, uowFactory UnitOfWorkFactory) CheckoutService {
	env := midtrans.Production
	if sandbox {
		env = midtrans.Sandbox
	}

	var client snap.Client
	client.New(serverKey, env)

	return &checkoutService{
		snapClient: client,
		uowFactory: uowFactory,
	}
}

// CreateITCCheckout opens a payment session for an ITC purchase. The pending
// order is recorded up front under the generated payment id; the webhook
// flips it to paid and credits the wallet.
func (s *checkoutService) CreateITCCheckout(ctx context.Context, userID int64, itcAmount decimal.Decimal) (*CheckoutSession, error) {
	if !itcAmount.IsPositive() {
		return nil, fmt.Errorf("%w: ITC amount must be positive", ErrInvalidAmount)
	}

	paymentID := fmt.Sprintf("itc-%s", uuid.NewString())
	total := itcAmount.Mul(itcUnitPrice)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	order := &models.Order{
		UserID:       userID,
		PaymentID:    paymentID,
		Total:        total,
		ITCPurchased: itcAmount,
		Status:       models.OrderStatusPending,
	}
	created, err := uow.OrderRepository().CreateFromPayment(ctx, order)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("payment id collision for %s", paymentID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  paymentID,
			GrossAmt: total.Round(0).IntPart(),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    "itc-topup",
				Name:  fmt.Sprintf("%s ITC", itcAmount.String()),
				Price: total.Round(0).IntPart(),
				Qty:   1,
			},
		},
	}

	resp, snapErr := s.snapClient.CreateTransaction(req)
	if snapErr != nil {
		log.WithFields(log.Fields{
			"userID":    userID,
			"paymentID": paymentID,
		}).WithError(snapErr).Error("Failed to create payment session")
		return nil, fmt.Errorf("failed to create payment session: %w", snapErr)
	}

	return &CheckoutSession{
		OrderID:     paymentID,
		PaymentID:   paymentID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}
