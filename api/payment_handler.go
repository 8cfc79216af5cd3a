package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"printbay/models"
)

type checkoutRequest struct {
	ITCAmount decimal.Decimal `json:"itc_amount" binding:"required"`
}

// CreateITCCheckout opens a payment session for an ITC purchase
func (s *Server) CreateITCCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "itc_amount is required")
		return
	}

	session, err := s.checkout.CreateITCCheckout(c.Request.Context(), callerID(c), req.ITCAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     session.OrderID,
		"payment_id":   session.PaymentID,
		"token":        session.Token,
		"redirect_url": session.RedirectURL,
	})
}

// paymentNotification is the subset of the processor's webhook payload the
// intake needs. The payload is untrusted; the order row recorded at checkout
// is the source of truth for amounts.
type paymentNotification struct {
	TransactionStatus string `json:"transaction_status"`
	OrderID           string `json:"order_id"`
	FraudStatus       string `json:"fraud_status"`
}

// HandlePaymentNotification is the payment processor's webhook. Replays are
// expected and safe; the processor retries until it sees a 200.
func (s *Server) HandlePaymentNotification(c *gin.Context) {
	var notification paymentNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "invalid notification payload")
		return
	}

	order, err := s.orders.GetByPaymentID(c.Request.Context(), notification.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if order == nil {
		abortWithError(c, http.StatusNotFound, "order_not_found", "no order for payment id")
		return
	}

	status := mapProcessorStatus(notification)
	log.WithFields(log.Fields{
		"paymentID":         notification.OrderID,
		"transactionStatus": notification.TransactionStatus,
		"fraudStatus":       notification.FraudStatus,
		"mappedStatus":      status,
	}).Info("Payment notification received")

	switch status {
	case models.OrderStatusPaid:
		event := models.PaymentEvent{
			PaymentID:    order.PaymentID,
			UserID:       order.UserID,
			Amount:       order.Total,
			ITCPurchased: order.ITCPurchased,
			Metadata: map[string]any{
				"transaction_status": notification.TransactionStatus,
			},
		}
		if err := s.intake.HandlePaymentSucceeded(c.Request.Context(), event); err != nil {
			respondError(c, err)
			return
		}
	case models.OrderStatusCancelled:
		if err := s.orders.UpdateStatus(c.Request.Context(), order.PaymentID, models.OrderStatusCancelled); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// mapProcessorStatus folds the processor's status pair into an order status
func mapProcessorStatus(n paymentNotification) models.OrderStatus {
	switch n.TransactionStatus {
	case "capture":
		if n.FraudStatus == "accept" {
			return models.OrderStatusPaid
		}
		return models.OrderStatusPending
	case "settlement":
		return models.OrderStatusPaid
	case "deny", "cancel", "expire":
		return models.OrderStatusCancelled
	default:
		return models.OrderStatusPending
	}
}
