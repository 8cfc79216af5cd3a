package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"printbay/models"
)

type adjustWalletRequest struct {
	Currency string          `json:"currency" binding:"required"`
	Delta    decimal.Decimal `json:"delta" binding:"required"`
	Reason   string          `json:"reason" binding:"required"`
}

// AdjustWallet applies an administrative balance adjustment. Always audited.
func (s *Server) AdjustWallet(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	var req adjustWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "currency, delta and reason are required")
		return
	}

	txn, err := s.ledger.AdminAdjust(c.Request.Context(), callerID(c), userID, models.Currency(req.Currency), req.Delta, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": txn.ID,
		"new_balance":    txn.BalanceAfter,
	})
}
