package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"printbay/models"
)

type creditOrderRequest struct {
	OrderID    string          `json:"order_id" binding:"required"`
	OrderTotal decimal.Decimal `json:"order_total" binding:"required"`
}

// CreditOrderReward computes and credits the reward for a completed order.
// Called by the storefront's order pipeline on fulfilment.
func (s *Server) CreditOrderReward(c *gin.Context) {
	var req creditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "order_id and order_total are required")
		return
	}

	calc, err := s.rewards.CreditOrderReward(c.Request.Context(), callerID(c), req.OrderID, req.OrderTotal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, calc)
}

type referralRequest struct {
	ReferrerID     int64           `json:"referrer_id" binding:"required"`
	Kind           string          `json:"kind" binding:"required"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
}

// CreditReferralReward credits a referral reward to the referrer
func (s *Server) CreditReferralReward(c *gin.Context) {
	var req referralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "referrer_id and kind are required")
		return
	}

	txn, err := s.rewards.CreditReferralReward(c.Request.Context(), req.ReferrerID, models.ReferralKind(req.Kind), req.PurchaseAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"credited": txn != nil}
	if txn != nil {
		resp["transaction_id"] = txn.ID
		resp["points"] = txn.Amount.IntPart()
	}
	c.JSON(http.StatusOK, resp)
}

type milestoneRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Kind   string `json:"kind" binding:"required"`
}

// CreditMilestoneReward credits a milestone reward
func (s *Server) CreditMilestoneReward(c *gin.Context) {
	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "user_id and kind are required")
		return
	}

	txn, err := s.rewards.CreditMilestoneReward(c.Request.Context(), req.UserID, models.MilestoneKind(req.Kind))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"credited": txn != nil}
	if txn != nil {
		resp["transaction_id"] = txn.ID
		resp["points"] = txn.Amount.IntPart()
	}
	c.JSON(http.StatusOK, resp)
}
