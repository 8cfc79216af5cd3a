package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"printbay/models"
)

// GetWallet returns the caller's balances
func (s *Server) GetWallet(c *gin.Context) {
	wallet, err := s.ledger.GetWallet(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        wallet.UserID,
		"itc_balance":    wallet.ITCBalance,
		"points_balance": wallet.PointsBalance,
	})
}

// GetTransactionHistory returns a page of the caller's ledger entries
func (s *Server) GetTransactionHistory(c *gin.Context) {
	filter := models.HistoryFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("currency"); raw != "" {
		currency := models.Currency(raw)
		filter.Currency = &currency
	}
	for _, raw := range c.QueryArray("type") {
		filter.Types = append(filter.Types, models.TransactionType(raw))
	}

	txns, total, err := s.ledger.GetTransactionHistory(c.Request.Context(), callerID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactionViews(txns),
		"total":        total,
	})
}

type transactionView struct {
	ID                int64                   `json:"id"`
	Currency          models.Currency         `json:"currency"`
	Amount            string                  `json:"amount"`
	Type              models.TransactionType  `json:"type"`
	BalanceBefore     string                  `json:"balance_before"`
	BalanceAfter      string                  `json:"balance_after"`
	Description       string                  `json:"description"`
	RelatedEntityType *models.RelatedType     `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string                 `json:"related_entity_id,omitempty"`
	Metadata          map[string]any          `json:"metadata,omitempty"`
	CreatedAt         string                  `json:"created_at"`
}

func transactionViews(txns []*models.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, transactionView{
			ID:                txn.ID,
			Currency:          txn.Currency,
			Amount:            txn.Amount.String(),
			Type:              txn.Type,
			BalanceBefore:     txn.BalanceBefore.String(),
			BalanceAfter:      txn.BalanceAfter.String(),
			Description:       txn.Description,
			RelatedEntityType: txn.RelatedEntityType,
			RelatedEntityID:   txn.RelatedEntityID,
			Metadata:          txn.Metadata,
			CreatedAt:         txn.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return views
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
