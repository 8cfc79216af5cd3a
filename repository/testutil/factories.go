package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"printbay/models"
)

// CreateTestWallet creates a test wallet with default balances
func CreateTestWallet(userID int64) *models.Wallet {
	now := time.Now()
	return &models.Wallet{
		UserID:        userID,
		ITCBalance:    decimal.NewFromInt(100),
		PointsBalance: 10000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CreateTestTransaction creates a test transaction entry
func CreateTestTransaction(userID int64, currency models.Currency, txType models.TransactionType) *models.Transaction {
	return &models.Transaction{
		UserID:        userID,
		Currency:      currency,
		Amount:        decimal.NewFromInt(100),
		Type:          txType,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.NewFromInt(100),
		Description:   "test transaction",
		Metadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestTransactionWithAmounts creates a test transaction with specific amounts
func CreateTestTransactionWithAmounts(userID int64, currency models.Currency, txType models.TransactionType, before, after decimal.Decimal) *models.Transaction {
	txn := CreateTestTransaction(userID, currency, txType)
	txn.BalanceBefore = before
	txn.BalanceAfter = after
	txn.Amount = after.Sub(before)
	return txn
}

// CreateTestPost creates a test community post
func CreateTestPost(creatorID int64, title string) *models.CommunityPost {
	now := time.Now()
	return &models.CommunityPost{
		CreatorID: creatorID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestFreeVote creates an active free-vote boost
func CreateTestFreeVote(postID, userID int64, points int64) *models.CommunityBoost {
	now := time.Now()
	return &models.CommunityBoost{
		PostID:      postID,
		UserID:      userID,
		BoostType:   models.BoostTypeFreeVote,
		BoostPoints: points,
		ITCAmount:   decimal.Zero,
		Status:      models.BoostStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestPaidBoost creates an active paid boost
func CreateTestPaidBoost(postID, userID int64, itcAmount decimal.Decimal, points int64) *models.CommunityBoost {
	boost := CreateTestFreeVote(postID, userID, points)
	boost.BoostType = models.BoostTypePaidBoost
	boost.ITCAmount = itcAmount
	return boost
}

// CreateTestPaidOrder creates a paid order for a payment id
func CreateTestPaidOrder(userID int64, paymentID string, total decimal.Decimal) *models.Order {
	now := time.Now()
	return &models.Order{
		UserID:       userID,
		PaymentID:    paymentID,
		Total:        total,
		ITCPurchased: total,
		Status:       models.OrderStatusPaid,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
