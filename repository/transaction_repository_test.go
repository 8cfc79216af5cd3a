package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printbay/models"
	"printbay/repository/testutil"
)

func TestTransactionRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("assigns id and timestamp", func(t *testing.T) {
		txn := testutil.CreateTestTransaction(100, models.CurrencyITC, models.TransactionTypePurchase)
		err := repo.Record(ctx, txn)
		require.NoError(t, err)
		assert.NotZero(t, txn.ID)
		assert.False(t, txn.CreatedAt.IsZero())
	})

	t.Run("round-trips related entity and metadata", func(t *testing.T) {
		relType := models.RelatedTypePayment
		relID := "pay-xyz"
		txn := testutil.CreateTestTransaction(101, models.CurrencyITC, models.TransactionTypePurchase)
		txn.RelatedEntityType = &relType
		txn.RelatedEntityID = &relID
		txn.Metadata = map[string]any{"payment_id": "pay-xyz"}
		require.NoError(t, repo.Record(ctx, txn))

		txns, total, err := repo.GetByUser(ctx, 101, models.HistoryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, txns, 1)
		require.NotNil(t, txns[0].RelatedEntityType)
		assert.Equal(t, relType, *txns[0].RelatedEntityType)
		assert.Equal(t, "pay-xyz", *txns[0].RelatedEntityID)
		assert.Equal(t, "pay-xyz", txns[0].Metadata["payment_id"])
	})
}

func TestTransactionRepository_GetByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	seed := []struct {
		currency models.Currency
		txType   models.TransactionType
	}{
		{models.CurrencyITC, models.TransactionTypePurchase},
		{models.CurrencyITC, models.TransactionTypeBoostSpent},
		{models.CurrencyPoints, models.TransactionTypeReward},
		{models.CurrencyPoints, models.TransactionTypeReferral},
	}
	for _, s := range seed {
		require.NoError(t, repo.Record(ctx, testutil.CreateTestTransaction(200, s.currency, s.txType)))
	}
	// another user's entries must not bleed in
	require.NoError(t, repo.Record(ctx, testutil.CreateTestTransaction(201, models.CurrencyITC, models.TransactionTypePurchase)))

	t.Run("unfiltered, newest first", func(t *testing.T) {
		txns, total, err := repo.GetByUser(ctx, 200, models.HistoryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, txns, 4)
		assert.Greater(t, txns[0].ID, txns[3].ID)
	})

	t.Run("currency filter", func(t *testing.T) {
		currency := models.CurrencyPoints
		txns, total, err := repo.GetByUser(ctx, 200, models.HistoryFilter{Currency: &currency})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, txn := range txns {
			assert.Equal(t, models.CurrencyPoints, txn.Currency)
		}
	})

	t.Run("type filter", func(t *testing.T) {
		txns, total, err := repo.GetByUser(ctx, 200, models.HistoryFilter{
			Types: []models.TransactionType{models.TransactionTypePurchase, models.TransactionTypeReward},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, txns, 2)
	})

	t.Run("pagination keeps the unpaged total", func(t *testing.T) {
		txns, total, err := repo.GetByUser(ctx, 200, models.HistoryFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, txns, 2)
	})
}

func TestTransactionRepository_ExistsForRelated(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	relType := models.RelatedTypePayment
	relID := "pay-123"
	txn := testutil.CreateTestTransaction(300, models.CurrencyITC, models.TransactionTypePurchase)
	txn.RelatedEntityType = &relType
	txn.RelatedEntityID = &relID
	require.NoError(t, repo.Record(ctx, txn))

	exists, err := repo.ExistsForRelated(ctx, models.TransactionTypePurchase, models.RelatedTypePayment, "pay-123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForRelated(ctx, models.TransactionTypePurchase, models.RelatedTypePayment, "pay-999")
	require.NoError(t, err)
	assert.False(t, exists)

	// same related entity under a different type does not count
	exists, err = repo.ExistsForRelated(ctx, models.TransactionTypeRefund, models.RelatedTypePayment, "pay-123")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransactionRepository_DuplicatePurchaseCreditRejected(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	relType := models.RelatedTypePayment
	relID := "pay-once"

	first := testutil.CreateTestTransaction(310, models.CurrencyITC, models.TransactionTypePurchase)
	first.RelatedEntityType = &relType
	first.RelatedEntityID = &relID
	require.NoError(t, repo.Record(ctx, first))

	// the partial unique index backstops the replay race
	second := testutil.CreateTestTransaction(310, models.CurrencyITC, models.TransactionTypePurchase)
	second.RelatedEntityType = &relType
	second.RelatedEntityID = &relID
	err := repo.Record(ctx, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "23505")
}

func TestTransactionRepository_FindUnreconciledBoostDebits(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	txnRepo := NewTransactionRepository(testDB.DB)
	postRepo := NewCommunityPostRepository(testDB.DB)
	boostRepo := NewCommunityBoostRepository(testDB.DB)
	ctx := context.Background()

	post := testutil.CreateTestPost(1, "glitch art hoodie")
	require.NoError(t, postRepo.Create(ctx, post))

	recordBoostDebit := func(userID int64) *models.Transaction {
		relType := models.RelatedTypeCommunityPost
		relID := "1"
		txn := testutil.CreateTestTransactionWithAmounts(userID, models.CurrencyITC,
			models.TransactionTypeBoostSpent, decimal.NewFromInt(100), decimal.NewFromInt(95))
		txn.RelatedEntityType = &relType
		txn.RelatedEntityID = &relID
		require.NoError(t, txnRepo.Record(ctx, txn))
		return txn
	}

	// debit whose boost landed: excluded
	covered := recordBoostDebit(500)
	boost := testutil.CreateTestPaidBoost(post.ID, 500, decimal.NewFromInt(5), 50)
	boost.DebitTransactionID = &covered.ID
	require.NoError(t, boostRepo.Create(ctx, boost))

	// debit already compensated by a refund: excluded
	refunded := recordBoostDebit(501)
	relType := models.RelatedTypeTransaction
	relID := strconv.FormatInt(refunded.ID, 10)
	refund := testutil.CreateTestTransactionWithAmounts(501, models.CurrencyITC,
		models.TransactionTypeRefund, decimal.NewFromInt(95), decimal.NewFromInt(100))
	refund.RelatedEntityType = &relType
	refund.RelatedEntityID = &relID
	require.NoError(t, txnRepo.Record(ctx, refund))

	// debit with neither: the orphan the sweep must find
	orphan := recordBoostDebit(502)

	t.Run("finds only the orphan", func(t *testing.T) {
		debits, err := txnRepo.FindUnreconciledBoostDebits(ctx, time.Now().Add(time.Hour), 100)
		require.NoError(t, err)
		require.Len(t, debits, 1)
		assert.Equal(t, orphan.ID, debits[0].ID)
		assert.Equal(t, int64(502), debits[0].UserID)
		assert.True(t, debits[0].Amount.Equal(decimal.NewFromInt(-5)))
	})

	t.Run("grace window hides recent debits", func(t *testing.T) {
		debits, err := txnRepo.FindUnreconciledBoostDebits(ctx, time.Now().Add(-time.Minute), 100)
		require.NoError(t, err)
		assert.Empty(t, debits)
	})
}

func TestTransactionRepository_DuplicateRefundRejected(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	relType := models.RelatedTypeTransaction
	relID := "12345"

	// the unique index keeps an inline refund and a reconciliation sweep
	// from both compensating the same debit
	first := testutil.CreateTestTransaction(320, models.CurrencyITC, models.TransactionTypeRefund)
	first.RelatedEntityType = &relType
	first.RelatedEntityID = &relID
	require.NoError(t, repo.Record(ctx, first))

	second := testutil.CreateTestTransaction(320, models.CurrencyITC, models.TransactionTypeRefund)
	second.RelatedEntityType = &relType
	second.RelatedEntityID = &relID
	err := repo.Record(ctx, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "23505")
}

func TestTransactionRepository_SumAmounts(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	walletRepo := NewWalletRepository(testDB.DB)
	txnRepo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	_, err := walletRepo.EnsureExists(ctx, 400)
	require.NoError(t, err)

	// mirror each wallet delta with a ledger entry, the way the service does
	deltas := []decimal.Decimal{
		decimal.NewFromInt(100),
		decimal.NewFromInt(-30),
		decimal.NewFromFloat(0.5),
	}
	balance := decimal.Zero
	for _, delta := range deltas {
		newBalance, err := walletRepo.ApplyDelta(ctx, 400, models.CurrencyITC, delta)
		require.NoError(t, err)

		txn := testutil.CreateTestTransactionWithAmounts(400, models.CurrencyITC, models.TransactionTypeAdminAdjustment, balance, newBalance)
		require.NoError(t, txnRepo.Record(ctx, txn))
		balance = newBalance
	}

	// conservation: the signed sum of the log equals the wallet balance
	sum, err := txnRepo.SumAmounts(ctx, 400, models.CurrencyITC)
	require.NoError(t, err)

	wallet, err := walletRepo.GetByUserID(ctx, 400)
	require.NoError(t, err)
	assert.True(t, sum.Equal(wallet.ITCBalance), "ledger sum %s != balance %s", sum, wallet.ITCBalance)

	// empty log sums to zero
	sum, err = txnRepo.SumAmounts(ctx, 401, models.CurrencyITC)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}
