package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printbay/models"
	"printbay/repository/testutil"
)

func TestOrderRepository_CreateFromPayment(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewOrderRepository(testDB.DB)
	ctx := context.Background()

	t.Run("creates a new order", func(t *testing.T) {
		order := testutil.CreateTestPaidOrder(1, "pay-1", decimal.NewFromInt(25))
		created, err := repo.CreateFromPayment(ctx, order)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, order.ID)
	})

	t.Run("replay for the same payment id is a no-op", func(t *testing.T) {
		replay := testutil.CreateTestPaidOrder(1, "pay-1", decimal.NewFromInt(25))
		created, err := repo.CreateFromPayment(ctx, replay)
		require.NoError(t, err)
		assert.False(t, created)

		// the original row is untouched
		order, err := repo.GetByPaymentID(ctx, "pay-1")
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.True(t, order.Total.Equal(decimal.NewFromInt(25)))
	})

	t.Run("unknown payment id", func(t *testing.T) {
		order, err := repo.GetByPaymentID(ctx, "pay-missing")
		require.NoError(t, err)
		assert.Nil(t, order)
	})
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewOrderRepository(testDB.DB)
	ctx := context.Background()

	pending := testutil.CreateTestPaidOrder(2, "pay-pending", decimal.NewFromInt(10))
	pending.Status = models.OrderStatusPending
	created, err := repo.CreateFromPayment(ctx, pending)
	require.NoError(t, err)
	require.True(t, created)

	t.Run("settles a pending order", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, "pay-pending", models.OrderStatusPaid))

		order, err := repo.GetByPaymentID(ctx, "pay-pending")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, order.Status)
	})

	t.Run("never moves an already-settled order", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, "pay-pending", models.OrderStatusCancelled))

		order, err := repo.GetByPaymentID(ctx, "pay-pending")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, order.Status)
	})
}

func TestOrderRepository_LifetimeSpendAndCount(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewOrderRepository(testDB.DB)
	ctx := context.Background()

	paid := []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromFloat(49.99)}
	for i, total := range paid {
		order := testutil.CreateTestPaidOrder(3, "pay-spend-"+string(rune('a'+i)), total)
		created, err := repo.CreateFromPayment(ctx, order)
		require.NoError(t, err)
		require.True(t, created)
	}

	// pending orders never count toward spend or purchase count
	pending := testutil.CreateTestPaidOrder(3, "pay-spend-pending", decimal.NewFromInt(500))
	pending.Status = models.OrderStatusPending
	created, err := repo.CreateFromPayment(ctx, pending)
	require.NoError(t, err)
	require.True(t, created)

	spend, err := repo.LifetimeSpend(ctx, 3)
	require.NoError(t, err)
	assert.True(t, spend.Equal(decimal.NewFromFloat(149.99)), "got %s", spend)

	count, err := repo.CountPaidByUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// a user with no orders
	spend, err = repo.LifetimeSpend(ctx, 404)
	require.NoError(t, err)
	assert.True(t, spend.IsZero())

	count, err = repo.CountPaidByUser(ctx, 404)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
