package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"printbay/database"
	"printbay/models"
)

// OrderRepository implements the OrderRepository interface
type OrderRepository struct {
	q queryable
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

// newOrderRepositoryWithTx creates a new order repository with a transaction
func newOrderRepositoryWithTx(tx queryable) *OrderRepository {
	return &OrderRepository{q: tx}
}

// CreateFromPayment inserts an order keyed by its external payment id.
// Returns false without error when an order for that payment already exists.
func (r *OrderRepository) CreateFromPayment(ctx context.Context, order *models.Order) (bool, error) {
	query := `
		INSERT INTO orders (user_id, payment_id, total, itc_purchased, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		order.UserID,
		order.PaymentID,
		order.Total,
		order.ITCPurchased,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	if err == pgx.ErrNoRows {
		// Conflict: an order for this payment already exists
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create order for payment %s: %w", order.PaymentID, err)
	}

	return true, nil
}

// GetByPaymentID retrieves an order by payment id, or nil if none exists
func (r *OrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	query := `
		SELECT id, user_id, payment_id, total, itc_purchased, status, created_at, updated_at
		FROM orders
		WHERE payment_id = $1
	`

	var order models.Order
	err := r.q.QueryRow(ctx, query, paymentID).Scan(
		&order.ID,
		&order.UserID,
		&order.PaymentID,
		&order.Total,
		&order.ITCPurchased,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order for payment %s: %w", paymentID, err)
	}

	return &order, nil
}

// UpdateStatus moves a still-pending order to the given status
func (r *OrderRepository) UpdateStatus(ctx context.Context, paymentID string, status models.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE payment_id = $2 AND status = $3
	`

	_, err := r.q.Exec(ctx, query, status, paymentID, models.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update order status for payment %s: %w", paymentID, err)
	}

	return nil
}

// LifetimeSpend returns the sum of the user's paid order totals
func (r *OrderRepository) LifetimeSpend(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE user_id = $1 AND status = $2
	`

	var total decimal.Decimal
	err := r.q.QueryRow(ctx, query, userID, models.OrderStatusPaid).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get lifetime spend for user %d: %w", userID, err)
	}

	return total, nil
}

// CountPaidByUser returns the number of paid orders for a user
func (r *OrderRepository) CountPaidByUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE user_id = $1 AND status = $2
	`

	var count int64
	err := r.q.QueryRow(ctx, query, userID, models.OrderStatusPaid).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count paid orders for user %d: %w", userID, err)
	}

	return count, nil
}
