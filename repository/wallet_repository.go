package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"printbay/database"
	"printbay/models"
	"printbay/service"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

// GetByUserID retrieves a wallet by user id, or nil if none exists yet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	query := `
		SELECT user_id, itc_balance, points_balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var wallet models.Wallet
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.ITCBalance,
		&wallet.PointsBalance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}

	return &wallet, nil
}

// EnsureExists creates a zero-balance wallet if the user has none
func (r *WalletRepository) EnsureExists(ctx context.Context, userID int64) (bool, error) {
	query := `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to ensure wallet for user %d: %w", userID, err)
	}

	return result.RowsAffected() == 1, nil
}

// ApplyDelta atomically adds amount to the user's balance in the given
// currency. The WHERE clause makes the update conditional: a debit past zero
// matches no row and the wallet is left untouched.
func (r *WalletRepository) ApplyDelta(ctx context.Context, userID int64, currency models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	var query string
	switch currency {
	case models.CurrencyPoints:
		query = `
			UPDATE wallets
			SET points_balance = points_balance + $1, updated_at = NOW()
			WHERE user_id = $2 AND points_balance + $1 >= 0
			RETURNING points_balance
		`
	case models.CurrencyITC:
		query = `
			UPDATE wallets
			SET itc_balance = itc_balance + $1, updated_at = NOW()
			WHERE user_id = $2 AND itc_balance + $1 >= 0
			RETURNING itc_balance
		`
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown currency %q", service.ErrInvalidAmount, currency)
	}

	var newBalance decimal.Decimal
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if err != pgx.ErrNoRows {
		return decimal.Zero, fmt.Errorf("failed to apply %s delta for user %d: %w", currency, userID, err)
	}

	// No row matched: either the wallet is missing or the debit would go negative
	wallet, getErr := r.GetByUserID(ctx, userID)
	if getErr != nil {
		return decimal.Zero, getErr
	}
	if wallet == nil {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, service.ErrWalletNotFound)
	}
	return decimal.Zero, service.NewInsufficientBalanceError(currency, amount.Neg(), wallet.Balance(currency))
}
