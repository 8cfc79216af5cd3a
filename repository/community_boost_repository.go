package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"printbay/database"
	"printbay/models"
)

// CommunityBoostRepository implements the CommunityBoostRepository interface
type CommunityBoostRepository struct {
	q queryable
}

// NewCommunityBoostRepository creates a new community boost repository
func NewCommunityBoostRepository(db *database.DB) *CommunityBoostRepository {
	return &CommunityBoostRepository{q: db.Pool}
}

// newCommunityBoostRepositoryWithTx creates a new community boost repository with a transaction
func newCommunityBoostRepositoryWithTx(tx queryable) *CommunityBoostRepository {
	return &CommunityBoostRepository{q: tx}
}

// Create creates a new boost row
func (r *CommunityBoostRepository) Create(ctx context.Context, boost *models.CommunityBoost) error {
	query := `
		INSERT INTO community_boosts (post_id, user_id, boost_type, boost_points, itc_amount, status, debit_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		boost.PostID,
		boost.UserID,
		boost.BoostType,
		boost.BoostPoints,
		boost.ITCAmount,
		boost.Status,
		boost.DebitTransactionID,
	).Scan(&boost.ID, &boost.CreatedAt, &boost.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create boost on post %d by user %d: %w", boost.PostID, boost.UserID, err)
	}

	return nil
}

// GetActiveFreeVote returns the active free-vote boost for (post, user), or nil
func (r *CommunityBoostRepository) GetActiveFreeVote(ctx context.Context, postID, userID int64) (*models.CommunityBoost, error) {
	query := `
		SELECT id, post_id, user_id, boost_type, boost_points, itc_amount, status, debit_transaction_id, created_at, updated_at
		FROM community_boosts
		WHERE post_id = $1 AND user_id = $2 AND boost_type = $3 AND status = $4
	`

	var boost models.CommunityBoost
	err := r.q.QueryRow(ctx, query, postID, userID, models.BoostTypeFreeVote, models.BoostStatusActive).Scan(
		&boost.ID,
		&boost.PostID,
		&boost.UserID,
		&boost.BoostType,
		&boost.BoostPoints,
		&boost.ITCAmount,
		&boost.Status,
		&boost.DebitTransactionID,
		&boost.CreatedAt,
		&boost.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active free vote for post %d user %d: %w", postID, userID, err)
	}

	return &boost, nil
}

// Deactivate marks a boost removed; the row is kept for audit
func (r *CommunityBoostRepository) Deactivate(ctx context.Context, boostID int64) error {
	query := `
		UPDATE community_boosts
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, models.BoostStatusRemoved, boostID, models.BoostStatusActive)
	if err != nil {
		return fmt.Errorf("failed to deactivate boost %d: %w", boostID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("boost %d not found or already removed", boostID)
	}

	return nil
}
