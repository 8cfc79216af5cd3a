package repository

import (
	"context"
	"fmt"
	"time"

	"printbay/database"
	"printbay/models"
)

// BoostEarningRepository implements the BoostEarningRepository interface
type BoostEarningRepository struct {
	q queryable
}

// NewBoostEarningRepository creates a new boost earning repository
func NewBoostEarningRepository(db *database.DB) *BoostEarningRepository {
	return &BoostEarningRepository{q: db.Pool}
}

// newBoostEarningRepositoryWithTx creates a new boost earning repository with a transaction
func newBoostEarningRepositoryWithTx(tx queryable) *BoostEarningRepository {
	return &BoostEarningRepository{q: tx}
}

// Record creates a new earning row tying a boost to its crediting transaction
func (r *BoostEarningRepository) Record(ctx context.Context, earning *models.CommunityBoostEarning) error {
	query := `
		INSERT INTO community_boost_earnings (boost_id, post_id, creator_id, booster_id, transaction_id, itc_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		earning.BoostID,
		earning.PostID,
		earning.CreatorID,
		earning.BoosterID,
		earning.TransactionID,
		earning.ITCAmount,
	).Scan(&earning.ID, &earning.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record boost earning for creator %d: %w", earning.CreatorID, err)
	}

	return nil
}

// TopCreators aggregates earnings per creator since the given time (nil for
// all time), ordered by ITC earned descending
func (r *BoostEarningRepository) TopCreators(ctx context.Context, since *time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	where := ""
	args := []any{}
	if since != nil {
		args = append(args, *since)
		where = "WHERE created_at >= $1"
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT creator_id, COUNT(*) AS boost_count, SUM(itc_amount) AS itc_earned
		FROM community_boost_earnings
		%s
		GROUP BY creator_id
		ORDER BY itc_earned DESC, creator_id ASC
		LIMIT $%d
	`, where, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top creators: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.CreatorID, &entry.BoostCount, &entry.ITCEarned); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard entries: %w", err)
	}

	return entries, nil
}
