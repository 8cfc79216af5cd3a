package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"printbay/database"
	"printbay/models"
)

// CommunityPostRepository implements the CommunityPostRepository interface
type CommunityPostRepository struct {
	q queryable
}

// NewCommunityPostRepository creates a new community post repository
func NewCommunityPostRepository(db *database.DB) *CommunityPostRepository {
	return &CommunityPostRepository{q: db.Pool}
}

// newCommunityPostRepositoryWithTx creates a new community post repository with a transaction
func newCommunityPostRepositoryWithTx(tx queryable) *CommunityPostRepository {
	return &CommunityPostRepository{q: tx}
}

// Create creates a new post
func (r *CommunityPostRepository) Create(ctx context.Context, post *models.CommunityPost) error {
	query := `
		INSERT INTO community_posts (creator_id, title)
		VALUES ($1, $2)
		RETURNING id, free_vote_count, total_boost_score, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, post.CreatorID, post.Title).Scan(
		&post.ID,
		&post.FreeVoteCount,
		&post.TotalBoostScore,
		&post.CreatedAt,
		&post.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create community post for creator %d: %w", post.CreatorID, err)
	}

	return nil
}

// GetByID retrieves a post, or nil if none exists
func (r *CommunityPostRepository) GetByID(ctx context.Context, id int64) (*models.CommunityPost, error) {
	query := `
		SELECT id, creator_id, title, free_vote_count, total_boost_score, created_at, updated_at
		FROM community_posts
		WHERE id = $1
	`

	var post models.CommunityPost
	err := r.q.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.CreatorID,
		&post.Title,
		&post.FreeVoteCount,
		&post.TotalBoostScore,
		&post.CreatedAt,
		&post.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community post %d: %w", id, err)
	}

	return &post, nil
}

// AddBoostCounters atomically adjusts a post's boost score and free vote count
func (r *CommunityPostRepository) AddBoostCounters(ctx context.Context, postID int64, scoreDelta, voteDelta int64) error {
	query := `
		UPDATE community_posts
		SET total_boost_score = total_boost_score + $1,
		    free_vote_count = free_vote_count + $2,
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, scoreDelta, voteDelta, postID)
	if err != nil {
		return fmt.Errorf("failed to update counters for post %d: %w", postID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("community post %d not found", postID)
	}

	return nil
}

// ListFeed returns a page of posts ordered by the given sort
func (r *CommunityPostRepository) ListFeed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.CommunityPost, error) {
	orderBy := "created_at DESC, id DESC"
	if sort == models.FeedSortTop {
		orderBy = "total_boost_score DESC, id DESC"
	}

	query := `
		SELECT id, creator_id, title, free_vote_count, total_boost_score, created_at, updated_at
		FROM community_posts
		ORDER BY ` + orderBy + `
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list community feed: %w", err)
	}
	defer rows.Close()

	var posts []*models.CommunityPost
	for rows.Next() {
		var post models.CommunityPost
		err := rows.Scan(
			&post.ID,
			&post.CreatorID,
			&post.Title,
			&post.FreeVoteCount,
			&post.TotalBoostScore,
			&post.CreatedAt,
			&post.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community post: %w", err)
		}
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate community posts: %w", err)
	}

	return posts, nil
}
