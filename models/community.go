package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoostType distinguishes a free vote from a paid boost.
type BoostType string

const (
	BoostTypeFreeVote  BoostType = "free_vote"
	BoostTypePaidBoost BoostType = "paid_boost"
)

// BoostStatus tracks whether a boost still counts toward a post's score.
type BoostStatus string

const (
	BoostStatusActive  BoostStatus = "active"
	BoostStatusRemoved BoostStatus = "removed"
)

// CommunityPost is a published design in the community feed. Its counters
// are mutated only through the boost economy's rules, never by the creator
// directly.
type CommunityPost struct {
	ID              int64     `db:"id"`
	CreatorID       int64     `db:"creator_id"`
	Title           string    `db:"title"`
	FreeVoteCount   int64     `db:"free_vote_count"`
	TotalBoostScore int64     `db:"total_boost_score"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// CommunityBoost is one user's vote or paid boost on one post.
// At most one active free-vote boost may exist per (post, user) pair;
// the database enforces this with a partial unique index.
// DebitTransactionID ties a paid boost back to the ledger debit that paid
// for it; a committed debit with no boost row pointing at it is an orphan
// the reconciliation sweep refunds. Free votes carry no debit.
type CommunityBoost struct {
	ID                 int64           `db:"id"`
	PostID             int64           `db:"post_id"`
	UserID             int64           `db:"user_id"`
	BoostType          BoostType       `db:"boost_type"`
	BoostPoints        int64           `db:"boost_points"`
	ITCAmount          decimal.Decimal `db:"itc_amount"`
	Status             BoostStatus     `db:"status"`
	DebitTransactionID *int64          `db:"debit_transaction_id"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// CommunityBoostEarning ties a boost to the ledger transaction that
// credited the post's creator. One row per crediting event, never retracted
// even if the originating vote is later removed.
type CommunityBoostEarning struct {
	ID            int64           `db:"id"`
	BoostID       int64           `db:"boost_id"`
	PostID        int64           `db:"post_id"`
	CreatorID     int64           `db:"creator_id"`
	BoosterID     int64           `db:"booster_id"`
	TransactionID int64           `db:"transaction_id"`
	ITCAmount     decimal.Decimal `db:"itc_amount"`
	CreatedAt     time.Time       `db:"created_at"`
}

// FeedSort orders the community feed.
type FeedSort string

const (
	FeedSortNew FeedSort = "new"
	FeedSortTop FeedSort = "top"
)

// LeaderboardPeriod bounds a creator leaderboard query.
type LeaderboardPeriod string

const (
	LeaderboardWeekly  LeaderboardPeriod = "weekly"
	LeaderboardMonthly LeaderboardPeriod = "monthly"
	LeaderboardAllTime LeaderboardPeriod = "all_time"
)

// LeaderboardEntry is one creator's aggregate earnings over a period.
type LeaderboardEntry struct {
	CreatorID  int64           `db:"creator_id" json:"creator_id"`
	BoostCount int64           `db:"boost_count" json:"boost_count"`
	ITCEarned  decimal.Decimal `db:"itc_earned" json:"itc_earned"`
}
