package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"printbay/config"
	"printbay/events"
	"printbay/models"
)

type boostFixture struct {
	uow     *MockUnitOfWork
	wallet  *MockWalletRepository
	txn     *MockTransactionRepository
	posts   *MockCommunityPostRepository
	boosts  *MockCommunityBoostRepository
	earning *MockBoostEarningRepository
	ledger  *MockLedgerService
	svc     BoostService
}

func newBoostFixture() *boostFixture {
	f := &boostFixture{
		uow:     new(MockUnitOfWork),
		wallet:  new(MockWalletRepository),
		txn:     new(MockTransactionRepository),
		posts:   new(MockCommunityPostRepository),
		boosts:  new(MockCommunityBoostRepository),
		earning: new(MockBoostEarningRepository),
		ledger:  new(MockLedgerService),
	}
	f.uow.SetRepositories(f.wallet, f.txn, f.posts, f.boosts, f.earning, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(f.uow)

	f.svc = NewBoostService(factory, f.ledger, config.DefaultBoostPolicy(), nil)
	return f
}

func (f *boostFixture) allowTransactionLifecycle(ctx context.Context) {
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
}

// expectCreatorCredit wires the wallet, transaction and earning calls made
// when a boost credits the post's creator
func (f *boostFixture) expectCreatorCredit(ctx context.Context, creatorID int64) {
	earn := config.DefaultBoostPolicy().CreatorEarnPerBoost
	f.wallet.On("EnsureExists", ctx, creatorID).Return(false, nil)
	f.wallet.On("ApplyDelta", ctx, creatorID, models.CurrencyITC, earn).
		Return(decimal.NewFromFloat(10.5), nil)
	f.txn.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.UserID == creatorID && txn.Type == models.TransactionTypeBoostEarned
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Transaction).ID = 900
	})
	f.earning.On("Record", ctx, mock.MatchedBy(func(e *models.CommunityBoostEarning) bool {
		return e.CreatorID == creatorID && e.TransactionID == 900 && e.ITCAmount.Equal(earn)
	})).Return(nil)
}

func TestBoostService_CreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("empty title rejected", func(t *testing.T) {
		f := newBoostFixture()
		_, err := f.svc.CreatePost(ctx, 1, "   ")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("creates post", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		f.posts.On("Create", ctx, mock.MatchedBy(func(p *models.CommunityPost) bool {
			return p.CreatorID == 1 && p.Title == "midnight skyline tee"
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*models.CommunityPost).ID = 5
		})

		post, err := f.svc.CreatePost(ctx, 1, "  midnight skyline tee  ")
		require.NoError(t, err)
		assert.Equal(t, int64(5), post.ID)
		assert.Equal(t, "midnight skyline tee", post.Title)
	})
}

func TestBoostService_ToggleFreeVote(t *testing.T) {
	ctx := context.Background()
	post := &models.CommunityPost{ID: 10, CreatorID: 2, Title: "retro cassette print"}

	t.Run("voting own post forbidden", func(t *testing.T) {
		f := newBoostFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)

		_, err := f.svc.ToggleFreeVote(ctx, 2, 10)
		assert.ErrorIs(t, err, ErrSelfInteractionForbidden)
		f.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("unknown post", func(t *testing.T) {
		f := newBoostFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.posts.On("GetByID", ctx, int64(99)).Return(nil, nil)

		_, err := f.svc.ToggleFreeVote(ctx, 1, 99)
		assert.ErrorIs(t, err, ErrPostNotFound)
	})

	t.Run("first toggle votes and credits the creator", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)
		f.boosts.On("GetActiveFreeVote", ctx, int64(10), int64(1)).Return(nil, nil)
		f.boosts.On("Create", ctx, mock.MatchedBy(func(b *models.CommunityBoost) bool {
			return b.PostID == 10 && b.UserID == 1 &&
				b.BoostType == models.BoostTypeFreeVote &&
				b.BoostPoints == 10 && b.ITCAmount.IsZero()
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*models.CommunityBoost).ID = 33
		})
		f.posts.On("AddBoostCounters", ctx, int64(10), int64(10), int64(1)).Return(nil)
		f.expectCreatorCredit(ctx, 2)

		voted, err := f.svc.ToggleFreeVote(ctx, 1, 10)
		require.NoError(t, err)
		assert.True(t, voted)

		published := f.uow.PublishedEvents()
		require.Len(t, published, 2)
		boostEvt, ok := published[1].(events.BoostCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(33), boostEvt.BoostID)
		assert.Equal(t, models.BoostTypeFreeVote, boostEvt.BoostType)

		f.boosts.AssertExpectations(t)
		f.earning.AssertExpectations(t)
	})

	t.Run("concurrent duplicate vote resolves as voted", func(t *testing.T) {
		f := newBoostFixture()
		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)
		// Both requests pass the lookup before either inserts; the loser
		// hits the one-active-free-vote index
		f.boosts.On("GetActiveFreeVote", ctx, int64(10), int64(1)).Return(nil, nil)
		f.boosts.On("Create", ctx, mock.Anything).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "idx_community_boosts_active_free_vote"})

		voted, err := f.svc.ToggleFreeVote(ctx, 1, 10)
		require.NoError(t, err)
		assert.True(t, voted)

		f.uow.AssertNotCalled(t, "Commit")
		f.wallet.AssertNotCalled(t, "ApplyDelta")
	})

	t.Run("second toggle un-votes without touching the score", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		existing := &models.CommunityBoost{ID: 33, PostID: 10, UserID: 1, BoostType: models.BoostTypeFreeVote}
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)
		f.boosts.On("GetActiveFreeVote", ctx, int64(10), int64(1)).Return(existing, nil)
		f.boosts.On("Deactivate", ctx, int64(33)).Return(nil)
		// only the vote count drops; the boost score and the creator's
		// earnings are untouched
		f.posts.On("AddBoostCounters", ctx, int64(10), int64(0), int64(-1)).Return(nil)

		voted, err := f.svc.ToggleFreeVote(ctx, 1, 10)
		require.NoError(t, err)
		assert.False(t, voted)

		f.wallet.AssertNotCalled(t, "ApplyDelta")
		f.boosts.AssertExpectations(t)
	})
}

func TestBoostService_CreatePaidBoost(t *testing.T) {
	ctx := context.Background()
	post := &models.CommunityPost{ID: 10, CreatorID: 2, Title: "retro cassette print"}

	t.Run("amount bounds enforced", func(t *testing.T) {
		f := newBoostFixture()

		_, err := f.svc.CreatePaidBoost(ctx, 1, 10, decimal.NewFromFloat(0.5))
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = f.svc.CreatePaidBoost(ctx, 1, 10, decimal.NewFromInt(101))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("boosting own post forbidden", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)

		_, err := f.svc.CreatePaidBoost(ctx, 2, 10, decimal.NewFromInt(5))
		assert.ErrorIs(t, err, ErrSelfInteractionForbidden)
		f.ledger.AssertNotCalled(t, "ApplyDelta")
	})

	t.Run("debits, boosts and credits the creator", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)

		amount := decimal.NewFromInt(5)
		debit := &models.Transaction{ID: 77, BalanceAfter: decimal.NewFromInt(95)}
		f.ledger.On("ApplyDelta", ctx, mock.MatchedBy(func(req DeltaRequest) bool {
			return req.UserID == 1 &&
				req.Type == models.TransactionTypeBoostSpent &&
				req.Amount.Equal(amount.Neg())
		})).Return(debit, nil)

		f.boosts.On("Create", ctx, mock.MatchedBy(func(b *models.CommunityBoost) bool {
			return b.PostID == 10 && b.BoostType == models.BoostTypePaidBoost &&
				b.BoostPoints == 50 && b.ITCAmount.Equal(amount) &&
				b.DebitTransactionID != nil && *b.DebitTransactionID == 77
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*models.CommunityBoost).ID = 44
		})
		f.posts.On("AddBoostCounters", ctx, int64(10), int64(50), int64(0)).Return(nil)
		f.expectCreatorCredit(ctx, 2)

		result, err := f.svc.CreatePaidBoost(ctx, 1, 10, amount)
		require.NoError(t, err)
		assert.Equal(t, int64(44), result.BoostID)
		assert.Equal(t, int64(50), result.BoostPoints)
		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(95)))

		f.ledger.AssertExpectations(t)
		f.earning.AssertExpectations(t)
	})

	t.Run("insufficient balance surfaces without a boost", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)
		f.ledger.On("ApplyDelta", ctx, mock.Anything).
			Return(nil, NewInsufficientBalanceError(models.CurrencyITC, decimal.NewFromInt(5), decimal.NewFromInt(1)))

		_, err := f.svc.CreatePaidBoost(ctx, 1, 10, decimal.NewFromInt(5))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		f.boosts.AssertNotCalled(t, "Create")
	})

	t.Run("failed boost refunds the debit", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)
		f.posts.On("GetByID", ctx, int64(10)).Return(post, nil)

		amount := decimal.NewFromInt(5)
		debit := &models.Transaction{ID: 77, BalanceAfter: decimal.NewFromInt(95)}
		f.ledger.On("ApplyDelta", ctx, mock.MatchedBy(func(req DeltaRequest) bool {
			return req.Type == models.TransactionTypeBoostSpent
		})).Return(debit, nil)

		f.boosts.On("Create", ctx, mock.Anything).Return(errors.New("insert failed"))

		f.ledger.On("ApplyDelta", ctx, mock.MatchedBy(func(req DeltaRequest) bool {
			return req.UserID == 1 &&
				req.Type == models.TransactionTypeRefund &&
				req.Amount.Equal(amount) &&
				req.Related != nil &&
				req.Related.Type == models.RelatedTypeTransaction &&
				req.Related.ID == "77"
		})).Return(&models.Transaction{ID: 78}, nil)

		_, err := f.svc.CreatePaidBoost(ctx, 1, 10, amount)
		assert.Error(t, err)
		f.ledger.AssertExpectations(t)
	})
}

func TestBoostService_ListFeed(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture()
	f.allowTransactionLifecycle(ctx)

	// unknown sort falls back to new, limits are clamped
	f.posts.On("ListFeed", ctx, models.FeedSortNew, 100, 0).
		Return([]*models.CommunityPost{{ID: 1}}, nil)

	posts, err := f.svc.ListFeed(ctx, models.FeedSort("bogus"), 5000, -3)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	f.posts.AssertExpectations(t)
}

func TestBoostService_Leaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown period rejected", func(t *testing.T) {
		f := newBoostFixture()
		_, err := f.svc.Leaderboard(ctx, models.LeaderboardPeriod("quarterly"), 10)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("weekly window", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)

		now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		f.svc.(*boostService).now = func() time.Time { return now }

		weekAgo := now.AddDate(0, 0, -7)
		entries := []*models.LeaderboardEntry{{CreatorID: 2, ITCEarned: decimal.NewFromInt(12)}}
		f.earning.On("TopCreators", ctx, mock.MatchedBy(func(since *time.Time) bool {
			return since != nil && since.Equal(weekAgo)
		}), 10).Return(entries, nil)

		got, err := f.svc.Leaderboard(ctx, models.LeaderboardWeekly, 10)
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("all time has no lower bound", func(t *testing.T) {
		f := newBoostFixture()
		f.allowTransactionLifecycle(ctx)

		f.earning.On("TopCreators", ctx, (*time.Time)(nil), 10).
			Return([]*models.LeaderboardEntry{}, nil)

		_, err := f.svc.Leaderboard(ctx, models.LeaderboardAllTime, 0)
		require.NoError(t, err)
		f.earning.AssertExpectations(t)
	})
}
