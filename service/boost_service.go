package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"printbay/config"
	"printbay/events"
	"printbay/models"
)

const (
	defaultFeedPageSize    = 20
	maxFeedPageSize        = 100
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type boostService struct {
	uowFactory UnitOfWorkFactory
	ledger     LedgerService
	cfg        config.BoostPolicyConfig
	cache      *LeaderboardCache
	now        func() time.Time
}

// NewBoostService creates a new boost service. The cache may be nil, in
// which case every leaderboard read hits the database.
func NewBoostService(uowFactory UnitOfWorkFactory, ledger LedgerService, cfg config.BoostPolicyConfig, cache *LeaderboardCache) BoostService {
	return &boostService{
		uowFactory: uowFactory,
		ledger:     ledger,
		cfg:        cfg,
		cache:      cache,
		now:        time.Now,
	}
}

// CreatePost publishes a design into the community feed
func (s *boostService) CreatePost(ctx context.Context, creatorID int64, title string) (*models.CommunityPost, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: post title is required", ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	post := &models.CommunityPost{
		CreatorID: creatorID,
		Title:     title,
	}
	if err := uow.CommunityPostRepository().Create(ctx, post); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return post, nil
}

// ToggleFreeVote toggles the caller's free vote on a post. Voting credits the
// creator; un-voting removes the vote but never claws the credit back.
func (s *boostService) ToggleFreeVote(ctx context.Context, userID, postID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	post, err := uow.CommunityPostRepository().GetByID(ctx, postID)
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, fmt.Errorf("post %d: %w", postID, ErrPostNotFound)
	}
	if post.CreatorID == userID {
		return false, ErrSelfInteractionForbidden
	}

	existing, err := uow.CommunityBoostRepository().GetActiveFreeVote(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	if existing != nil {
		// Un-vote: the vote count drops, the creator's earned ITC stays
		if err := uow.CommunityBoostRepository().Deactivate(ctx, existing.ID); err != nil {
			return false, err
		}
		if err := uow.CommunityPostRepository().AddBoostCounters(ctx, postID, 0, -1); err != nil {
			return false, err
		}

		if err := uow.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return false, nil
	}

	boost := &models.CommunityBoost{
		PostID:      postID,
		UserID:      userID,
		BoostType:   models.BoostTypeFreeVote,
		BoostPoints: s.cfg.FreeVoteBoostPoints,
		ITCAmount:   decimal.Zero,
		Status:      models.BoostStatusActive,
	}
	if err := uow.CommunityBoostRepository().Create(ctx, boost); err != nil {
		// A concurrent request already recorded this vote; the end state
		// the caller asked for (voted) holds either way
		if isUniqueViolation(err) {
			log.WithFields(log.Fields{
				"userID": userID,
				"postID": postID,
			}).Info("Free vote already recorded by a concurrent request")
			return true, nil
		}
		return false, err
	}

	if err := uow.CommunityPostRepository().AddBoostCounters(ctx, postID, s.cfg.FreeVoteBoostPoints, 1); err != nil {
		return false, err
	}

	if err := s.creditCreatorITC(ctx, uow, post, boost); err != nil {
		return false, err
	}

	uow.EventBus().Publish(events.BoostCreatedEvent{
		BoostID:     boost.ID,
		PostID:      postID,
		BoosterID:   userID,
		CreatorID:   post.CreatorID,
		BoostType:   models.BoostTypeFreeVote,
		BoostPoints: boost.BoostPoints,
	})

	if err := uow.Commit(); err != nil {
		if isUniqueViolation(err) {
			log.WithFields(log.Fields{
				"userID": userID,
				"postID": postID,
			}).Info("Free vote already recorded by a concurrent request")
			return true, nil
		}
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// CreatePaidBoost debits the booster and boosts the post. The debit and the
// boost commit separately; a failure after the debit refunds it through the
// ledger so the booster is never left debited with nothing to show. If the
// refund also fails, the reconciliation sweep picks the debit up later.
func (s *boostService) CreatePaidBoost(ctx context.Context, userID, postID int64, itcAmount decimal.Decimal) (*PaidBoostResult, error) {
	if itcAmount.LessThan(s.cfg.MinPaidBoostITC) || itcAmount.GreaterThan(s.cfg.MaxPaidBoostITC) {
		return nil, fmt.Errorf("%w: boost amount %s must be between %s and %s ITC",
			ErrInvalidAmount, itcAmount.String(), s.cfg.MinPaidBoostITC.String(), s.cfg.MaxPaidBoostITC.String())
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrPostNotFound)
	}
	if post.CreatorID == userID {
		return nil, ErrSelfInteractionForbidden
	}

	boostPoints := itcAmount.Mul(decimal.NewFromInt(s.cfg.PaidBoostMultiplier)).Floor().IntPart()

	debit, err := s.ledger.ApplyDelta(ctx, DeltaRequest{
		UserID:      userID,
		Currency:    models.CurrencyITC,
		Amount:      itcAmount.Neg(),
		Type:        models.TransactionTypeBoostSpent,
		Description: fmt.Sprintf("paid boost on post %d", postID),
		Related:     &models.RelatedEntity{Type: models.RelatedTypeCommunityPost, ID: strconv.FormatInt(postID, 10)},
		Metadata: map[string]any{
			"post_id":      postID,
			"boost_points": boostPoints,
		},
	})
	if err != nil {
		return nil, err
	}

	boost, err := s.recordPaidBoost(ctx, post, userID, itcAmount, boostPoints, debit.ID)
	if err != nil {
		s.refundDebit(ctx, userID, postID, itcAmount, debit.ID)
		return nil, err
	}

	return &PaidBoostResult{
		BoostID:     boost.ID,
		BoostPoints: boostPoints,
		NewBalance:  debit.BalanceAfter,
	}, nil
}

// recordPaidBoost writes the boost row, the post counters, the creator
// credit and the earning row as one unit. The boost row points back at the
// ledger debit that paid for it; the reconciliation sweep uses that link to
// spot debits whose boost never landed.
func (s *boostService) recordPaidBoost(ctx context.Context, post *models.CommunityPost, userID int64, itcAmount decimal.Decimal, boostPoints, debitTxnID int64) (*models.CommunityBoost, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	boost := &models.CommunityBoost{
		PostID:             post.ID,
		UserID:             userID,
		BoostType:          models.BoostTypePaidBoost,
		BoostPoints:        boostPoints,
		ITCAmount:          itcAmount,
		Status:             models.BoostStatusActive,
		DebitTransactionID: &debitTxnID,
	}
	if err := uow.CommunityBoostRepository().Create(ctx, boost); err != nil {
		return nil, err
	}

	if err := uow.CommunityPostRepository().AddBoostCounters(ctx, post.ID, boostPoints, 0); err != nil {
		return nil, err
	}

	if err := s.creditCreatorITC(ctx, uow, post, boost); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BoostCreatedEvent{
		BoostID:     boost.ID,
		PostID:      post.ID,
		BoosterID:   userID,
		CreatorID:   post.CreatorID,
		BoostType:   models.BoostTypePaidBoost,
		BoostPoints: boostPoints,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return boost, nil
}

// creditCreatorITC credits the flat per-boost amount to the post's creator
// and records the earning row inside the caller's unit of work. The amount
// is fixed regardless of what the booster paid.
func (s *boostService) creditCreatorITC(ctx context.Context, uow UnitOfWork, post *models.CommunityPost, boost *models.CommunityBoost) error {
	txn, err := applyLedgerDelta(ctx, uow, DeltaRequest{
		UserID:      post.CreatorID,
		Currency:    models.CurrencyITC,
		Amount:      s.cfg.CreatorEarnPerBoost,
		Type:        models.TransactionTypeBoostEarned,
		Description: fmt.Sprintf("boost earning on post %d", post.ID),
		Related:     &models.RelatedEntity{Type: models.RelatedTypeBoost, ID: strconv.FormatInt(boost.ID, 10)},
		Metadata: map[string]any{
			"post_id":    post.ID,
			"booster_id": boost.UserID,
			"boost_type": string(boost.BoostType),
		},
	})
	if err != nil {
		return err
	}

	earning := &models.CommunityBoostEarning{
		BoostID:       boost.ID,
		PostID:        post.ID,
		CreatorID:     post.CreatorID,
		BoosterID:     boost.UserID,
		TransactionID: txn.ID,
		ITCAmount:     s.cfg.CreatorEarnPerBoost,
	}
	return uow.BoostEarningRepository().Record(ctx, earning)
}

// refundDebit reverses an already-committed boost debit through the ledger.
// A refund failure is logged for the reconciliation sweep; there is nothing
// further to roll back at this point.
func (s *boostService) refundDebit(ctx context.Context, userID, postID int64, itcAmount decimal.Decimal, debitTxnID int64) {
	_, err := s.ledger.ApplyDelta(ctx, DeltaRequest{
		UserID:      userID,
		Currency:    models.CurrencyITC,
		Amount:      itcAmount,
		Type:        models.TransactionTypeRefund,
		Description: fmt.Sprintf("refund for failed paid boost on post %d", postID),
		Related:     &models.RelatedEntity{Type: models.RelatedTypeTransaction, ID: strconv.FormatInt(debitTxnID, 10)},
		Metadata: map[string]any{
			"post_id":        postID,
			"debit_txn_id":   debitTxnID,
			"refund_attempt": true,
		},
	})
	if err != nil {
		// A unique violation means the debit is already refunded, most
		// likely by the reconciliation sweep
		if isUniqueViolation(err) {
			log.WithFields(log.Fields{
				"userID":     userID,
				"debitTxnID": debitTxnID,
			}).Info("Boost debit already refunded")
			return
		}
		log.WithFields(log.Fields{
			"userID":     userID,
			"postID":     postID,
			"amount":     itcAmount.String(),
			"debitTxnID": debitTxnID,
		}).WithError(err).Error("Failed to refund boost debit, leaving it for the reconciliation sweep")
	}
}

func (s *boostService) getPost(ctx context.Context, postID int64) (*models.CommunityPost, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	post, err := uow.CommunityPostRepository().GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return post, nil
}

// ListFeed returns a page of the community feed
func (s *boostService) ListFeed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.CommunityPost, error) {
	if sort != models.FeedSortNew && sort != models.FeedSortTop {
		sort = models.FeedSortNew
	}
	if limit <= 0 {
		limit = defaultFeedPageSize
	}
	if limit > maxFeedPageSize {
		limit = maxFeedPageSize
	}
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	posts, err := uow.CommunityPostRepository().ListFeed(ctx, sort, limit, offset)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return posts, nil
}

// Leaderboard returns the top-earning creators for a period
func (s *boostService) Leaderboard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	var since *time.Time
	switch period {
	case models.LeaderboardWeekly:
		t := s.now().AddDate(0, 0, -7)
		since = &t
	case models.LeaderboardMonthly:
		t := s.now().AddDate(0, -1, 0)
		since = &t
	case models.LeaderboardAllTime:
		// no lower bound
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard period %q", ErrInvalidAmount, period)
	}

	if entries, ok := s.cache.Get(ctx, period, limit); ok {
		return entries, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.BoostEarningRepository().TopCreators(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Set(ctx, period, limit, entries)

	return entries, nil
}
