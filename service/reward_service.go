package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"printbay/models"
)

type rewardService struct {
	uowFactory UnitOfWorkFactory
	policy     *RewardPolicy
	now        func() time.Time
}

// NewRewardService creates a new reward service
func NewRewardService(uowFactory UnitOfWorkFactory, policy *RewardPolicy) RewardService {
	return &rewardService{
		uowFactory: uowFactory,
		policy:     policy,
		now:        time.Now,
	}
}

// CreditOrderReward computes and credits the points and ITC earned by a
// completed order. The points credit and the ITC credit commit together.
func (s *rewardService) CreditOrderReward(ctx context.Context, userID int64, orderID string, orderTotal decimal.Decimal) (*models.RewardCalculation, error) {
	if !orderTotal.IsPositive() {
		return nil, fmt.Errorf("%w: order total must be positive", ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lifetimeSpend, err := uow.OrderRepository().LifetimeSpend(ctx, userID)
	if err != nil {
		return nil, err
	}
	paidOrders, err := uow.OrderRepository().CountPaidByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier := s.policy.GetUserTier(lifetimeSpend)
	promo := s.policy.CurrentPromoMultiplier(s.now())
	calc := s.policy.ComputeOrderReward(orderTotal, tier, promo, paidOrders == 0)

	// Ceiling breaches are rejected outright, never clamped
	if err := s.policy.ValidateRewardCalculation(orderTotal, calc.Points, calc.ITC); err != nil {
		return nil, err
	}

	related := &models.RelatedEntity{Type: models.RelatedTypeOrder, ID: orderID}
	metadata := map[string]any{
		"order_id":    orderID,
		"order_total": orderTotal.String(),
		"tier":        calc.Tier,
		"breakdown":   calc.Breakdown,
	}

	if calc.Points > 0 {
		_, err = applyLedgerDelta(ctx, uow, DeltaRequest{
			UserID:      userID,
			Currency:    models.CurrencyPoints,
			Amount:      decimal.NewFromInt(calc.Points),
			Type:        models.TransactionTypeReward,
			Description: calc.Reason,
			Related:     related,
			Metadata:    metadata,
		})
		if err != nil {
			return nil, err
		}
	}

	if calc.ITC.IsPositive() {
		_, err = applyLedgerDelta(ctx, uow, DeltaRequest{
			UserID:      userID,
			Currency:    models.CurrencyITC,
			Amount:      calc.ITC,
			Type:        models.TransactionTypeReward,
			Description: calc.Reason,
			Related:     related,
			Metadata:    metadata,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &calc, nil
}

// CreditReferralReward credits a referral reward to the referrer
func (s *rewardService) CreditReferralReward(ctx context.Context, referrerID int64, kind models.ReferralKind, purchaseAmount decimal.Decimal) (*models.Transaction, error) {
	points, err := s.policy.ComputeReferralReward(kind, purchaseAmount)
	if err != nil {
		return nil, err
	}
	if points == 0 {
		return nil, nil
	}

	return s.creditPoints(ctx, referrerID, points, models.TransactionTypeReferral,
		fmt.Sprintf("referral reward (%s)", kind),
		map[string]any{
			"referral_kind":   string(kind),
			"purchase_amount": purchaseAmount.String(),
		})
}

// CreditMilestoneReward credits a milestone reward
func (s *rewardService) CreditMilestoneReward(ctx context.Context, userID int64, kind models.MilestoneKind) (*models.Transaction, error) {
	points, err := s.policy.ComputeMilestoneReward(kind)
	if err != nil {
		return nil, err
	}
	if points == 0 {
		return nil, nil
	}

	return s.creditPoints(ctx, userID, points, models.TransactionTypeMilestone,
		fmt.Sprintf("milestone reward (%s)", kind),
		map[string]any{
			"milestone_kind": string(kind),
		})
}

func (s *rewardService) creditPoints(ctx context.Context, userID, points int64, txType models.TransactionType, description string, metadata map[string]any) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txn, err := applyLedgerDelta(ctx, uow, DeltaRequest{
		UserID:      userID,
		Currency:    models.CurrencyPoints,
		Amount:      decimal.NewFromInt(points),
		Type:        txType,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return txn, nil
}
