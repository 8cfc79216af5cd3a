package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"printbay/config"
	"printbay/models"
)

// RewardPolicy computes rewards from policy constants. It holds no storage
// access and reads no clocks: every method is deterministic given its inputs,
// so callers inject the current time where a promotion window matters.
type RewardPolicy struct {
	cfg config.RewardPolicyConfig
}

// NewRewardPolicy creates a reward policy engine over the given constants
func NewRewardPolicy(cfg config.RewardPolicyConfig) *RewardPolicy {
	return &RewardPolicy{cfg: cfg}
}

// ComputeOrderReward returns the points and ITC earned by an order.
// Each bonus is computed against the base points and floored independently.
func (p *RewardPolicy) ComputeOrderReward(orderTotal decimal.Decimal, tier models.RewardTier, promoMultiplier float64, isFirstPurchase bool) models.RewardCalculation {
	basePoints := orderTotal.Mul(decimal.NewFromInt(p.cfg.BasePointsPerDollar)).Floor().IntPart()
	tierBonus := scalePoints(basePoints, tier.PointsMultiplier-1)
	promoBonus := scalePoints(basePoints, promoMultiplier-1)

	var firstPurchaseBonus int64
	if isFirstPurchase {
		firstPurchaseBonus = scalePoints(basePoints, p.cfg.FirstPurchaseMultiplier-1)
	}

	// ITC accrues from the tier rate alone; promotions apply to points only
	itc := orderTotal.Mul(tier.ITCBonus)

	reasons := []string{fmt.Sprintf("%d base points", basePoints)}
	if tierBonus > 0 {
		reasons = append(reasons, fmt.Sprintf("%s tier bonus %d", tier.Name, tierBonus))
	}
	if promoBonus > 0 {
		reasons = append(reasons, fmt.Sprintf("promo bonus %d (x%.2f)", promoBonus, promoMultiplier))
	}
	if firstPurchaseBonus > 0 {
		reasons = append(reasons, fmt.Sprintf("first purchase bonus %d", firstPurchaseBonus))
	}
	if itc.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("%s ITC at %s tier rate", itc.String(), tier.Name))
	}

	return models.RewardCalculation{
		Points: basePoints + tierBonus + promoBonus + firstPurchaseBonus,
		ITC:    itc,
		Tier:   tier.Name,
		Breakdown: models.RewardBreakdown{
			BasePoints:         basePoints,
			TierBonus:          tierBonus,
			PromoBonus:         promoBonus,
			FirstPurchaseBonus: firstPurchaseBonus,
		},
		Reason: strings.Join(reasons, ", "),
	}
}

// GetUserTier selects the highest tier whose threshold the user's lifetime
// spend meets or exceeds, defaulting to the lowest tier.
func (p *RewardPolicy) GetUserTier(lifetimeSpend decimal.Decimal) models.RewardTier {
	best := p.cfg.Tiers[0]
	for _, tier := range p.cfg.Tiers {
		if lifetimeSpend.GreaterThanOrEqual(tier.MinSpend) && tier.MinSpend.GreaterThanOrEqual(best.MinSpend) {
			best = tier
		}
	}
	return best
}

// CurrentPromoMultiplier returns the promotional multiplier active at the
// given instant. Windows are evaluated in UTC and stack multiplicatively.
func (p *RewardPolicy) CurrentPromoMultiplier(now time.Time) float64 {
	now = now.UTC()
	multiplier := 1.0

	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		multiplier *= p.cfg.WeekendMultiplier
	}
	if h := now.Hour(); h >= p.cfg.HappyHourStartUTC && h < p.cfg.HappyHourEndUTC {
		multiplier *= p.cfg.HappyHourMultiplier
	}

	return multiplier
}

// ValidateRewardCalculation is the anti-abuse ceiling check. A breach is
// rejected, never clamped.
func (p *RewardPolicy) ValidateRewardCalculation(orderTotal decimal.Decimal, points int64, itc decimal.Decimal) error {
	maxPoints := orderTotal.Mul(decimal.NewFromInt(p.cfg.MaxPointsPerDollar))
	if decimal.NewFromInt(points).GreaterThan(maxPoints) {
		return fmt.Errorf("%w: %d points exceeds ceiling %s for order total %s",
			ErrRewardOutOfPolicy, points, maxPoints.String(), orderTotal.String())
	}

	maxITC := orderTotal.Mul(p.cfg.MaxITCRate)
	if itc.GreaterThan(maxITC) {
		return fmt.Errorf("%w: %s ITC exceeds ceiling %s for order total %s",
			ErrRewardOutOfPolicy, itc.String(), maxITC.String(), orderTotal.String())
	}

	return nil
}

// ComputeReferralReward returns the points for a referral event. First
// purchase referrals earn a percentage of the purchase's base points.
func (p *RewardPolicy) ComputeReferralReward(kind models.ReferralKind, purchaseAmount decimal.Decimal) (int64, error) {
	switch kind {
	case models.ReferralKindSignup:
		return p.cfg.ReferralSignupPoints, nil
	case models.ReferralKindFirstPurchase:
		basePoints := purchaseAmount.Mul(decimal.NewFromInt(p.cfg.BasePointsPerDollar)).Floor().IntPart()
		return basePoints * p.cfg.ReferralPurchasePercent / 100, nil
	default:
		return 0, fmt.Errorf("%w: unknown referral kind %q", ErrInvalidAmount, kind)
	}
}

// ComputeMilestoneReward returns the points for a milestone event
func (p *RewardPolicy) ComputeMilestoneReward(kind models.MilestoneKind) (int64, error) {
	points, ok := p.cfg.MilestonePoints[kind]
	if !ok {
		return 0, fmt.Errorf("%w: unknown milestone kind %q", ErrInvalidAmount, kind)
	}
	return points, nil
}

func scalePoints(points int64, factor float64) int64 {
	if factor <= 0 {
		return 0
	}
	return decimal.NewFromInt(points).Mul(decimal.NewFromFloat(factor)).Floor().IntPart()
}
