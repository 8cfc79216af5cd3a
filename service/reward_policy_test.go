package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printbay/config"
	"printbay/models"
)

func testPolicy() *RewardPolicy {
	return NewRewardPolicy(config.DefaultRewardPolicy())
}

func goldTier(t *testing.T) models.RewardTier {
	t.Helper()
	for _, tier := range config.DefaultRewardPolicy().Tiers {
		if tier.Name == "gold" {
			return tier
		}
	}
	t.Fatal("gold tier missing from default policy")
	return models.RewardTier{}
}

func TestRewardPolicy_ComputeOrderReward(t *testing.T) {
	policy := testPolicy()

	t.Run("gold tier, no promo, not first purchase", func(t *testing.T) {
		calc := policy.ComputeOrderReward(decimal.NewFromInt(100), goldTier(t), 1.0, false)

		assert.Equal(t, int64(10000), calc.Breakdown.BasePoints)
		assert.Equal(t, int64(5000), calc.Breakdown.TierBonus)
		assert.Equal(t, int64(0), calc.Breakdown.PromoBonus)
		assert.Equal(t, int64(0), calc.Breakdown.FirstPurchaseBonus)
		assert.Equal(t, int64(15000), calc.Points)
		assert.True(t, calc.ITC.Equal(decimal.NewFromInt(1)), "expected 1.00 ITC, got %s", calc.ITC)
		assert.Equal(t, "gold", calc.Tier)
		assert.NotEmpty(t, calc.Reason)
	})

	t.Run("first purchase doubles base", func(t *testing.T) {
		calc := policy.ComputeOrderReward(decimal.NewFromInt(100), goldTier(t), 1.0, true)

		// firstPurchaseMultiplier 2.0 adds another basePoints worth
		assert.Equal(t, int64(10000), calc.Breakdown.FirstPurchaseBonus)
		assert.Equal(t, int64(25000), calc.Points)
	})

	t.Run("promo bonus applies to base points", func(t *testing.T) {
		calc := policy.ComputeOrderReward(decimal.NewFromInt(100), goldTier(t), 1.5, false)

		assert.Equal(t, int64(5000), calc.Breakdown.PromoBonus)
		assert.Equal(t, int64(20000), calc.Points)
	})

	t.Run("fractional totals floor", func(t *testing.T) {
		calc := policy.ComputeOrderReward(decimal.NewFromFloat(10.99), goldTier(t), 1.0, false)

		assert.Equal(t, int64(1099), calc.Breakdown.BasePoints)
		assert.Equal(t, int64(549), calc.Breakdown.TierBonus)
		assert.Equal(t, int64(1648), calc.Points)
	})

	t.Run("same inputs yield same result", func(t *testing.T) {
		a := policy.ComputeOrderReward(decimal.NewFromInt(42), goldTier(t), 1.5, true)
		b := policy.ComputeOrderReward(decimal.NewFromInt(42), goldTier(t), 1.5, true)
		assert.Equal(t, a, b)
	})
}

func TestRewardPolicy_GetUserTier(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		spend string
		want  string
	}{
		{"0", "bronze"},
		{"99.99", "bronze"},
		{"100", "silver"},
		{"499.99", "silver"},
		{"500", "gold"},
		{"1999.99", "gold"},
		{"2000", "platinum"},
		{"100000", "platinum"},
	}

	for _, tt := range tests {
		spend, err := decimal.NewFromString(tt.spend)
		require.NoError(t, err)
		assert.Equal(t, tt.want, policy.GetUserTier(spend).Name, "spend %s", tt.spend)
	}
}

func TestRewardPolicy_CurrentPromoMultiplier(t *testing.T) {
	policy := testPolicy()

	// Wednesday 2026-01-07
	weekdayMorning := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, policy.CurrentPromoMultiplier(weekdayMorning))

	weekdayHappyHour := time.Date(2026, 1, 7, 19, 30, 0, 0, time.UTC)
	assert.Equal(t, 1.5, policy.CurrentPromoMultiplier(weekdayHappyHour))

	// Saturday
	weekendMorning := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 2.0, policy.CurrentPromoMultiplier(weekendMorning))

	// Saturday during happy hour stacks
	weekendHappyHour := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, 3.0, policy.CurrentPromoMultiplier(weekendHappyHour))

	// Happy hour end is exclusive
	justAfter := time.Date(2026, 1, 7, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, policy.CurrentPromoMultiplier(justAfter))
}

func TestRewardPolicy_ValidateRewardCalculation(t *testing.T) {
	policy := testPolicy()
	total := decimal.NewFromInt(100)

	t.Run("within ceilings", func(t *testing.T) {
		err := policy.ValidateRewardCalculation(total, 15000, decimal.NewFromInt(1))
		assert.NoError(t, err)
	})

	t.Run("points over ceiling", func(t *testing.T) {
		// ceiling is 500 points per dollar
		err := policy.ValidateRewardCalculation(total, 50001, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrRewardOutOfPolicy)
	})

	t.Run("itc over ceiling", func(t *testing.T) {
		// ceiling is 0.05 ITC per dollar
		err := policy.ValidateRewardCalculation(total, 100, decimal.NewFromFloat(5.01))
		assert.ErrorIs(t, err, ErrRewardOutOfPolicy)
	})
}

func TestRewardPolicy_ComputeReferralReward(t *testing.T) {
	policy := testPolicy()

	t.Run("signup", func(t *testing.T) {
		points, err := policy.ComputeReferralReward(models.ReferralKindSignup, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, int64(500), points)
	})

	t.Run("first purchase earns percentage of base points", func(t *testing.T) {
		points, err := policy.ComputeReferralReward(models.ReferralKindFirstPurchase, decimal.NewFromInt(100))
		require.NoError(t, err)
		// 10000 base points, 10 percent
		assert.Equal(t, int64(1000), points)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		_, err := policy.ComputeReferralReward(models.ReferralKind("bogus"), decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestRewardPolicy_ComputeMilestoneReward(t *testing.T) {
	policy := testPolicy()

	points, err := policy.ComputeMilestoneReward(models.MilestoneFirstSale)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), points)

	_, err = policy.ComputeMilestoneReward(models.MilestoneKind("bogus"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
