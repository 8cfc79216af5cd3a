package models

import (
	"github.com/shopspring/decimal"
)

// RewardTier is a spend-based classification that scales reward multipliers.
// Tiers are totally ordered by MinSpend; a user's tier is the highest tier
// whose threshold their lifetime spend meets or exceeds.
type RewardTier struct {
	Name             string
	PointsMultiplier float64
	ITCBonus         decimal.Decimal
	MinSpend         decimal.Decimal
}

// RewardBreakdown exposes each bonus component of an order reward for
// display and audit.
type RewardBreakdown struct {
	BasePoints         int64 `json:"base_points"`
	TierBonus          int64 `json:"tier_bonus"`
	PromoBonus         int64 `json:"promo_bonus"`
	FirstPurchaseBonus int64 `json:"first_purchase_bonus"`
}

// RewardCalculation is the pure output of the reward policy engine for
// a single order.
type RewardCalculation struct {
	Points    int64           `json:"points"`
	ITC       decimal.Decimal `json:"itc"`
	Tier      string          `json:"tier"`
	Breakdown RewardBreakdown `json:"breakdown"`
	Reason    string          `json:"reason"`
}

// ReferralKind names a referral reward table entry.
type ReferralKind string

const (
	ReferralKindSignup        ReferralKind = "signup"
	ReferralKindFirstPurchase ReferralKind = "first_purchase"
)

// MilestoneKind names a milestone reward table entry.
type MilestoneKind string

const (
	MilestoneFirstDesign    MilestoneKind = "first_design"
	MilestoneFirstSale      MilestoneKind = "first_sale"
	MilestoneTenthSale      MilestoneKind = "tenth_sale"
	MilestoneHundredthBoost MilestoneKind = "hundredth_boost"
)
