package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"printbay/models"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	ListenAddr string

	// Database configuration
	DatabaseURL string

	// Redis (leaderboard / feed caching)
	RedisURL string

	// Auth
	JWTSecret string

	// Payment processor (Midtrans)
	MidtransServerKey string
	MidtransSandbox   bool

	// Reward policy
	Rewards RewardPolicyConfig

	// Boost economy policy
	Boosts BoostPolicyConfig

	// Environment: "development", "production" or "test"
	Environment string
}

// RewardPolicyConfig holds the constants the reward policy engine computes with.
type RewardPolicyConfig struct {
	BasePointsPerDollar     int64
	FirstPurchaseMultiplier float64
	WeekendMultiplier       float64
	HappyHourMultiplier     float64
	HappyHourStartUTC       int
	HappyHourEndUTC         int

	// Anti-abuse ceilings
	MaxPointsPerDollar int64
	MaxITCRate         decimal.Decimal

	Tiers []models.RewardTier

	ReferralSignupPoints    int64
	ReferralPurchasePercent int64 // percent of purchase-derived base points
	MilestonePoints         map[models.MilestoneKind]int64
}

// BoostPolicyConfig holds the constants the boost economy computes with.
type BoostPolicyConfig struct {
	FreeVoteBoostPoints int64
	PaidBoostMultiplier int64
	MinPaidBoostITC     decimal.Decimal
	MaxPaidBoostITC     decimal.Decimal
	CreatorEarnPerBoost decimal.Decimal
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, with a best-effort .env file
func load() (*Config, error) {
	// Missing .env is fine in production; real env vars win either way
	_ = godotenv.Load()

	config := &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransSandbox:   os.Getenv("MIDTRANS_PRODUCTION") != "true",
		Environment:       getEnv("ENVIRONMENT", "development"),

		Rewards: DefaultRewardPolicy(),
		Boosts:  DefaultBoostPolicy(),
	}

	if v := os.Getenv("BASE_POINTS_PER_DOLLAR"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Rewards.BasePointsPerDollar = parsed
		}
	}
	if v := os.Getenv("CREATOR_EARN_PER_BOOST"); v != "" {
		if parsed, err := decimal.NewFromString(v); err == nil {
			config.Boosts.CreatorEarnPerBoost = parsed
		}
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DefaultRewardPolicy returns the platform's standard reward constants.
func DefaultRewardPolicy() RewardPolicyConfig {
	return RewardPolicyConfig{
		BasePointsPerDollar:     100,
		FirstPurchaseMultiplier: 2.0,
		WeekendMultiplier:       2.0,
		HappyHourMultiplier:     1.5,
		HappyHourStartUTC:       18,
		HappyHourEndUTC:         21,

		MaxPointsPerDollar: 500,
		MaxITCRate:         decimal.NewFromFloat(0.05),

		Tiers: []models.RewardTier{
			{Name: "bronze", PointsMultiplier: 1.0, ITCBonus: decimal.NewFromFloat(0.005), MinSpend: decimal.Zero},
			{Name: "silver", PointsMultiplier: 1.2, ITCBonus: decimal.NewFromFloat(0.0075), MinSpend: decimal.NewFromInt(100)},
			{Name: "gold", PointsMultiplier: 1.5, ITCBonus: decimal.NewFromFloat(0.01), MinSpend: decimal.NewFromInt(500)},
			{Name: "platinum", PointsMultiplier: 2.0, ITCBonus: decimal.NewFromFloat(0.02), MinSpend: decimal.NewFromInt(2000)},
		},

		ReferralSignupPoints:    500,
		ReferralPurchasePercent: 10,
		MilestonePoints: map[models.MilestoneKind]int64{
			models.MilestoneFirstDesign:    250,
			models.MilestoneFirstSale:      1000,
			models.MilestoneTenthSale:      5000,
			models.MilestoneHundredthBoost: 2500,
		},
	}
}

// DefaultBoostPolicy returns the platform's standard boost-economy constants.
func DefaultBoostPolicy() BoostPolicyConfig {
	return BoostPolicyConfig{
		FreeVoteBoostPoints: 10,
		PaidBoostMultiplier: 10,
		MinPaidBoostITC:     decimal.NewFromInt(1),
		MaxPaidBoostITC:     decimal.NewFromInt(100),
		CreatorEarnPerBoost: decimal.NewFromFloat(0.5),
	}
}
