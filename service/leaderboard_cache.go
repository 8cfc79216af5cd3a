package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"printbay/models"
)

// LeaderboardCache is a read-through cache for leaderboard pages. The
// leaderboard is an aggregation over every earning row, so it is the one
// read path worth shielding from the database. A nil cache disables caching.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a leaderboard cache over a redis client
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func leaderboardKey(period models.LeaderboardPeriod, limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", period, limit)
}

// Get returns the cached entries for a leaderboard page, or false on a miss.
// Cache failures count as misses; the database remains the source of truth.
func (c *LeaderboardCache) Get(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardEntry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, leaderboardKey(period, limit)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.WithError(err).Warn("Leaderboard cache read failed")
		return nil, false
	}

	var entries []*models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.WithError(err).Warn("Leaderboard cache entry corrupt")
		return nil, false
	}

	return entries, true
}

// Set stores a leaderboard page, best effort
func (c *LeaderboardCache) Set(ctx context.Context, period models.LeaderboardPeriod, limit int, entries []*models.LeaderboardEntry) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(entries)
	if err != nil {
		log.WithError(err).Warn("Failed to marshal leaderboard page")
		return
	}

	if err := c.client.Set(ctx, leaderboardKey(period, limit), data, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Leaderboard cache write failed")
	}
}
