package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tripmatch/business/ranker"
	"tripmatch/domain"
	"tripmatch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RankerCache is the Redis-backed ScoreCache. Any backend failure is
// reported as a miss and the caller recomputes; a down Redis degrades
// latency, never correctness.
type RankerCache struct {
	client   *redis.Client
	scoreTTL time.Duration
	prefsTTL time.Duration
}

var _ ranker.ScoreCache = (*RankerCache)(nil)

func NewRankerCache(client *redis.Client, scoreTTL, prefsTTL time.Duration) *RankerCache {
	return &RankerCache{
		client:   client,
		scoreTTL: scoreTTL,
		prefsTTL: prefsTTL,
	}
}

// scoreKey binds the weight version into the key, so publishing new weights
// leaves every older entry unreachable instead of stale.
func scoreKey(tripID uint64, fingerprint string, weightVersion uint64) string {
	return fmt.Sprintf("ranker:score:%d:%s:%d", weightVersion, fingerprint, tripID)
}

func prefsKey(rawFingerprint string) string {
	return "ranker:prefs:" + rawFingerprint
}

func (c *RankerCache) GetScore(ctx context.Context, tripID uint64, fingerprint string, weightVersion uint64) (domain.ScoredTrip, bool) {
	val, err := c.client.Get(ctx, scoreKey(tripID, fingerprint, weightVersion)).Result()
	if err == redis.Nil {
		ranker.CacheLookupsTotal.WithLabelValues("score", "miss").Inc()
		return domain.ScoredTrip{}, false
	}
	if err != nil {
		c.unavailable("score", err)
		return domain.ScoredTrip{}, false
	}

	var st domain.ScoredTrip
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		ranker.CacheLookupsTotal.WithLabelValues("score", "error").Inc()
		return domain.ScoredTrip{}, false
	}

	ranker.CacheLookupsTotal.WithLabelValues("score", "hit").Inc()
	return st, true
}

func (c *RankerCache) SetScore(ctx context.Context, fingerprint string, st domain.ScoredTrip) {
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, scoreKey(st.TripID, fingerprint, st.WeightVersion), raw, c.scoreTTL).Err(); err != nil {
		c.unavailable("score", err)
	}
}

func (c *RankerCache) GetPreferences(ctx context.Context, rawFingerprint string) (domain.SearchPreferences, bool) {
	val, err := c.client.Get(ctx, prefsKey(rawFingerprint)).Result()
	if err == redis.Nil {
		ranker.CacheLookupsTotal.WithLabelValues("preferences", "miss").Inc()
		return domain.SearchPreferences{}, false
	}
	if err != nil {
		c.unavailable("preferences", err)
		return domain.SearchPreferences{}, false
	}

	var prefs domain.SearchPreferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		ranker.CacheLookupsTotal.WithLabelValues("preferences", "error").Inc()
		return domain.SearchPreferences{}, false
	}

	ranker.CacheLookupsTotal.WithLabelValues("preferences", "hit").Inc()
	return prefs, true
}

func (c *RankerCache) SetPreferences(ctx context.Context, rawFingerprint string, prefs domain.SearchPreferences) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, prefsKey(rawFingerprint), raw, c.prefsTTL).Err(); err != nil {
		c.unavailable("preferences", err)
	}
}

func (c *RankerCache) unavailable(cache string, err error) {
	ranker.CacheLookupsTotal.WithLabelValues(cache, "error").Inc()
	logger.Debug("cache backend unavailable, falling through",
		"cache", cache,
		"error", fmt.Errorf("%w: %v", ranker.ErrCacheUnavailable, err),
	)
}
