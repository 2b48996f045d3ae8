package memory

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"tripmatch/business/ranker"
	"tripmatch/domain"
)

type entry struct {
	key       string
	expiresAt time.Time
	score     domain.ScoredTrip
	prefs     domain.SearchPreferences
	isPrefs   bool
}

// LRUCache is an in-process ScoreCache used when Redis is not configured.
// Entries expire after their TTL and the least recently used entry is
// evicted once capacity is reached.
type LRUCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List
	capacity int
	scoreTTL time.Duration
	prefsTTL time.Duration
	now      func() time.Time
}

var _ ranker.ScoreCache = (*LRUCache)(nil)

func NewLRUCache(capacity int, scoreTTL, prefsTTL time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRUCache{
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
		scoreTTL: scoreTTL,
		prefsTTL: prefsTTL,
		now:      time.Now,
	}
}

func scoreKey(tripID uint64, fingerprint string, weightVersion uint64) string {
	return fmt.Sprintf("score:%d:%s:%d", weightVersion, fingerprint, tripID)
}

func prefsKey(rawFingerprint string) string {
	return "prefs:" + rawFingerprint
}

func (c *LRUCache) GetScore(_ context.Context, tripID uint64, fingerprint string, weightVersion uint64) (domain.ScoredTrip, bool) {
	e, ok := c.get(scoreKey(tripID, fingerprint, weightVersion))
	if !ok || e.isPrefs {
		ranker.CacheLookupsTotal.WithLabelValues("score", "miss").Inc()
		return domain.ScoredTrip{}, false
	}
	ranker.CacheLookupsTotal.WithLabelValues("score", "hit").Inc()
	return e.score, true
}

func (c *LRUCache) SetScore(_ context.Context, fingerprint string, st domain.ScoredTrip) {
	c.put(&entry{
		key:       scoreKey(st.TripID, fingerprint, st.WeightVersion),
		expiresAt: c.now().Add(c.scoreTTL),
		score:     st,
	})
}

func (c *LRUCache) GetPreferences(_ context.Context, rawFingerprint string) (domain.SearchPreferences, bool) {
	e, ok := c.get(prefsKey(rawFingerprint))
	if !ok || !e.isPrefs {
		ranker.CacheLookupsTotal.WithLabelValues("preferences", "miss").Inc()
		return domain.SearchPreferences{}, false
	}
	ranker.CacheLookupsTotal.WithLabelValues("preferences", "hit").Inc()
	return e.prefs, true
}

func (c *LRUCache) SetPreferences(_ context.Context, rawFingerprint string, prefs domain.SearchPreferences) {
	c.put(&entry{
		key:       prefsKey(rawFingerprint),
		expiresAt: c.now().Add(c.prefsTTL),
		prefs:     prefs,
		isPrefs:   true,
	})
}

func (c *LRUCache) get(key string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().After(e.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e, true
}

func (c *LRUCache) put(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[e.key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	c.items[e.key] = c.order.PushFront(e)
}

// Len reports the number of live entries, expired ones included until read.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
