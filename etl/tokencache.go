package etl

import (
	"sync"
	"time"

	"github.com/tribodata/oilwatch_backend/config"
)

// tokenExpiryBuffer renews tokens five minutes before they actually expire
// so an in-flight request never rides a token about to die.
const tokenExpiryBuffer = 5 * time.Minute

const (
	tokenCacheKey       = "IntertekToken"
	tokenCacheExpiryKey = "IntertekTokenExpiry"
)

// TokenCache stores the portal bearer token across requests (and across
// ingestion runs — the token outlives any single run). Implementations
// apply the expiry buffer on read.
type TokenCache interface {
	Get() (token string, ok bool)
	SetWithExpiry(token string, lifetime time.Duration)
	Invalidate()
}

// NewTokenCache returns the redis-backed cache when redis is connected so
// the token is shared process-wide (and across replicas), falling back to
// an in-process cache otherwise.
func NewTokenCache() TokenCache {
	if config.GetRedisDB() != nil {
		return &redisTokenCache{}
	}
	return &memoryTokenCache{}
}

type redisTokenCache struct{}

func (c *redisTokenCache) Get() (string, bool) {
	token, exists, err := config.GetRedisValue(tokenCacheKey)
	if err != nil || !exists {
		return "", false
	}
	expiryRaw, exists, err := config.GetRedisValue(tokenCacheExpiryKey)
	if err != nil || !exists {
		return "", false
	}
	expiry, err := time.Parse(time.RFC3339, expiryRaw)
	if err != nil {
		return "", false
	}
	if !time.Now().Before(expiry.Add(-tokenExpiryBuffer)) {
		return "", false
	}
	return token, true
}

func (c *redisTokenCache) SetWithExpiry(token string, lifetime time.Duration) {
	expiry := time.Now().Add(lifetime)
	_ = config.SetRedisValue(tokenCacheKey, token, lifetime)
	_ = config.SetRedisValue(tokenCacheExpiryKey, expiry.Format(time.RFC3339), lifetime)
}

func (c *redisTokenCache) Invalidate() {
	_ = config.RemoveRedisKey(tokenCacheKey, tokenCacheExpiryKey)
}

type memoryTokenCache struct {
	mu      sync.Mutex
	token   string
	expiry  time.Time
}

func (c *memoryTokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", false
	}
	if !time.Now().Before(c.expiry.Add(-tokenExpiryBuffer)) {
		return "", false
	}
	return c.token, true
}

func (c *memoryTokenCache) SetWithExpiry(token string, lifetime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiry = time.Now().Add(lifetime)
}

func (c *memoryTokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiry = time.Time{}
}
