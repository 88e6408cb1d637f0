package taxconfig

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pos/internal/resilience"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

// Cache wraps Redis helpers for cached configuration records.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker routes reads and writes through b. While it is open the cache
// reports resilience.ErrOpenCircuit instead of calling Redis.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

// report feeds the outcome of a Redis call to the breaker. A missing key is a
// healthy response.
func (c *Cache) report(ctx context.Context, err error) {
	c.breaker.Report(ctx, err == nil || errors.Is(err, redis.Nil))
}

// setIfNewerScript writes ARGV[2] unless the cached record carries a higher
// version than ARGV[1]. ARGV[3] is the TTL in milliseconds, 0 for none.
const setIfNewerScript = `local cur = redis.call("get", KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == "table" and tonumber(doc.version) and tonumber(doc.version) > tonumber(ARGV[1]) then
    return 0
  end
end
if tonumber(ARGV[3]) > 0 then
  redis.call("set", KEYS[1], ARGV[2], "PX", ARGV[3])
else
  redis.call("set", KEYS[1], ARGV[2])
end
return 1`

func cacheKey(storeID string) string {
	return tenant.PrefixKey(storeID, "tax-config")
}

// Get loads a cached record. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, storeID string) (Record, bool, error) {
	var rec Record
	if c == nil || c.client == nil || storeID == "" {
		return rec, false, nil
	}
	if !c.breaker.Allow(ctx) {
		return rec, false, resilience.ErrOpenCircuit
	}
	data, err := c.client.Get(ctx, cacheKey(storeID)).Bytes()
	c.report(ctx, err)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return rec, false, nil
		}
		return rec, false, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// Set stores rec with the configured TTL unless a newer version is already
// cached, so a slow read-through never overwrites a concurrent update.
func (c *Cache) Set(ctx context.Context, rec Record) error {
	if c == nil || c.client == nil || rec.StoreID == "" {
		return nil
	}
	if !c.breaker.Allow(ctx) {
		return resilience.ErrOpenCircuit
	}
	err := c.write(ctx, rec)
	c.report(ctx, err)
	return err
}

// Refresh replaces the cached record after an update. Like Delete it ignores
// the breaker.
func (c *Cache) Refresh(ctx context.Context, rec Record) error {
	if c == nil || c.client == nil || rec.StoreID == "" {
		return nil
	}
	return c.write(ctx, rec)
}

func (c *Cache) write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Eval(ctx, setIfNewerScript, []string{cacheKey(rec.StoreID)},
		rec.Version, data, c.ttl.Milliseconds()).Err()
}

// Delete drops the cached record for storeID. It ignores the breaker so an
// update is never left shadowed by a stale entry.
func (c *Cache) Delete(ctx context.Context, storeID string) error {
	if c == nil || c.client == nil || storeID == "" {
		return nil
	}
	return c.client.Del(ctx, cacheKey(storeID)).Err()
}
