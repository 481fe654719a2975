// internal/mail/healthcache.go
package mail

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"lending-notifier/internal/common/database"
)

const healthKeyPrefix = "notifier:transport:live:"

// maxHealthTTL caps how long a verify result may be trusted. A stale entry
// risks composing a message for a relay that has since gone down.
const maxHealthTTL = 60 * time.Second

// HealthCache remembers that a transport passed verification recently, so
// bursty notification volume does not pay a full handshake per send.
type HealthCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewHealthCache(client *database.RedisClient, ttl time.Duration) *HealthCache {
	if ttl <= 0 || ttl > maxHealthTTL {
		ttl = maxHealthTTL
	}
	return &HealthCache{client: client, ttl: ttl}
}

func (c *HealthCache) IsLive(ctx context.Context, name string) (bool, error) {
	_, err := c.client.Get(ctx, healthKeyPrefix+name)
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *HealthCache) MarkLive(ctx context.Context, name string) error {
	return c.client.Set(ctx, healthKeyPrefix+name, "1", c.ttl)
}

func (c *HealthCache) Invalidate(ctx context.Context, name string) error {
	return c.client.Del(ctx, healthKeyPrefix+name)
}
