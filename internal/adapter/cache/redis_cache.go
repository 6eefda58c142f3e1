package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/cart-sync-service/internal/domain"
)

const (
	cartKeyPrefix = "cart:"
	cartTTL       = time.Hour
)

// RedisCartCache — кэш корзин в Redis для читающего пути API.
// Все операции — fire-and-forget: ошибки кэша трактуются как промах.
type RedisCartCache struct {
	client *redis.Client
}

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{client: client}
}

func (c *RedisCartCache) Get(ctx context.Context, id uuid.UUID) (domain.Cart, bool) {
	raw, err := c.client.Get(ctx, cartKeyPrefix+id.String()).Bytes()
	if err != nil {
		return domain.Cart{}, false
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return domain.Cart{}, false
	}
	return cart, true
}

func (c *RedisCartCache) Set(ctx context.Context, cart domain.Cart) {
	raw, err := json.Marshal(cart)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cartKeyPrefix+cart.ID.String(), raw, cartTTL).Err()
}

func (c *RedisCartCache) Invalidate(ctx context.Context, id uuid.UUID) {
	_ = c.client.Del(ctx, cartKeyPrefix+id.String()).Err()
}

var _ domain.CartCache = (*RedisCartCache)(nil)
