package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/cart-sync-service/internal/domain"
)

type MemoryCartCache struct {
	mu    sync.RWMutex
	store map[uuid.UUID]domain.Cart
}

func NewMemoryCartCache() *MemoryCartCache {
	return &MemoryCartCache{store: make(map[uuid.UUID]domain.Cart)}
}

func (c *MemoryCartCache) Get(ctx context.Context, id uuid.UUID) (domain.Cart, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cart, ok := c.store[id]
	if !ok {
		return domain.Cart{}, false
	}
	clone := cart
	clone.Items = make([]domain.CartItem, len(cart.Items))
	copy(clone.Items, cart.Items)
	return clone, true
}

func (c *MemoryCartCache) Set(ctx context.Context, cart domain.Cart) {
	clone := cart
	clone.Items = make([]domain.CartItem, len(cart.Items))
	copy(clone.Items, cart.Items)
	c.mu.Lock()
	c.store[cart.ID] = clone
	c.mu.Unlock()
}

func (c *MemoryCartCache) Invalidate(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	delete(c.store, id)
	c.mu.Unlock()
}

var _ domain.CartCache = (*MemoryCartCache)(nil)
