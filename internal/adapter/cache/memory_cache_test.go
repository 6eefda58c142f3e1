package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cart-sync-service/internal/domain"
)

func TestMemoryCartCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCartCache()
	cart := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{{
		ProductID: uuid.New(), Name: "Mug", Quantity: 1, Price: decimal.NewFromInt(2),
	}}}

	_, ok := c.Get(ctx, cart.ID)
	assert.False(t, ok)

	c.Set(ctx, cart)
	got, ok := c.Get(ctx, cart.ID)
	require.True(t, ok)
	assert.Equal(t, cart.ID, got.ID)

	// cached carts are isolated from caller mutation
	got.Items[0].Name = "mutated"
	again, ok := c.Get(ctx, cart.ID)
	require.True(t, ok)
	assert.Equal(t, "Mug", again.Items[0].Name)

	c.Invalidate(ctx, cart.ID)
	_, ok = c.Get(ctx, cart.ID)
	assert.False(t, ok)
}
