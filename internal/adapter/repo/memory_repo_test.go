package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cart-sync-service/internal/domain"
)

func testItem(pid uuid.UUID) domain.CartItem {
	return domain.CartItem{ProductID: pid, Name: "x", Quantity: 1, Price: decimal.NewFromInt(1)}
}

func TestMemoryRepoUpsertAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCartRepo()
	pid := uuid.New()
	cart := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{testItem(pid)}}

	require.NoError(t, r.Upsert(ctx, cart))

	got, err := r.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Len(t, got.Items, 1)

	_, err = r.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryRepoVersionConflict(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCartRepo()
	cart := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{testItem(uuid.New())}}
	require.NoError(t, r.Upsert(ctx, cart))

	// stale base version is rejected
	assert.ErrorIs(t, r.Upsert(ctx, cart), domain.ErrVersionConflict)

	// insert of an id that already exists is rejected too
	assert.ErrorIs(t, r.Upsert(ctx, domain.Cart{ID: cart.ID}), domain.ErrVersionConflict)

	fresh, err := r.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	require.NoError(t, r.Upsert(ctx, fresh))

	got, err := r.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryRepoFindByProduct(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCartRepo()
	p1, p2 := uuid.New(), uuid.New()
	c1 := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{testItem(p1), testItem(p2)}}
	c2 := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{testItem(p2)}}
	require.NoError(t, r.Upsert(ctx, c1))
	require.NoError(t, r.Upsert(ctx, c2))

	carts, err := r.FindByProduct(ctx, p1)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, c1.ID, carts[0].ID)

	carts, err = r.FindByProduct(ctx, p2)
	require.NoError(t, err)
	assert.Len(t, carts, 2)

	carts, err = r.FindByProduct(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestMemoryRepoIndexFollowsItemRemoval(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCartRepo()
	pid := uuid.New()
	cart := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{testItem(pid)}}
	require.NoError(t, r.Upsert(ctx, cart))

	fresh, err := r.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	fresh.Items = nil
	require.NoError(t, r.Upsert(ctx, fresh))

	carts, err := r.FindByProduct(ctx, pid)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCartRepo()
	pid := uuid.New()
	cart := domain.Cart{ID: uuid.New(), Items: []domain.CartItem{testItem(pid)}}
	require.NoError(t, r.Upsert(ctx, cart))

	got, err := r.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	got.Items[0].Name = "mutated"

	again, err := r.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Items[0].Name)
}
