package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/cart-sync-service/internal/domain"
)

// MemoryCartRepo — репозиторий в памяти с обратным индексом товар→корзины.
// Используется тестами и режимом STORAGE=memory.
type MemoryCartRepo struct {
	mu        sync.RWMutex
	carts     map[uuid.UUID]domain.Cart
	byProduct map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewMemoryCartRepo() *MemoryCartRepo {
	return &MemoryCartRepo{
		carts:     make(map[uuid.UUID]domain.Cart),
		byProduct: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (r *MemoryCartRepo) FindAll(ctx context.Context) ([]domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	carts := make([]domain.Cart, 0, len(r.carts))
	for _, c := range r.carts {
		carts = append(carts, cloneCart(c))
	}
	return carts, nil
}

func (r *MemoryCartRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[id]
	if !ok {
		return domain.Cart{}, domain.ErrNotFound
	}
	return cloneCart(c), nil
}

func (r *MemoryCartRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byProduct[productID]
	carts := make([]domain.Cart, 0, len(ids))
	for id := range ids {
		if c, ok := r.carts[id]; ok {
			carts = append(carts, cloneCart(c))
		}
	}
	return carts, nil
}

func (r *MemoryCartRepo) Upsert(ctx context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.carts[cart.ID]
	switch {
	case !exists && cart.Version != 0:
		return domain.ErrVersionConflict
	case exists && current.Version != cart.Version:
		return domain.ErrVersionConflict
	}

	if exists {
		for _, it := range current.Items {
			r.unindex(it.ProductID, cart.ID)
		}
	}
	stored := cloneCart(cart)
	stored.Version = cart.Version + 1
	r.carts[cart.ID] = stored
	for _, it := range stored.Items {
		ids, ok := r.byProduct[it.ProductID]
		if !ok {
			ids = make(map[uuid.UUID]struct{})
			r.byProduct[it.ProductID] = ids
		}
		ids[cart.ID] = struct{}{}
	}
	return nil
}

func (r *MemoryCartRepo) unindex(productID, cartID uuid.UUID) {
	ids, ok := r.byProduct[productID]
	if !ok {
		return
	}
	delete(ids, cartID)
	if len(ids) == 0 {
		delete(r.byProduct, productID)
	}
}

func cloneCart(c domain.Cart) domain.Cart {
	clone := c
	clone.Items = make([]domain.CartItem, len(c.Items))
	copy(clone.Items, c.Items)
	return clone
}

var _ domain.CartRepository = (*MemoryCartRepo)(nil)
