package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/cart-sync-service/internal/domain"
)

// Предел повторов при конфликте версий одной корзины.
const maxPersistRetries = 3

// Reconciler — движок мутаций корзин: идемпотентные обновления и удаления
// позиций по идентификатору товара. Повторный вызов с теми же аргументами
// всегда даёт 0 затронутых корзин.
type Reconciler struct {
	Repo  domain.CartRepository
	Cache domain.CartCache
	Log   *zap.Logger
}

// UpdateProduct обновляет имя/цену товара во всех корзинах, где он есть.
// Поле меняется только при фактическом отличии; корзина сохраняется, только
// если изменилась хотя бы одна позиция. Возвращает число сохранённых корзин.
func (r Reconciler) UpdateProduct(ctx context.Context, productID uuid.UUID, name *string, price *decimal.Decimal, categoryID *uuid.UUID) (int, error) {
	// categoryID принят контрактом, но на позиции корзины пока не
	// отображается (задел на будущее).
	_ = categoryID

	carts, err := r.Repo.FindByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("find carts by product: %w", err)
	}

	affected := 0
	for _, cart := range carts {
		persisted, err := r.persist(ctx, cart, func(c *domain.Cart) bool {
			return applyProductUpdate(c, productID, name, price)
		})
		if err != nil {
			return affected, err
		}
		if persisted {
			affected++
		}
	}
	return affected, nil
}

// RemoveProduct убирает все позиции с данным товаром из каждой корзины.
// Пустая корзина остаётся валидным агрегатом и не удаляется.
func (r Reconciler) RemoveProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	carts, err := r.Repo.FindByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("find carts by product: %w", err)
	}

	affected := 0
	for _, cart := range carts {
		persisted, err := r.persist(ctx, cart, func(c *domain.Cart) bool {
			return dropProduct(c, productID)
		})
		if err != nil {
			return affected, err
		}
		if persisted {
			affected++
		}
	}
	return affected, nil
}

// persist применяет мутацию и сохраняет корзину, если та что-то изменила.
// При конфликте версий корзина перечитывается и мутация применяется заново.
func (r Reconciler) persist(ctx context.Context, cart domain.Cart, mutate func(*domain.Cart) bool) (bool, error) {
	for attempt := 0; ; attempt++ {
		if !mutate(&cart) {
			return false, nil
		}
		err := r.Repo.Upsert(ctx, cart)
		if err == nil {
			if r.Cache != nil {
				r.Cache.Invalidate(ctx, cart.ID)
			}
			return true, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxPersistRetries {
			return false, fmt.Errorf("upsert cart %s: %w", cart.ID, err)
		}
		if r.Log != nil {
			r.Log.Warn("stale cart version, retrying",
				zap.String("cartId", cart.ID.String()),
				zap.Int("attempt", attempt+1))
		}
		fresh, ferr := r.Repo.FindByID(ctx, cart.ID)
		if ferr != nil {
			if errors.Is(ferr, domain.ErrNotFound) {
				// корзину успели удалить — реконсилировать нечего
				return false, nil
			}
			return false, fmt.Errorf("reload cart %s: %w", cart.ID, ferr)
		}
		cart = fresh
	}
}

func applyProductUpdate(c *domain.Cart, productID uuid.UUID, name *string, price *decimal.Decimal) bool {
	changed := false
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if name != nil && c.Items[i].Name != *name {
			c.Items[i].Name = *name
			changed = true
		}
		if price != nil && !c.Items[i].Price.Equal(*price) {
			c.Items[i].Price = *price
			changed = true
		}
	}
	return changed
}

func dropProduct(c *domain.Cart, productID uuid.UUID) bool {
	kept := make([]domain.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return false
	}
	c.Items = kept
	return true
}
