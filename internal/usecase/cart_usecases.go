package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/cart-sync-service/internal/domain"
)

// GetCart — получить корзину, сначала из кэша.
type GetCart struct {
	Repo  domain.CartRepository
	Cache domain.CartCache
}

func (uc GetCart) Execute(ctx context.Context, id uuid.UUID) (domain.Cart, error) {
	if c, ok := uc.Cache.Get(ctx, id); ok {
		return c, nil
	}
	c, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}
	uc.Cache.Set(ctx, c)
	return c, nil
}

// AddItemToCart — добавить позицию; корзина создаётся при первом добавлении.
// Количество валидируется только на этой границе.
type AddItemToCart struct {
	Repo  domain.CartRepository
	Cache domain.CartCache
}

func (uc AddItemToCart) Execute(ctx context.Context, cartID uuid.UUID, item domain.CartItem) (domain.Cart, error) {
	if item.ProductID == uuid.Nil || item.Name == "" || item.Quantity < 1 {
		return domain.Cart{}, domain.ErrValidation
	}
	// запись может гоняться с реконсилятором; при конфликте версий
	// перечитываем и повторяем
	for attempt := 0; ; attempt++ {
		cart, err := uc.Repo.FindByID(ctx, cartID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			cart = domain.Cart{ID: cartID, CreatedAt: time.Now().UTC()}
		case err != nil:
			return domain.Cart{}, fmt.Errorf("find cart: %w", err)
		}
		cart.Items = append(cart.Items, item)
		err = uc.Repo.Upsert(ctx, cart)
		if err == nil {
			uc.Cache.Invalidate(ctx, cartID)
			return cart, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxPersistRetries {
			return domain.Cart{}, fmt.Errorf("upsert cart: %w", err)
		}
	}
}

// RemoveItemFromCart — убрать все позиции с данным товаром из корзины.
type RemoveItemFromCart struct {
	Repo  domain.CartRepository
	Cache domain.CartCache
}

func (uc RemoveItemFromCart) Execute(ctx context.Context, cartID, productID uuid.UUID) error {
	for attempt := 0; ; attempt++ {
		cart, err := uc.Repo.FindByID(ctx, cartID)
		if err != nil {
			return err
		}
		if !dropProduct(&cart, productID) {
			return domain.ErrNotFound
		}
		err = uc.Repo.Upsert(ctx, cart)
		if err == nil {
			uc.Cache.Invalidate(ctx, cartID)
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxPersistRetries {
			return fmt.Errorf("upsert cart: %w", err)
		}
	}
}

// WarmCache — прогреть кэш всеми корзинами из репозитория при старте.
type WarmCache struct {
	Repo  domain.CartRepository
	Cache domain.CartCache
}

func (uc WarmCache) Execute(ctx context.Context) error {
	carts, err := uc.Repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load carts: %w", err)
	}
	for _, c := range carts {
		uc.Cache.Set(ctx, c)
	}
	return nil
}
