package domain

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository — порт для операций персистентности корзин.
type CartRepository interface {
	FindAll(ctx context.Context) ([]Cart, error)
	// FindByID возвращает ErrNotFound, если корзины нет.
	FindByID(ctx context.Context, id uuid.UUID) (Cart, error)
	// FindByProduct — обратный поиск: корзины, содержащие товар.
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Cart, error)
	// Upsert отклоняет запись с устаревшей версией через ErrVersionConflict.
	Upsert(ctx context.Context, cart Cart) error
}

// CartCache — порт быстрого доступа к корзинам (кэш).
type CartCache interface {
	Get(ctx context.Context, id uuid.UUID) (Cart, bool)
	Set(ctx context.Context, c Cart)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// MessageSubscriber — порт подписчика на события каталога.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/nack по итогу обработки
	// реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) DispatchOutcome) error
}

// Общие доменные ошибки
var (
	ErrNotFound        = notFoundError("not found")
	ErrValidation      = validationError("invalid data")
	ErrVersionConflict = conflictError("stale cart version")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type conflictError string

func (e conflictError) Error() string { return string(e) }
