package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/cart-sync-service/internal/domain"
)

// Ошибки диспетчеризации, попадающие в DispatchOutcome.Err.
var (
	ErrMissingEventType   = errors.New("missing eventType")
	ErrUnhandledEventType = errors.New("unhandled eventType")
	ErrProductIDMissing   = errors.New("productId missing")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// ProductReconciler — операции движка мутаций, нужные диспетчеру.
type ProductReconciler interface {
	UpdateProduct(ctx context.Context, productID uuid.UUID, name *string, price *decimal.Decimal, categoryID *uuid.UUID) (int, error)
	RemoveProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

// Dispatcher — чистая маршрутизация события по его виду. Никогда не паникует
// наружу и не возвращает исключений: любой исход — структурированный
// DispatchOutcome.
type Dispatcher struct {
	Engine ProductReconciler
	Log    *zap.Logger
}

func (d Dispatcher) Dispatch(ctx context.Context, raw []byte) domain.DispatchOutcome {
	env := domain.ParseEnvelope(raw, func(err error, raw []byte) {
		d.Log.Warn("malformed event payload", zap.Error(err), zap.ByteString("raw", raw))
	})

	switch env.Kind {
	case domain.KindProductDeleted:
		return d.handleProductDeleted(ctx, env)
	case domain.KindProductUpdated:
		return d.handleProductUpdated(ctx, env)
	case domain.KindCategoryUpdated:
		return d.handleCategoryUpdated(env)
	default:
		if env.EventType == "" {
			d.Log.Warn("event without eventType", zap.ByteString("raw", raw))
			return domain.DispatchOutcome{Err: ErrMissingEventType}
		}
		d.Log.Warn("unhandled eventType",
			zap.String("eventType", env.EventType), zap.ByteString("raw", raw))
		return domain.DispatchOutcome{EventType: env.EventType, Err: ErrUnhandledEventType}
	}
}

func (d Dispatcher) handleProductDeleted(ctx context.Context, env domain.Envelope) domain.DispatchOutcome {
	if env.ProductID == nil {
		return domain.DispatchOutcome{EventType: env.EventType, Err: ErrProductIDMissing}
	}
	affected, err := d.Engine.RemoveProduct(ctx, *env.ProductID)
	if err != nil {
		d.Log.Error("product deletion failed",
			zap.String("productId", env.ProductID.String()), zap.Error(err))
		return domain.DispatchOutcome{EventType: env.EventType, Err: err, Requeue: true}
	}
	return domain.DispatchOutcome{EventType: env.EventType, Success: true, AffectedCarts: affected}
}

func (d Dispatcher) handleProductUpdated(ctx context.Context, env domain.Envelope) domain.DispatchOutcome {
	// Тело декодируется максимально терпимо: объект без единого
	// разборчивого поля всё равно даёт сообщение со значениями по
	// умолчанию и всё равно запускает обновление.
	msg, ok := domain.DecodeProductUpdate(env.Raw)
	if !ok {
		d.Log.Warn("product update body is not an object", zap.ByteString("raw", env.Raw))
		return domain.DispatchOutcome{EventType: env.EventType, Err: ErrInvalidPayload}
	}
	affected, err := d.Engine.UpdateProduct(ctx, msg.ProductID, msg.Name, msg.Price, msg.CategoryID)
	if err != nil {
		d.Log.Error("product update failed",
			zap.String("productId", msg.ProductID.String()), zap.Error(err))
		return domain.DispatchOutcome{EventType: env.EventType, Err: err, Requeue: true}
	}
	return domain.DispatchOutcome{EventType: env.EventType, Success: true, AffectedCarts: affected}
}

// handleCategoryUpdated только логирует: смена категории не затрагивает
// денормализованные данные в корзинах.
func (d Dispatcher) handleCategoryUpdated(env domain.Envelope) domain.DispatchOutcome {
	msg, ok := domain.DecodeCategoryUpdate(env.Raw)
	if !ok {
		d.Log.Warn("category update body is not an object", zap.ByteString("raw", env.Raw))
		return domain.DispatchOutcome{EventType: env.EventType, Err: ErrInvalidPayload}
	}
	name := ""
	if msg.Name != nil {
		name = *msg.Name
	}
	d.Log.Info("category updated",
		zap.String("categoryId", msg.CategoryID.String()), zap.String("name", name))
	return domain.DispatchOutcome{EventType: env.EventType, Success: true}
}
