package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/cart-sync-service/internal/domain"
)

// Config — топология брокера: durable fanout-обменник, durable-очередь,
// привязка с пустым ключом, предел prefetch. DLX опционален.
type Config struct {
	Exchange           string
	Queue              string
	PrefetchCount      int
	DeadLetterExchange string
}

// Consumer владеет каналом и циклом приёма. Каждая доставка обрабатывается
// в своей горутине; параллелизм ограничен prefetch со стороны брокера.
type Consumer struct {
	Conn *amqp.Connection
	Cfg  Config
	Log  *zap.Logger
}

// Subscribe объявляет топологию и запускает цикл приёма. Ошибка на старте
// оставляет потребителя выключенным до конца жизни процесса — переподключений
// нет, вызывающая сторона решает, жить ли дальше в деградированном режиме.
func (c *Consumer) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) domain.DispatchOutcome) error {
	ch, err := c.Conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(c.Cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare exchange %q: %w", c.Cfg.Exchange, err)
	}
	var args amqp.Table
	if c.Cfg.DeadLetterExchange != "" {
		args = amqp.Table{"x-dead-letter-exchange": c.Cfg.DeadLetterExchange}
	}
	if _, err := ch.QueueDeclare(c.Cfg.Queue, true, false, false, false, args); err != nil {
		ch.Close()
		return fmt.Errorf("declare queue %q: %w", c.Cfg.Queue, err)
	}
	// fanout игнорирует ключи маршрутизации — ключ привязки пустой
	if err := ch.QueueBind(c.Cfg.Queue, "", c.Cfg.Exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("bind queue %q: %w", c.Cfg.Queue, err)
	}
	if c.Cfg.PrefetchCount > 0 {
		if err := ch.Qos(c.Cfg.PrefetchCount, 0, false); err != nil {
			ch.Close()
			return fmt.Errorf("set qos: %w", err)
		}
	}

	deliveries, err := ch.Consume(c.Cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("consume %q: %w", c.Cfg.Queue, err)
	}

	go func() {
		<-ctx.Done()
		// закрываем канал кооперативно; обработчики в полёте не прерываются
		if err := ch.Close(); err != nil {
			c.Log.Warn("channel close", zap.Error(err))
		}
	}()
	go func() {
		for d := range deliveries {
			go c.process(ctx, d, handler)
		}
	}()

	c.Log.Info("consuming catalog events",
		zap.String("exchange", c.Cfg.Exchange),
		zap.String("queue", c.Cfg.Queue),
		zap.Int("prefetch", c.Cfg.PrefetchCount))
	return nil
}

// process доводит каждую доставку до явного ack/nack: распознанные исходы
// (успех, нехватка поля, неизвестный тип, битый JSON, паника) подтверждаются,
// инфраструктурный сбой уходит в nack без requeue — в DLX, если тот настроен.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery, handler func(ctx context.Context, raw []byte) domain.DispatchOutcome) {
	// отмена останавливает только ожидание следующей доставки; доставка
	// в полёте доводится до конца, иначе завершение процесса превратило бы
	// прерванный скан хранилища в nack и потерю сообщения
	ctx = context.WithoutCancel(ctx)
	outcome := c.safeHandle(ctx, d.Body, handler)

	if outcome.Requeue {
		c.Log.Error("event processing failed, rejecting",
			zap.String("eventType", outcome.EventType), zap.Error(outcome.Err))
		if err := d.Nack(false, false); err != nil {
			c.Log.Error("nack failed", zap.Uint64("deliveryTag", d.DeliveryTag), zap.Error(err))
		}
		return
	}

	if outcome.Success {
		c.Log.Info("event processed",
			zap.String("eventType", outcome.EventType),
			zap.Int("affectedCarts", outcome.AffectedCarts))
	} else {
		c.Log.Warn("event not applied",
			zap.String("eventType", outcome.EventType),
			zap.Error(outcome.Err),
			zap.ByteString("raw", d.Body))
	}
	if err := d.Ack(false); err != nil {
		c.Log.Error("ack failed", zap.Uint64("deliveryTag", d.DeliveryTag), zap.Error(err))
	}
}

// safeHandle гарантирует, что из обработчика не вылетит ничего, что могло бы
// уронить цикл приёма или заблокировать очередь.
func (c *Consumer) safeHandle(ctx context.Context, raw []byte, handler func(ctx context.Context, raw []byte) domain.DispatchOutcome) (outcome domain.DispatchOutcome) {
	defer func() {
		if p := recover(); p != nil {
			c.Log.Error("panic while processing event", zap.Any("panic", p))
			outcome = domain.DispatchOutcome{Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return handler(ctx, raw)
}

var _ domain.MessageSubscriber = (*Consumer)(nil)
