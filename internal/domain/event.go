package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Имена событий каталога на проводе.
const (
	EventProductUpdated  = "ProductUpdatedEvent"
	EventProductDeleted  = "ProductDeletedEvent"
	EventCategoryUpdated = "CategoryUpdatedEvent"
)

// EventKind — закрытое множество видов событий, определяется один раз
// на границе парсинга.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindProductUpdated
	KindProductDeleted
	KindCategoryUpdated
)

func kindOf(eventType string) EventKind {
	switch eventType {
	case EventProductUpdated:
		return KindProductUpdated
	case EventProductDeleted:
		return KindProductDeleted
	case EventCategoryUpdated:
		return KindCategoryUpdated
	default:
		return KindUnknown
	}
}

// Envelope — минимальный маршрутный конверт, извлечённый из сырого сообщения.
// Это результат парсинга, а не доменный объект: отсутствующий eventType —
// валидное состояние.
type Envelope struct {
	Kind       EventKind
	EventType  string
	ProductID  *uuid.UUID
	CategoryID *uuid.UUID
	Raw        []byte
}

// ParseEnvelope никогда не падает: на битом или не-объектном JSON возвращает
// конверт с KindUnknown, сохранив сырые байты, и зовёт onMalformed.
// Имена полей сопоставляются без учёта регистра; синтаксически неверный
// идентификатор эквивалентен отсутствующему.
func ParseEnvelope(raw []byte, onMalformed func(err error, raw []byte)) Envelope {
	env := Envelope{Kind: KindUnknown, Raw: raw}

	fields, err := objectFields(raw)
	if err != nil {
		if onMalformed != nil {
			onMalformed(err, raw)
		}
		return env
	}

	if v, ok := fields["eventtype"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			env.EventType = s
			env.Kind = kindOf(s)
		}
	}
	env.ProductID = parseID(fields["productid"])
	env.CategoryID = parseID(fields["categoryid"])
	return env
}

// ProductUpdate — сообщение об изменении товара; отсутствующие поля
// остаются значениями по умолчанию.
type ProductUpdate struct {
	ProductID  uuid.UUID
	Name       *string
	Price      *decimal.Decimal
	CategoryID *uuid.UUID
}

// DecodeProductUpdate — декодирование по принципу "лучшее из возможного":
// любой JSON-объект даёт сообщение (неразборчивые поля — по умолчанию),
// false — только когда тело вовсе не объект.
func DecodeProductUpdate(raw []byte) (ProductUpdate, bool) {
	fields, err := objectFields(raw)
	if err != nil {
		return ProductUpdate{}, false
	}
	var msg ProductUpdate
	if id := parseID(fields["productid"]); id != nil {
		msg.ProductID = *id
	}
	if v, ok := fields["name"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			msg.Name = &s
		}
	}
	if v, ok := fields["price"]; ok {
		var d decimal.Decimal
		if json.Unmarshal(v, &d) == nil {
			msg.Price = &d
		}
	}
	msg.CategoryID = parseID(fields["categoryid"])
	return msg, true
}

// CategoryUpdate — сообщение о переименовании категории. Служебные поля
// (EventID, OccurredAt, Version) приходят от издателя и обработкой не
// используются.
type CategoryUpdate struct {
	CategoryID uuid.UUID
	Name       *string
	EventID    uuid.UUID
	OccurredAt time.Time
	Version    int
}

func DecodeCategoryUpdate(raw []byte) (CategoryUpdate, bool) {
	fields, err := objectFields(raw)
	if err != nil {
		return CategoryUpdate{}, false
	}
	var msg CategoryUpdate
	if id := parseID(fields["categoryid"]); id != nil {
		msg.CategoryID = *id
	}
	if v, ok := fields["name"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			msg.Name = &s
		}
	}
	if id := parseID(fields["eventid"]); id != nil {
		msg.EventID = *id
	}
	if v, ok := fields["occurredonutc"]; ok {
		var t time.Time
		if json.Unmarshal(v, &t) == nil {
			msg.OccurredAt = t
		}
	}
	if v, ok := fields["version"]; ok {
		var n int
		if json.Unmarshal(v, &n) == nil {
			msg.Version = n
		}
	}
	return msg, true
}

// DispatchOutcome — структурированный итог обработки одного события.
// Наблюдаемый сигнал успеха — число затронутых корзин.
type DispatchOutcome struct {
	EventType     string
	Success       bool
	AffectedCarts int
	Err           error

	// Requeue выставляется только при инфраструктурном сбое хранилища:
	// такое сообщение уходит в nack вместо ack.
	Requeue bool
}

func objectFields(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		// JSON-литерал null: объекта нет
		return nil, errors.New("payload is not an object")
	}
	lower := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		lower[strings.ToLower(k)] = v
	}
	return lower, nil
}

func parseID(v json.RawMessage) *uuid.UUID {
	if v == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
