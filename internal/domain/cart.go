package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem — позиция корзины с денормализованными данными товара.
type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Cart — агрегат корзины. Порядок позиций — порядок добавления,
// дубликаты productId допустимы.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Items     []CartItem `json:"items"`

	// Version — токен оптимистической блокировки, хранится вне payload.
	Version int64 `json:"-"`
}

// Total — производная сумма, всегда пересчитывается, не хранится.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
