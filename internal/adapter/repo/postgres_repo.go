package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/cart-sync-service/internal/domain"
)

// PostgresCartRepo хранит корзины как JSONB-документы с числовой версией
// для оптимистической блокировки.
type PostgresCartRepo struct {
	Pool *pgxpool.Pool
}

func NewPostgresCartRepo(pool *pgxpool.Pool) *PostgresCartRepo {
	return &PostgresCartRepo{Pool: pool}
}

func (r *PostgresCartRepo) FindAll(ctx context.Context) ([]domain.Cart, error) {
	rows, err := r.Pool.Query(ctx, `SELECT payload, version FROM carts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCarts(rows)
}

func (r *PostgresCartRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Cart, error) {
	var raw []byte
	var version int64
	err := r.Pool.QueryRow(ctx,
		`SELECT payload, version FROM carts WHERE cart_id = $1`, id).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart %s: %w", id, err)
	}
	c.Version = version
	return c, nil
}

// FindByProduct — обратный поиск по вложенному productId через JSONB-вхождение;
// его обслуживает GIN-индекс из EnsureSchema.
func (r *PostgresCartRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Cart, error) {
	rows, err := r.Pool.Query(ctx, `SELECT payload, version FROM carts
        WHERE payload->'items' @> jsonb_build_array(jsonb_build_object('productId', $1::text))`,
		productID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCarts(rows)
}

// Upsert сохраняет корзину, отклоняя записи с устаревшей версией.
// Version == 0 означает новую корзину.
func (r *PostgresCartRepo) Upsert(ctx context.Context, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.ID, err)
	}
	if cart.Version == 0 {
		tag, err := r.Pool.Exec(ctx,
			`INSERT INTO carts(cart_id, payload, version) VALUES($1, $2, 1)
             ON CONFLICT (cart_id) DO NOTHING`, cart.ID, raw)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	}
	tag, err := r.Pool.Exec(ctx,
		`UPDATE carts SET payload = $2, version = version + 1
         WHERE cart_id = $1 AND version = $3`, cart.ID, raw, cart.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func scanCarts(rows pgx.Rows) ([]domain.Cart, error) {
	var carts []domain.Cart
	for rows.Next() {
		var raw []byte
		var version int64
		if err := rows.Scan(&raw, &version); err != nil {
			return nil, err
		}
		var c domain.Cart
		if err := json.Unmarshal(raw, &c); err != nil {
			// пропускаем битые записи, не прерывая выборку
			continue
		}
		c.Version = version
		carts = append(carts, c)
	}
	return carts, rows.Err()
}

var _ domain.CartRepository = (*PostgresCartRepo)(nil)

// EnsureSchema — создать таблицу и обратный индекс, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carts (
  cart_id uuid PRIMARY KEY,
  payload jsonb NOT NULL,
  version bigint NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS carts_items_gin
  ON carts USING gin ((payload->'items') jsonb_path_ops);`)
	return err
}
