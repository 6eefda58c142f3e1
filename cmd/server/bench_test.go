package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/cart-sync-service/internal/adapter/cache"
	"github.com/example/cart-sync-service/internal/adapter/httpapi"
	"github.com/example/cart-sync-service/internal/adapter/repo"
	"github.com/example/cart-sync-service/internal/domain"
	"github.com/example/cart-sync-service/internal/usecase"
)

func seedCarts(n int) ([]uuid.UUID, *repo.MemoryCartRepo, *cache.MemoryCartCache) {
	cartRepo := repo.NewMemoryCartRepo()
	cartCache := cache.NewMemoryCartCache()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		c := domain.Cart{ID: ids[i], Items: []domain.CartItem{{
			ProductID: uuid.New(), Name: "item", Quantity: 1, Price: decimal.NewFromInt(5),
		}}}
		_ = cartRepo.Upsert(context.Background(), c)
		cartCache.Set(context.Background(), c)
	}
	return ids, cartRepo, cartCache
}

func BenchmarkHandleGetCart(b *testing.B) {
	ids, cartRepo, cartCache := seedCarts(1000)
	router := httpapi.NewServer(
		usecase.GetCart{Repo: cartRepo, Cache: cartCache},
		usecase.AddItemToCart{Repo: cartRepo, Cache: cartCache},
		usecase.RemoveItemFromCart{Repo: cartRepo, Cache: cartCache},
	).Router

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/carts/"+ids[i%len(ids)].String(), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			i++
		}
	})
}

func BenchmarkCacheGet(b *testing.B) {
	ids, _, cartCache := seedCarts(10000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cartCache.Get(ctx, ids[i%len(ids)])
	}
}
