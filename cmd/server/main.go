package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/cart-sync-service/internal/adapter/cache"
	"github.com/example/cart-sync-service/internal/adapter/httpapi"
	"github.com/example/cart-sync-service/internal/adapter/rabbitmq"
	"github.com/example/cart-sync-service/internal/adapter/repo"
	"github.com/example/cart-sync-service/internal/config"
	"github.com/example/cart-sync-service/internal/domain"
	"github.com/example/cart-sync-service/internal/logging"
	"github.com/example/cart-sync-service/internal/usecase"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	var cartRepo domain.CartRepository
	switch cfg.Storage {
	case "memory":
		cartRepo = repo.NewMemoryCartRepo()
	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("init schema", zap.Error(err))
		}
		cartRepo = repo.NewPostgresCartRepo(pool)
	}

	var cartCache domain.CartCache
	if cfg.CacheBackend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		cartCache = cache.NewRedisCartCache(client)
	} else {
		cartCache = cache.NewMemoryCartCache()
	}

	if err := (usecase.WarmCache{Repo: cartRepo, Cache: cartCache}).Execute(ctx); err != nil {
		logger.Warn("cache warmup failed", zap.Error(err))
	}

	dispatcher := usecase.Dispatcher{
		Engine: usecase.Reconciler{Repo: cartRepo, Cache: cartCache, Log: logger},
		Log:    logger,
	}

	// сбой брокера не валит процесс: HTTP API живёт дальше, потребитель
	// остаётся выключенным до перезапуска
	if conn, err := amqp.Dial(cfg.Rabbit.URL); err != nil {
		logger.Error("rabbitmq connect failed, consumer offline", zap.Error(err))
	} else {
		defer conn.Close()
		consumer := &rabbitmq.Consumer{
			Conn: conn,
			Cfg: rabbitmq.Config{
				Exchange:           cfg.Rabbit.Exchange,
				Queue:              cfg.Rabbit.Queue,
				PrefetchCount:      cfg.Rabbit.PrefetchCount,
				DeadLetterExchange: cfg.Rabbit.DeadLetterExchange,
			},
			Log: logger,
		}
		if err := consumer.Subscribe(ctx, dispatcher.Dispatch); err != nil {
			logger.Error("consumer start failed, consumer offline", zap.Error(err))
		}
	}

	server := httpapi.NewServer(
		usecase.GetCart{Repo: cartRepo, Cache: cartCache},
		usecase.AddItemToCart{Repo: cartRepo, Cache: cartCache},
		usecase.RemoveItemFromCart{Repo: cartRepo, Cache: cartCache},
	)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router}
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}
