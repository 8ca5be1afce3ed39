package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/auth"
	"github.com/TvixT/simple-mart/internal/cart"
	"github.com/TvixT/simple-mart/internal/catalog"
	"github.com/TvixT/simple-mart/internal/checkout"
	"github.com/TvixT/simple-mart/internal/config"
	"github.com/TvixT/simple-mart/internal/db"
	"github.com/TvixT/simple-mart/internal/events"
	"github.com/TvixT/simple-mart/internal/httpapi"
	"github.com/TvixT/simple-mart/internal/inventory"
	"github.com/TvixT/simple-mart/internal/limiter"
	"github.com/TvixT/simple-mart/internal/order"
	"github.com/TvixT/simple-mart/internal/user"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	publisher := buildPublisher(cfg, logger)
	rl := buildLimiter(cfg, logger)

	tokens := auth.NewTokenMaker(cfg.JWTSecret, cfg.TokenDuration)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	userRepo := user.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	cartRepo := cart.NewRepository(pool)
	orderRepo := order.NewRepository(pool)
	stock := inventory.NewStore(pool)

	users := user.NewService(userRepo, hasher, tokens)
	carts := cart.NewService(cartRepo, stock)
	orchestrator := checkout.New(pool, publisher, logger)

	handlers := httpapi.Handlers{
		Auth:     httpapi.NewAuthHandler(users, logger),
		Products: httpapi.NewProductHandler(catalogRepo, logger),
		Category: httpapi.NewCategoryHandler(catalogRepo, logger),
		Cart:     httpapi.NewCartHandler(carts, logger),
		Orders:   httpapi.NewOrderHandler(orchestrator, orderRepo, logger),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.NewRouter(handlers, tokens, rl, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// buildPublisher connects to RabbitMQ when configured, otherwise events are
// dropped. Order placement never fails because the broker is down.
func buildPublisher(cfg config.Config, logger *zap.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("no AMQP_URL configured, order events disabled")
		return events.NopPublisher{}
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Warn("rabbitmq connection failed, order events disabled", zap.Error(err))
		return events.NopPublisher{}
	}

	pub, err := events.NewAMQPPublisher(conn)
	if err != nil {
		logger.Warn("rabbitmq channel setup failed, order events disabled", zap.Error(err))
		return events.NopPublisher{}
	}

	logger.Info("order events enabled", zap.String("exchange", events.EventsExchange))
	return pub
}

// buildLimiter prefers a shared Redis window when REDIS_ADDR is set, falling
// back to per-process counters.
func buildLimiter(cfg config.Config, logger *zap.Logger) limiter.Limiter {
	lcfg := limiter.Config{Capacity: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}

	if cfg.RedisAddr == "" {
		return limiter.NewFixedWindow(lcfg)
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, using in-process rate limiter", zap.Error(err))
		return limiter.NewFixedWindow(lcfg)
	}

	logger.Info("rate limiter backed by redis", zap.String("addr", cfg.RedisAddr))
	return limiter.NewRedisFixedWindow(client, lcfg)
}
