package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"surplus/internal/config"
	"surplus/internal/idempotency"
	"surplus/internal/infrastructure/logger"
	"surplus/internal/infrastructure/mysql"
	"surplus/internal/infrastructure/redis"
	"surplus/internal/infrastructure/tracing"
	"surplus/internal/inventory"
	"surplus/internal/notification"
	"surplus/internal/order"
	orderrepo "surplus/internal/order/repository"
	"surplus/internal/order/usecase"
	"surplus/internal/restaurant"
	restaurantrepo "surplus/internal/restaurant/repository"
	"surplus/internal/server"
	"surplus/internal/store/memory"
)

type stores struct {
	orders      usecase.OrderStore
	restaurants interface {
		inventory.RestaurantStore
		restaurant.Writer
	}
	close func() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "internal/config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		zapLogger.Fatal("setting up tracing", zap.Error(err))
	}

	st, err := openStores(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("opening storage", zap.Error(err))
	}
	defer st.close()

	if cfg.Storage.SeedFile != "" {
		seed, err := restaurant.LoadSeedFile(cfg.Storage.SeedFile)
		if err != nil {
			zapLogger.Fatal("loading seed", zap.Error(err))
		}
		if err := restaurant.Seed(ctx, st.restaurants, seed, zapLogger); err != nil {
			zapLogger.Fatal("seeding restaurants", zap.Error(err))
		}
	}

	var cache usecase.IdempotencyCache
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer client.Close()
		cache = idempotency.NewRedisCache(client, cfg.Order.IdempotencyTTL)
		zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	hub := notification.NewHub(zapLogger)
	routes := []notification.Route{{Name: "websocket", Channel: hub}}
	if cfg.Kafka.Enabled {
		publisher := notification.NewKafkaPublisher(
			notification.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
			cfg.Kafka.Producer,
		)
		defer publisher.Close()
		routes = append(routes, notification.Route{Name: "kafka", Channel: publisher})
		zapLogger.Info("kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	dispatcher := notification.NewDispatcher(zapLogger, cfg.Order.NotificationTimeout, routes...)

	orderCtrl := order.NewModule(st.orders, st.restaurants, dispatcher, cache, cfg, zapLogger)
	restaurantCtrl := restaurant.NewModule(st.restaurants, zapLogger)
	wsHandler := notification.NewHandler(hub, zapLogger)

	router := server.NewRouter(orderCtrl, restaurantCtrl, wsHandler, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}

	dispatcher.Wait()
	hub.Close()

	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLogger.Warn("flushing traces failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func openStores(cfg *config.Config, zapLogger *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == "memory" {
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &stores{
			orders:      store,
			restaurants: store,
			close:       func() error { return nil },
		}, nil
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	zapLogger.Info("database connected")

	return &stores{
		orders:      orderrepo.NewMySQLOrderRepository(db),
		restaurants: restaurantrepo.NewMySQLRepository(db),
		close:       db.Close,
	}, nil
}
