package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/account"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/content"
	"storefront/internal/infrastructure/kafka"
	"storefront/internal/infrastructure/logger"
	"storefront/internal/infrastructure/mysql"
	"storefront/internal/infrastructure/redis"
	"storefront/internal/notification"
	"storefront/internal/order"
	"storefront/internal/order/events"
	"storefront/internal/product"
	"storefront/internal/profile"
	"storefront/internal/response"
	"storefront/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(envOr("CONFIG_FILE", "internal/config/config.yaml"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.App.IsProduction())
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Migration.AutoMigrate {
		if err := migrateUp(cfg.Database, zapLogger); err != nil {
			zapLogger.Fatal("applying migrations", zap.Error(err))
		}
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	ctx := context.Background()

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer client.Close()
		blacklist = auth.NewRedisTokenBlacklist(client)
		zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		zapLogger.Warn("REDIS_ADDR not set, revoked tokens are kept in memory")
	}

	var publisher events.Publisher = events.NopPublisher{}
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BufferSize, zapLogger)
		producer.Start()
		publisher = events.NewKafkaPublisher(producer, zapLogger)
		zapLogger.Info("order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	notifier := notification.New(cfg.Telegram, zapLogger)

	resp := response.NewWriter(zapLogger, !cfg.App.IsProduction())
	tokens := auth.NewTokenService(cfg.Auth)
	authMiddleware := auth.NewMiddleware(tokens, blacklist, auth.DefaultPolicy(), resp, zapLogger)

	productModule := product.NewModule(db, resp, zapLogger)
	profileModule := profile.NewModule(db, resp, zapLogger)
	accountModule := account.NewModule(db, profileModule.Registry, cfg.Auth.BcryptCost, tokens, authMiddleware, resp, zapLogger)
	contentModule := content.NewModule(db, resp, zapLogger)
	orderModule := order.NewModule(order.Dependencies{
		DB:        db,
		Config:    cfg.Order,
		Profiles:  profileModule.Registry,
		Catalog:   productModule.Catalog,
		Notifier:  notifier,
		Publisher: publisher,
		Response:  resp,
		Logger:    zapLogger,
	})

	router := server.NewRouter(server.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		DB:             db,
		Auth:           authMiddleware,
		Response:       resp,
		Logger:         zapLogger,
	}, server.Handlers{
		Catalog:  productModule.Controller,
		Accounts: accountModule.Controller,
		Profiles: profileModule.Controller,
		Orders:   orderModule.Controller,
		Content:  contentModule.Controller,
	})

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

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(shutdownCtx); err != nil {
			zapLogger.Error("flushing order events failed", zap.Error(err))
		}
	}

	zapLogger.Info("server stopped gracefully")
}

func migrateUp(cfg config.DatabaseConfig, logger *zap.Logger) error {
	m, err := mysql.NewMigrator(cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
