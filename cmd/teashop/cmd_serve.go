package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vasiliy-maslov/teashop/internal/auth"
	"github.com/vasiliy-maslov/teashop/internal/cache"
	"github.com/vasiliy-maslov/teashop/internal/cart"
	"github.com/vasiliy-maslov/teashop/internal/config"
	"github.com/vasiliy-maslov/teashop/internal/db"
	teashopHttp "github.com/vasiliy-maslov/teashop/internal/handler/http"
	"github.com/vasiliy-maslov/teashop/internal/order"
	"github.com/vasiliy-maslov/teashop/internal/product"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "teashop").Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	setupLogger(cfg.App)

	log.Info().Str("env", cfg.App.Env).Msg("Teashop starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.MigrateOnStartup {
		if err := db.MigrateUp(cfg.Postgres); err != nil {
			log.Error().Err(err).Msg("Failed to apply migrations")
			return fmt.Errorf("serve: %w", err)
		}
	}

	postgres, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return fmt.Errorf("serve: %w", err)
	}
	defer postgres.Close()

	var productCache product.Cache
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
			return fmt.Errorf("serve: %w", err)
		}
		defer closeRedis(client)
		productCache = cache.NewRedisCache(client, cfg.Redis.ProductCacheTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.ProductCacheTTL).Msg("Product cache enabled")
	} else {
		log.Info().Msg("REDIS_ADDR not set, product cache disabled")
	}

	router := teashopHttp.NewRouter(teashopHttp.Dependencies{
		Users:    user.NewService(user.NewRepository(postgres.Pool)),
		Products: product.NewService(product.NewRepository(postgres.Pool), productCache),
		Carts:    cart.NewService(cart.NewRepository(postgres.Pool)),
		Orders:   order.NewService(order.NewRepository(postgres.Pool), cfg.Order),
		Tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Teashop stopped gracefully")
	return nil
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close redis client")
	}
}
