// Package dbtest connects repository tests to a real PostgreSQL instance.
//
// Tests are skipped unless DB_HOST_TEST is set. The remaining DB_*_TEST
// variables fall back to localhost defaults.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/teashop/internal/config"
	"github.com/vasiliy-maslov/teashop/internal/db"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Config returns the connection settings for the test database.
func Config() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            os.Getenv("DB_HOST_TEST"),
		Port:            envOr("DB_PORT_TEST", "5432"),
		User:            envOr("DB_USER_TEST", "postgres"),
		Password:        envOr("DB_PASSWORD_TEST", "123456"),
		DBName:          envOr("DB_NAME_TEST", "teashop_test"),
		SSLMode:         envOr("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
}

// Open returns a migrated, truncated pool, closing it when the test ends.
func Open(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	if os.Getenv("DB_HOST_TEST") == "" {
		tb.Skip("DB_HOST_TEST is not set, skipping database test")
	}

	cfg := Config()

	migrateOnce.Do(func() {
		migrateErr = db.MigrateUp(cfg)
	})
	require.NoError(tb, migrateErr, "failed to migrate test database")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := db.New(ctx, cfg)
	require.NoError(tb, err, "failed to connect to test database")

	Truncate(tb, pg.Pool)
	tb.Cleanup(func() {
		Truncate(tb, pg.Pool)
		pg.Close()
	})

	return pg.Pool
}

// Truncate empties every application table.
func Truncate(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE order_items, orders, cart_items, product_variants, products, users RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate tables")
}
