package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setServeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "1")
	t.Setenv("DB_USER", "teashop")
	t.Setenv("DB_PASSWORD", "teashop")
	t.Setenv("DB_NAME", "teashop")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "disabled")

	previous := envFile
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { envFile = previous })
}

func TestRunServe_ReturnsErrorWhenMigrationsFail(t *testing.T) {
	setServeEnv(t)
	t.Setenv("DB_MIGRATE_ON_START", "true")

	err := runServe(serveCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration")
}

func TestRunServe_ReturnsErrorWhenDatabaseUnreachable(t *testing.T) {
	setServeEnv(t)
	t.Setenv("DB_MIGRATE_ON_START", "false")

	err := runServe(serveCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping db")
}

func TestRunServe_ReturnsErrorWhenConfigIncomplete(t *testing.T) {
	setServeEnv(t)
	t.Setenv("JWT_SECRET", "")

	err := runServe(serveCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
