package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
)

// newTestDB skips unless DATABASE_URL is set
func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestDB_HealthCheck(t *testing.T) {
	db := newTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))
}

func TestDB_WithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.Pool.Exec(ctx, `CREATE TEMP TABLE tx_probe (v INT)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO tx_probe VALUES (1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDB_Migrate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS migrate_probe`,
		`CREATE TABLE IF NOT EXISTS migrate_probe.t (id INT PRIMARY KEY)`,
	}
	require.NoError(t, db.Migrate(ctx, stmts))
	require.NoError(t, db.Migrate(ctx, stmts), "migrations are re-runnable")

	_, err := db.Pool.Exec(ctx, `DROP SCHEMA migrate_probe CASCADE`)
	require.NoError(t, err)

	err = db.Migrate(ctx, []string{`NOT VALID SQL`})
	assert.Error(t, err)
}

func TestDB_CloseTwice(t *testing.T) {
	db := newTestDB(t)
	assert.NotPanics(t, func() {
		db.Close()
		db.Close()
	})
}
