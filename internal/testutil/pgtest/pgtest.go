// Package pgtest connects tests to a real PostgreSQL database.
package pgtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/farmledger/internal/infrastructure/postgres"
)

// EnvDatabaseURL names the variable that enables database tests.
const EnvDatabaseURL = "FARMLEDGER_TEST_DATABASE_URL"

// TestDB provides a migrated database for integration tests.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// New connects to the database named by FARMLEDGER_TEST_DATABASE_URL and
// applies migrations. The test is skipped when the variable is unset or
// -short is given.
func New(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv(EnvDatabaseURL)
	if dbURL == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath(t)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &TestDB{Pool: pool, t: t}
	db.TruncateAll(ctx)
	return db
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE outbox_events, withdrawal_requests, positions,
			processed_events, ledger_entries, balances, accounts CASCADE
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// migrationsPath walks up from the working directory to the module root.
func migrationsPath(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "internal", "infrastructure", "postgres", "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above working directory")
		}
		dir = parent
	}
}
