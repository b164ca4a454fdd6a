package postgres

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolWithConfigInvalidURL(t *testing.T) {
	_, err := NewPoolWithConfig(context.Background(), PoolConfig{DatabaseURL: "not-a-url"})
	assert.Error(t, err)
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPoolWithConfig(ctx, PoolConfig{
		DatabaseURL: "postgres://farmledger@127.0.0.1:1/farmledger?connect_timeout=1",
		MaxConns:    1,
	})
	assert.Error(t, err)
}

func TestMigrationsArePaired(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, up := range files {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := os.Stat(down)
		assert.NoError(t, err, "missing down migration for %s", up)
	}
}

func TestRunMigrationsBadSource(t *testing.T) {
	err := RunMigrations("postgres://farmledger@127.0.0.1:1/farmledger?connect_timeout=1", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
