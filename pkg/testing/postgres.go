package testing

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/marathon/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// GetDBPool connects to the postgres of the integration environment
// (POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB) and applies the schema.
// Tables listed in truncate are emptied first.
func GetDBPool(t *testing.T, truncate ...string) (context.Context, *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	host := envOr("POSTGRES_HOST", "localhost")
	t.Logf("using postgres host: %s", host)

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     host,
		DBPort:     envOr("POSTGRES_PORT", "5432"),
		DBName:     envOr("POSTGRES_DB", "marathon"),
		DBPassword: envOr("POSTGRES_PASSWORD", ""),
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, db.Migrate(ctx, pool))

	for _, table := range truncate {
		_, err := pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err)
	}

	return ctx, pool
}
