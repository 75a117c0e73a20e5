//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/focus/internal/persistence/postgres"
)

func TestUsageHandlerStoresEvent(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	handler := NewUsageHandler(postgres.NewRepository(pool))

	payload := json.RawMessage(`{
        "user_id": "user-1",
        "email": "u@example.com",
        "date": "2026-08-30",
        "app_usage": {"VS Code": 420, "Netflix": 300},
        "tab_usage": [{"domain": "github.com", "title": "PR review", "duration": 120}]
    }`)
	msg := Message{
		EventType:     "usage.recorded",
		SchemaID:      42,
		SchemaSubject: "focus_usage_events-value",
		Topic:         "focus_usage_events",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))

	var appCount, tabCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM app_usage WHERE user_id = 'user-1'`).Scan(&appCount))
	require.Equal(t, 2, appCount)
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM tab_usage WHERE user_id = 'user-1'`).Scan(&tabCount))
	require.Equal(t, 1, tabCount)

	// redelivery of the same snapshot accumulates durations
	require.NoError(t, handler.Handle(ctx, msg))

	var duration int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT duration FROM app_usage WHERE user_id = 'user-1' AND date = '2026-08-30' AND app_name = 'VS Code'`,
	).Scan(&duration))
	require.Equal(t, 840, duration)
}

func setupPostgres(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("focus"),
		postgrescontainer.WithUsername("focus"),
		postgrescontainer.WithPassword("focus"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return pool, cleanup
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	migrationsPath := resolvePath(t, "../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, file := range files {
		content, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)
		_, execErr := pool.Exec(ctx, string(content))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}
