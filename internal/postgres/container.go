package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container is an handle on a PostgreSQL container started through testcontainers.
type Container struct {
	*postgres.PostgresContainer

	ConnectionDSN string
}

// NewContainer creates and starts a new PostgreSQL container
// using testcontainers, then returns a handle to said container
// to manage its lifecycle.
func NewContainer(ctx context.Context) (*Container, error) {
	withContext := func(msg string, err error) error {
		return fmt.Errorf("postgres.NewContainer: %s, %w", msg, err)
	}

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("booking"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("notasecret"),
		testcontainers.WithWaitStrategy(
			//nolint:mnd // It's ok to use a magic number here.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, withContext("failed to run new container", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, withContext("failed to get connection dsn", err)
	}

	return &Container{
		PostgresContainer: container,
		ConnectionDSN:     dsn,
	}, nil
}

// StartTestContainer starts a PostgreSQL container for the duration of the test,
// runs the provided migrations and returns a connection pool to it.
//
// The test is skipped when running in short mode.
func StartTestContainer(t *testing.T, migrations ...func(dsn string) error) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres integration tests are skipped in short mode")
	}

	ctx := context.Background()

	container, err := NewContainer(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	for _, migrate := range migrations {
		require.NoError(t, migrate(container.ConnectionDSN))
	}

	pool, err := pgxpool.New(ctx, container.ConnectionDSN)
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	return pool
}
