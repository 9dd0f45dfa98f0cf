package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/internal/config"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Parse()
		require.NoError(t, err)

		assert.Equal(t, config.BackendPostgres, cfg.EventStore.Backend)
		assert.Equal(t, 4, cfg.Projection.Concurrency)
		assert.Equal(t, 3, cfg.Projection.RetryAttempts)
		assert.Equal(t, 100*time.Millisecond, cfg.Projection.InitialDelay)
		assert.Equal(t, ":9090", cfg.Metrics.Address)

		policy, err := cfg.SnapshotPolicy()
		require.NoError(t, err)
		assert.Equal(t, snapshot.EveryVersionIncrementPolicy(50), policy)
		assert.Len(t, cfg.ProjectionOptions(), 2)
	})

	t.Run("values are read with the BOOKING prefix", func(t *testing.T) {
		t.Setenv("BOOKING_EVENTSTORE_BACKEND", "sqlite")
		t.Setenv("BOOKING_EVENTSTORE_SQLITE_PATH", "/tmp/events.db")
		t.Setenv("BOOKING_SNAPSHOT_POLICY", "always")
		t.Setenv("BOOKING_PROJECTION_RETRY_ATTEMPTS", "5")
		t.Setenv("BOOKING_LOG_LEVEL", "debug")

		cfg, err := config.Parse()
		require.NoError(t, err)

		assert.Equal(t, config.BackendSQLite, cfg.EventStore.Backend)
		assert.Equal(t, "/tmp/events.db", cfg.EventStore.SQLitePath)
		assert.Equal(t, 5, cfg.Projection.RetryAttempts)

		policy, err := cfg.SnapshotPolicy()
		require.NoError(t, err)
		assert.Equal(t, snapshot.AlwaysPolicy{}, policy)

		logger, err := cfg.Logger()
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1))
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		testCases := []struct {
			name  string
			key   string
			value string
		}{
			{"unknown backend", "BOOKING_EVENTSTORE_BACKEND", "mongodb"},
			{"firestore without project", "BOOKING_EVENTSTORE_BACKEND", "firestore"},
			{"unknown snapshot policy", "BOOKING_SNAPSHOT_POLICY", "sometimes"},
			{"non-positive increment", "BOOKING_SNAPSHOT_INCREMENT", "0"},
			{"unknown log level", "BOOKING_LOG_LEVEL", "verbose"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Setenv(tc.key, tc.value)

				_, err := config.Parse()
				assert.ErrorIs(t, err, config.ErrInvalid)
			})
		}
	})

	t.Run("malformed values fail parsing", func(t *testing.T) {
		t.Setenv("BOOKING_PROJECTION_CONCURRENCY", "many")

		_, err := config.Parse()
		require.Error(t, err)
		assert.NotErrorIs(t, err, config.ErrInvalid)
	})
}
