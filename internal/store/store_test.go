package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/store"
	"github.com/JonMunkholm/resourcevault/internal/store/memory"
	"github.com/JonMunkholm/resourcevault/internal/store/storetest"
)

// flakyStore fails writes with a storage error while failing is set.
type flakyStore struct {
	*memory.Store
	failing bool
	calls   int
	// commitBeforeFail is how many drafts CreateMany stores before failing.
	commitBeforeFail int
}

var errDiskFull = errors.New("disk full")

func (f *flakyStore) Create(ctx context.Context, d core.ResourceDraft) (core.Resource, error) {
	f.calls++
	if f.failing {
		return core.Resource{}, core.NewStorageError("create", errDiskFull)
	}
	return f.Store.Create(ctx, d)
}

func (f *flakyStore) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	f.calls++
	if !f.failing {
		return f.Store.CreateMany(ctx, drafts)
	}
	created, err := f.Store.CreateMany(ctx, drafts[:f.commitBeforeFail])
	if err != nil {
		return created, err
	}
	return created, core.NewStorageError("create many", errDiskFull)
}

func breakerConfig() store.BreakerConfig {
	return store.BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Hour}
}

func TestCircuitBreaker_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.ResourceStore {
		return store.WithCircuitBreaker(memory.New(), breakerConfig())
	})
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	flaky := &flakyStore{Store: memory.New(), failing: true}
	s := store.WithCircuitBreaker(flaky, breakerConfig())
	ctx := context.Background()
	draft := core.ResourceDraft{URL: "u", Login: "l", Password: "p"}

	for i := 0; i < 2; i++ {
		_, err := s.Create(ctx, draft)
		require.ErrorIs(t, err, errDiskFull)
	}

	_, err := s.Create(ctx, draft)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, 2, flaky.calls, "open breaker must not reach the store")
	assert.Equal(t, "DB001", core.MapError(err).Code)
}

func TestCircuitBreaker_NotFoundDoesNotTrip(t *testing.T) {
	s := store.WithCircuitBreaker(memory.New(), breakerConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Update(ctx, "missing", true)
		require.ErrorIs(t, err, core.ErrNotFound)
		require.ErrorIs(t, s.Delete(ctx, "missing"), core.ErrNotFound)
	}

	_, err := s.Create(ctx, core.ResourceDraft{URL: "u", Login: "l", Password: "p"})
	assert.NoError(t, err)
}

func TestCircuitBreaker_CreateManyReturnsPartialResult(t *testing.T) {
	flaky := &flakyStore{Store: memory.New(), failing: true, commitBeforeFail: 1}
	s := store.WithCircuitBreaker(flaky, breakerConfig())

	created, err := s.CreateMany(context.Background(), []core.ResourceDraft{
		{URL: "a", Login: "l", Password: "p"},
		{URL: "b", Login: "l", Password: "p"},
	})

	assert.ErrorIs(t, err, core.ErrStorage)
	require.Len(t, created, 1)
	assert.Equal(t, "a", created[0].URL)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}}
		s, err := store.Open(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, s)
	})

	t.Run("sqlite with breaker", func(t *testing.T) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{
				Driver:             config.DriverSQLite,
				URL:                filepath.Join(t.TempDir(), "r.db"),
				BreakerEnabled:     true,
				BreakerMaxFailures: 3,
				BreakerOpenTimeout: time.Second,
			},
			Import: config.ImportConfig{BatchSize: 10},
		}
		s, err := store.Open(ctx, cfg)
		require.NoError(t, err)
		defer func() { _ = s.Close() }()

		require.NoError(t, s.Ping(ctx))
		_, err = s.Create(ctx, core.ResourceDraft{URL: "u", Login: "l", Password: "p"})
		assert.NoError(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{Driver: "mysql"}}
		_, err := store.Open(ctx, cfg)
		assert.Error(t, err)
	})
}
