package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/store/postgres"
	"github.com/JonMunkholm/resourcevault/internal/store/storetest"
)

// openTestStore connects to TEST_DATABASE_URL and empties the resources table.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := postgres.Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 0}, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, truncate(ctx, s))
	return s
}

func truncate(ctx context.Context, s *postgres.Store) error {
	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, res := range list {
		if err := s.Delete(ctx, res.ID); err != nil {
			return err
		}
	}
	return nil
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.ResourceStore {
		return openTestStore(t)
	})
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := postgres.Open(context.Background(), config.DatabaseConfig{URL: "postgres://%zz", MaxConns: 1}, 0)
	require.Error(t, err)
}
