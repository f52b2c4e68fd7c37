// Package storetest is a conformance suite shared by every core.ResourceStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/resourcevault/internal/core"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) core.ResourceStore

// Run exercises the ResourceStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateThenList", func(t *testing.T) { testCreateThenList(t, newStore(t)) })
	t.Run("UpdateOnlyTouchesIsActive", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("UpdateUnknown", func(t *testing.T) { testUpdateUnknown(t, newStore(t)) })
	t.Run("DeleteTwice", func(t *testing.T) { testDeleteTwice(t, newStore(t)) })
	t.Run("CreateMany", func(t *testing.T) { testCreateMany(t, newStore(t)) })
	t.Run("CreateManyEmpty", func(t *testing.T) { testCreateManyEmpty(t, newStore(t)) })
	t.Run("ConcurrentCreates", func(t *testing.T) { testConcurrentCreates(t, newStore(t)) })
}

func testCreateThenList(t *testing.T, s core.ResourceStore) {
	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Second)

	created, err := s.Create(ctx, core.ResourceDraft{URL: "http://a.com", Login: "u1", Password: "p1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, time.UTC, created.CreatedAt.Location())
	assert.True(t, created.CreatedAt.After(before), "created_at %v should be recent", created.CreatedAt)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	if diff := cmp.Diff(created, list[0]); diff != "" {
		t.Errorf("listed resource mismatch (-created +listed):\n%s", diff)
	}
}

func testUpdate(t *testing.T, s core.ResourceStore) {
	ctx := context.Background()
	created, err := s.Create(ctx, core.ResourceDraft{URL: "http://a.com", Login: "u1", Password: "p1"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	want := created
	want.IsActive = false
	if diff := cmp.Diff(want, list[0]); diff != "" {
		t.Errorf("only is_active should change (-want +got):\n%s", diff)
	}

	reactivated, err := s.Update(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func testUpdateUnknown(t *testing.T, s core.ResourceStore) {
	ctx := context.Background()
	created, err := s.Create(ctx, core.ResourceDraft{URL: "http://a.com", Login: "u1", Password: "p1"})
	require.NoError(t, err)

	_, err = s.Update(ctx, "does-not-exist", false)
	assert.True(t, errors.Is(err, core.ErrNotFound), "want ErrNotFound, got %v", err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.True(t, list[0].IsActive)
}

func testDeleteTwice(t *testing.T, s core.ResourceStore) {
	ctx := context.Background()
	keep, err := s.Create(ctx, core.ResourceDraft{URL: "http://keep.com", Login: "k", Password: "k"})
	require.NoError(t, err)
	drop, err := s.Create(ctx, core.ResourceDraft{URL: "http://drop.com", Login: "d", Password: "d"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, drop.ID))

	err = s.Delete(ctx, drop.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "want ErrNotFound, got %v", err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
}

func testCreateMany(t *testing.T, s core.ResourceStore) {
	ctx := context.Background()
	drafts := []core.ResourceDraft{
		{URL: "http://a.com", Login: "u1", Password: "p1"},
		{URL: "http://a.com", Login: "u1", Password: "p1"},
		{URL: "https://host:8080/p", Login: "login", Password: "pass"},
	}

	created, err := s.CreateMany(ctx, drafts)
	require.NoError(t, err)
	require.Len(t, created, len(drafts))

	ids := make(map[string]bool)
	for i, res := range created {
		assert.Equal(t, drafts[i].URL, res.URL)
		assert.Equal(t, drafts[i].Login, res.Login)
		assert.Equal(t, drafts[i].Password, res.Password)
		assert.True(t, res.IsActive)
		ids[res.ID] = true
	}
	assert.Len(t, ids, len(drafts), "identical drafts must still get distinct ids")

	list, err := s.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(created, list); diff != "" {
		t.Errorf("listed resources differ from created ones or their order (-created +listed):\n%s", diff)
	}
}

func testCreateManyEmpty(t *testing.T, s core.ResourceStore) {
	created, err := s.CreateMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func testConcurrentCreates(t *testing.T, s core.ResourceStore) {
	ctx := context.Background()
	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.Create(ctx, core.ResourceDraft{URL: "http://c.com", Login: "u", Password: "p"}); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent create: %v", err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, workers*perWorker)
}
