package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/store/memory"
)

func newService(t *testing.T) (*core.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := core.NewService(st, config.ImportConfig{
		MaxConcurrent: 2,
		MaxWaitTime:   50 * time.Millisecond,
		Timeout:       5 * time.Second,
	})
	return svc, st
}

func TestService_CreateResource(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.CreateResource(ctx, core.ResourceDraft{URL: "https://example.com", Login: "alice", Password: "s3cret"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.True(t, res.IsActive)
	assert.Equal(t, "https://example.com", res.URL)
	assert.WithinDuration(t, time.Now(), res.CreatedAt, 5*time.Second)

	list, err := svc.ListResources(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.ID, list[0].ID)
}

func TestService_CreateResource_BlankField(t *testing.T) {
	svc, _ := newService(t)

	drafts := []core.ResourceDraft{
		{URL: "", Login: "a", Password: "b"},
		{URL: "u", Login: "   ", Password: "b"},
		{URL: "u", Login: "a", Password: ""},
	}
	for _, d := range drafts {
		_, err := svc.CreateResource(context.Background(), d)
		assert.ErrorIs(t, err, core.ErrInvalidResource)
	}

	list, err := svc.ListResources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestService_SetActiveAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.CreateResource(ctx, core.ResourceDraft{URL: "u", Login: "l", Password: "p"})
	require.NoError(t, err)

	updated, err := svc.SetActive(ctx, res.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, res.URL, updated.URL)
	assert.Equal(t, res.Password, updated.Password)

	require.NoError(t, svc.DeleteResource(ctx, res.ID))
	assert.ErrorIs(t, svc.DeleteResource(ctx, res.ID), core.ErrNotFound)

	_, err = svc.SetActive(ctx, res.ID, true)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_Import(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	payload := "http://a.com:u1:p1\nbad-line\n\nhttps://host:8080/p:login:pass\nhttp://c.com::p3\n"
	result, err := svc.Import(ctx, []byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, "Imported resources: 2", result.Message)
	assert.Equal(t, []string{
		"Line 2: invalid format (expected url:login:pass)",
		"Line 5: empty fields",
	}, result.Errors)

	list, err := svc.ListResources(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "http://a.com", list[0].URL)
	assert.Equal(t, "https://host:8080/p", list[1].URL)
	assert.Equal(t, "login", list[1].Login)
	for _, r := range list {
		assert.True(t, r.IsActive)
	}
}

func TestService_Import_NothingValid(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.Import(context.Background(), []byte("nope\n"))
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Equal(t, "Imported resources: 0", result.Message)
	assert.Len(t, result.Errors, 1)
}

func TestService_Import_EmptyPayload(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestService_Import_InvalidEncoding(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []byte("http://a.com:u:p\n\xff\xfe"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEncoding)

	list, err := svc.ListResources(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "nothing may be stored for an undecodable payload")
}

func TestService_Import_Busy(t *testing.T) {
	block := &blockingStore{Store: memory.New(), release: make(chan struct{}), entered: make(chan struct{})}
	svc := core.NewService(block, config.ImportConfig{MaxConcurrent: 1, MaxWaitTime: 20 * time.Millisecond})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Import(context.Background(), []byte("a:b:c"))
		assert.NoError(t, err)
	}()

	<-block.entered
	assert.Equal(t, 1, svc.ImportStatus().Active)

	_, err := svc.Import(context.Background(), []byte("d:e:f"))
	assert.ErrorIs(t, err, core.ErrTooManyImports)

	close(block.release)
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.WaitForImports(ctx))
	assert.Equal(t, 0, svc.ImportStatus().Active)
}

func TestService_Import_StorageFailureKeepsPartialCount(t *testing.T) {
	st := &failingStore{Store: memory.New(), failAfter: 1}
	svc := core.NewService(st, config.ImportConfig{})

	result, err := svc.Import(context.Background(), []byte("a:b:c\nd:e:f\ng:h:i"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, "Imported resources: 1", result.Message)
}

// blockingStore holds CreateMany until release is closed.
type blockingStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Store.CreateMany(ctx, drafts)
}

// failingStore commits failAfter drafts of a CreateMany and then fails.
type failingStore struct {
	*memory.Store
	failAfter int
}

func (f *failingStore) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	n := min(f.failAfter, len(drafts))
	created, err := f.Store.CreateMany(ctx, drafts[:n])
	if err != nil {
		return created, err
	}
	if n < len(drafts) {
		return created, core.NewStorageError("fake: create many", errors.New("disk full"))
	}
	return created, nil
}
