package store

// breaker.go wraps a ResourceStore in a circuit breaker.
//
// After MaxFailures consecutive storage failures the breaker opens and calls
// fail immediately with a storage error until OpenTimeout passes; then a
// single probe is let through. Not-found results and caller cancellations are
// not storage failures and never trip it. Nothing is retried here.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/JonMunkholm/resourcevault/internal/core"
)

// BreakerConfig tunes WithCircuitBreaker.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

type breakerStore struct {
	next core.ResourceStore
	cb   *gobreaker.CircuitBreaker
}

// WithCircuitBreaker decorates next with a circuit breaker.
func WithCircuitBreaker(next core.ResourceStore, cfg BreakerConfig) core.ResourceStore {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"circuit", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &breakerStore{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, core.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// run executes fn through the breaker, turning rejections into storage errors.
func (b *breakerStore) run(op string, fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return core.NewStorageError(op, err)
	}
	return err
}

func (b *breakerStore) Create(ctx context.Context, d core.ResourceDraft) (core.Resource, error) {
	var res core.Resource
	err := b.run("create", func() (err error) {
		res, err = b.next.Create(ctx, d)
		return err
	})
	return res, err
}

func (b *breakerStore) List(ctx context.Context) ([]core.Resource, error) {
	var list []core.Resource
	err := b.run("list", func() (err error) {
		list, err = b.next.List(ctx)
		return err
	})
	return list, err
}

func (b *breakerStore) Update(ctx context.Context, id string, isActive bool) (core.Resource, error) {
	var res core.Resource
	err := b.run("update", func() (err error) {
		res, err = b.next.Update(ctx, id, isActive)
		return err
	})
	return res, err
}

func (b *breakerStore) Delete(ctx context.Context, id string) error {
	return b.run("delete", func() error {
		return b.next.Delete(ctx, id)
	})
}

// CreateMany passes partial results through even when the batch fails.
func (b *breakerStore) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	var created []core.Resource
	err := b.run("create many", func() (err error) {
		created, err = b.next.CreateMany(ctx, drafts)
		return err
	})
	return created, err
}

// Ping bypasses the breaker so health checks see the real backend state.
func (b *breakerStore) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *breakerStore) Close() error {
	return b.next.Close()
}
