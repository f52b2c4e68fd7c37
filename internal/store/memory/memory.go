// Package memory provides a thread-safe, in-memory resource store.
// Contents are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/resourcevault/internal/core"
)

// Store keeps resources in a map and remembers insertion order for listing.
type Store struct {
	mu    sync.RWMutex
	items map[string]core.Resource
	order []string
}

var _ core.ResourceStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		items: make(map[string]core.Resource),
	}
}

func (s *Store) insert(res core.Resource) {
	s.items[res.ID] = res
	s.order = append(s.order, res.ID)
}

func (s *Store) Create(ctx context.Context, d core.ResourceDraft) (core.Resource, error) {
	if err := ctx.Err(); err != nil {
		return core.Resource{}, err
	}
	res := core.NewResource(d)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(res)
	return res, nil
}

// List returns resources in insertion order.
func (s *Store) List(ctx context.Context) ([]core.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Resource, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id string, isActive bool) (core.Resource, error) {
	if err := ctx.Err(); err != nil {
		return core.Resource{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.items[id]
	if !ok {
		return core.Resource{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	res.IsActive = isActive
	s.items[id] = res
	return res, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// CreateMany inserts drafts one at a time. If ctx ends partway, the rows
// inserted so far stay and are returned with the context error.
func (s *Store) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	created := make([]core.Resource, 0, len(drafts))
	for _, d := range drafts {
		res, err := s.Create(ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, res)
	}
	return created, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
