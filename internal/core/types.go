// Package core provides the business logic for managing resource credentials.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resource is a stored credential record.
// Only IsActive may change after creation.
type Resource struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Login     string    `json:"login"`
	Password  string    `json:"password"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ResourceDraft is the caller-supplied part of a Resource.
type ResourceDraft struct {
	URL      string `json:"url"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Valid reports whether every field of the draft is non-empty.
func (d ResourceDraft) Valid() bool {
	return d.URL != "" && d.Login != "" && d.Password != ""
}

// NewResource builds a fresh, active Resource from a draft.
// Every call mints a new ID, so re-submitting a draft never deduplicates.
func NewResource(d ResourceDraft) Resource {
	return Resource{
		ID:        uuid.NewString(),
		URL:       d.URL,
		Login:     d.Login,
		Password:  d.Password,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// ResourceStore is the durable collection of resources.
//
// Implementations must apply each single-record operation atomically.
// CreateMany may commit rows independently; when it fails partway it returns
// the records already committed together with the error.
type ResourceStore interface {
	Create(ctx context.Context, d ResourceDraft) (Resource, error)
	List(ctx context.Context) ([]Resource, error)
	Update(ctx context.Context, id string, isActive bool) (Resource, error)
	Delete(ctx context.Context, id string) error
	CreateMany(ctx context.Context, drafts []ResourceDraft) ([]Resource, error)
	Ping(ctx context.Context) error
	Close() error
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}
