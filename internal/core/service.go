package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/logging"
	"github.com/JonMunkholm/resourcevault/internal/metrics"
)

// DefaultImportTimeout bounds a single import when none is configured.
const DefaultImportTimeout = 2 * time.Minute

// Service is the entry point for all resource operations.
type Service struct {
	store         ResourceStore
	limiter       *ImportLimiter
	importTimeout time.Duration
}

// NewService creates a Service over store using the import settings in cfg.
func NewService(store ResourceStore, cfg config.ImportConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	return &Service{
		store:         store,
		limiter:       NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		importTimeout: timeout,
	}
}

// logger returns a request-scoped logger carrying caller metadata.
func (s *Service) logger(ctx context.Context) *slog.Logger {
	logger := logging.FromContext(ctx)
	if ip := ClientIPFromContext(ctx); ip != "" {
		logger = logger.With("client_ip", ip)
	}
	if ua := UserAgentFromContext(ctx); ua != "" {
		logger = logger.With("user_agent", ua)
	}
	return logger
}

// CreateResource stores a new active resource.
// Fields are stored as given; a blank field fails with ErrInvalidResource.
func (s *Service) CreateResource(ctx context.Context, d ResourceDraft) (Resource, error) {
	if strings.TrimSpace(d.URL) == "" || strings.TrimSpace(d.Login) == "" || strings.TrimSpace(d.Password) == "" {
		return Resource{}, ErrInvalidResource
	}

	res, err := s.store.Create(ctx, d)
	metrics.RecordOperation("create", err)
	if err != nil {
		return Resource{}, fmt.Errorf("create resource: %w", err)
	}

	s.logger(ctx).Info("resource created", "resource_id", res.ID, "url", res.URL)
	return res, nil
}

// ListResources returns every stored resource.
func (s *Service) ListResources(ctx context.Context) ([]Resource, error) {
	resources, err := s.store.List(ctx)
	metrics.RecordOperation("list", err)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if resources == nil {
		resources = []Resource{}
	}
	return resources, nil
}

// SetActive changes the activation flag of resource id.
// Returns an error wrapping ErrNotFound if id does not exist.
func (s *Service) SetActive(ctx context.Context, id string, isActive bool) (Resource, error) {
	res, err := s.store.Update(ctx, id, isActive)
	metrics.RecordOperation("update", err)
	if err != nil {
		return Resource{}, fmt.Errorf("update resource %s: %w", id, err)
	}

	s.logger(ctx).Info("resource updated", "resource_id", id, "is_active", isActive)
	return res, nil
}

// DeleteResource permanently removes resource id.
// Returns an error wrapping ErrNotFound if id does not exist.
func (s *Service) DeleteResource(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	metrics.RecordOperation("delete", err)
	if err != nil {
		return fmt.Errorf("delete resource %s: %w", id, err)
	}

	s.logger(ctx).Info("resource deleted", "resource_id", id)
	return nil
}

// Import parses raw as url:login:password lines and stores every valid one.
//
// Malformed lines are reported in the result and never fail the call. The
// call fails for a non-UTF-8 payload (nothing is stored), when no import slot
// frees up, or on a storage failure. After a storage failure the returned
// result counts the rows that were already committed.
func (s *Service) Import(ctx context.Context, raw []byte) (ImportResult, error) {
	start := time.Now()
	logger := s.logger(ctx)

	if err := s.limiter.Acquire(ctx); err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	text, err := DecodeImport(raw)
	if err != nil {
		logger.Warn("import rejected", "error", err, "bytes", len(raw))
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}

	plan := ParseImport(text)

	var created []Resource
	if len(plan.Drafts) > 0 {
		created, err = s.store.CreateMany(ctx, plan.Drafts)
		metrics.RecordOperation("create_many", err)
	}

	result := ImportResult{
		Message:  fmt.Sprintf("Imported resources: %d", len(created)),
		Imported: len(created),
		Errors:   plan.Messages(),
	}

	invalid, empty := countReasons(plan.Diagnostics)
	metrics.RecordImport(len(created), invalid, empty, time.Since(start))

	if err != nil {
		logger.Error("import failed",
			"error", err,
			"imported", len(created),
			"pending", len(plan.Drafts)-len(created),
		)
		return result, fmt.Errorf("import: %w", err)
	}

	logger.Info("import completed",
		"imported", result.Imported,
		"rejected", len(plan.Diagnostics),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func countReasons(diags []LineError) (invalidFormat, emptyFields int) {
	for _, d := range diags {
		switch d.Reason {
		case ReasonInvalidFormat:
			invalidFormat++
		case ReasonEmptyFields:
			emptyFields++
		}
	}
	return invalidFormat, emptyFields
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportStatus returns the current import limiter state.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until active imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
