package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tsldata/dataserver/internal/document"
	"github.com/tsldata/dataserver/internal/document/repository"
	"github.com/tsldata/dataserver/pkg/logger"
	"github.com/tsldata/dataserver/pkg/metrics"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPayload = errors.New("no valid JSON received")
)

// Service defines the export operations used by the handler layer.
type Service interface {
	// Ingest stores body under the key derived from path and returns that key.
	Ingest(ctx context.Context, path string, body []byte) (string, error)
	// Fetch returns the entry for a read path, with or without the .json suffix.
	Fetch(ctx context.Context, path string) (*document.Entry, error)
	// List returns every stored key with its last write time, sorted by key.
	List(ctx context.Context) ([]document.Summary, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Ready(ctx context.Context) error
}

// Option customizes a service.
type Option func(*exportService)

// WithClock overrides the time source used for write timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *exportService) { s.now = now }
}

// NewService returns a Service backed by repo.
func NewService(repo repository.Repository, opts ...Option) Service {
	s := &exportService{repo: repo, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...Option) Service {
	return NewService(repository.NewMemoryRepo(), opts...)
}

type exportService struct {
	repo repository.Repository
	now  func() time.Time
}

func (s *exportService) Ingest(ctx context.Context, path string, body []byte) (string, error) {
	if !json.Valid(body) {
		metrics.ExportsRejected.WithLabelValues("invalid_json").Inc()
		return "", ErrInvalidPayload
	}
	key := document.ResolveFilename(path)
	if err := s.repo.Put(ctx, key, json.RawMessage(body), s.now().UTC()); err != nil {
		metrics.ExportsRejected.WithLabelValues("storage").Inc()
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	metrics.ExportsReceived.Inc()
	s.refreshGauge(ctx)
	logger.Infof("stored %s (%d bytes)", key, len(body))
	return key, nil
}

func (s *exportService) Fetch(ctx context.Context, path string) (*document.Entry, error) {
	key := document.NormalizeKey(path)
	e, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.DocumentReads.WithLabelValues("miss").Inc()
			logger.Debugf("read %s: not found", key)
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		metrics.DocumentReads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	metrics.DocumentReads.WithLabelValues("hit").Inc()
	return e, nil
}

func (s *exportService) List(ctx context.Context) ([]document.Summary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b document.Summary) int { return strings.Compare(a.Key, b.Key) })
	return list, nil
}

func (s *exportService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	metrics.StoreClears.Inc()
	metrics.DocumentsStored.Set(0)
	logger.Warnf("store cleared")
	return nil
}

func (s *exportService) Count(ctx context.Context) (int, error) {
	return s.repo.Len(ctx)
}

func (s *exportService) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *exportService) refreshGauge(ctx context.Context) {
	if n, err := s.repo.Len(ctx); err == nil {
		metrics.DocumentsStored.Set(float64(n))
	}
}
