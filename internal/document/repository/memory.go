package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tsldata/dataserver/internal/document"
)

// MemoryRepo keeps exports in process memory. Contents are lost when the
// process exits; the exporter has to push again after a restart.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Entry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Entry)}
}

func (m *MemoryRepo) Put(_ context.Context, key string, body json.RawMessage, updatedAt time.Time) error {
	// own the bytes so later mutation by the caller cannot leak in
	b := make(json.RawMessage, len(body))
	copy(b, body)
	e := &document.Entry{Key: key, Body: b, UpdatedAt: updatedAt.UTC()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = e
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, key string) (*document.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.store[key]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context) ([]document.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]document.Summary, 0, len(m.store))
	for _, e := range m.store {
		out = append(out, e.Summary())
	}
	return out, nil
}

func (m *MemoryRepo) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]*document.Entry)
	return nil
}

func (m *MemoryRepo) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *MemoryRepo) Ping(_ context.Context) error { return nil }
