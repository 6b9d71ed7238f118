package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tsldata/dataserver/internal/document"
	"github.com/tsldata/dataserver/internal/storage"
	"github.com/tsldata/dataserver/pkg/logger"
)

// ObjectStore is the object storage surface ObjectRepo needs. It is satisfied
// by *storage.MinIOStorage.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, time.Time, error)
	ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	RemovePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// ObjectRepo stores one object per export under "<prefix>g<N>/<key>", where N
// is the current generation recorded in "<prefix>GENERATION". Clear switches
// to a fresh generation with a single pointer write, so the old objects stop
// being visible at once, and then deletes them.
type ObjectRepo struct {
	store  ObjectStore
	prefix string

	mu  sync.RWMutex
	gen int
}

// NewObjectRepo loads the current generation from the store. Prefix may be empty.
func NewObjectRepo(ctx context.Context, store ObjectStore, prefix string) (*ObjectRepo, error) {
	if prefix == "" {
		prefix = "exports/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	r := &ObjectRepo{store: store, prefix: prefix}
	data, _, err := store.GetObject(ctx, r.pointerKey())
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		r.gen = 0
	case err != nil:
		return nil, fmt.Errorf("read generation: %w", err)
	default:
		g, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("parse generation %q: %w", data, err)
		}
		r.gen = g
	}
	return r, nil
}

func (r *ObjectRepo) pointerKey() string { return r.prefix + "GENERATION" }

func (r *ObjectRepo) genPrefix(gen int) string { return fmt.Sprintf("%sg%d/", r.prefix, gen) }

func (r *ObjectRepo) Put(ctx context.Context, key string, body json.RawMessage, _ time.Time) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.store.PutObject(ctx, r.genPrefix(r.gen)+key, []byte(body), "application/json"); err != nil {
		return fmt.Errorf("object put %s: %w", key, err)
	}
	return nil
}

func (r *ObjectRepo) Get(ctx context.Context, key string) (*document.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, mod, err := r.store.GetObject(ctx, r.genPrefix(r.gen)+key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("object get %s: %w", key, err)
	}
	return &document.Entry{Key: key, Body: json.RawMessage(data), UpdatedAt: mod.UTC()}, nil
}

func (r *ObjectRepo) List(ctx context.Context) ([]document.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.genPrefix(r.gen)
	objs, err := r.store.ListObjects(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("object list: %w", err)
	}
	out := make([]document.Summary, 0, len(objs))
	for _, o := range objs {
		out = append(out, document.Summary{Key: strings.TrimPrefix(o.Key, p), UpdatedAt: o.LastModified.UTC()})
	}
	return out, nil
}

func (r *ObjectRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	old := r.gen
	next := old + 1
	if err := r.store.PutObject(ctx, r.pointerKey(), []byte(strconv.Itoa(next)), "text/plain"); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("object clear: %w", err)
	}
	r.gen = next
	r.mu.Unlock()

	// objects of the old generation are unreachable now; removal is cleanup
	if err := r.store.RemovePrefix(ctx, r.genPrefix(old)); err != nil {
		logger.Warnf("object clear: removing generation %d: %v", old, err)
	}
	return nil
}

func (r *ObjectRepo) Len(ctx context.Context) (int, error) {
	list, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (r *ObjectRepo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
