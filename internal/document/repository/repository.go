package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tsldata/dataserver/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Repository stores the latest export per key. Put fully replaces any prior
// value; Clear removes every key in one step.
type Repository interface {
	Put(ctx context.Context, key string, body json.RawMessage, updatedAt time.Time) error
	Get(ctx context.Context, key string) (*document.Entry, error)
	List(ctx context.Context) ([]document.Summary, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}
