package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tsldata/dataserver/internal/document"
)

// RedisRepo keeps exports in two Redis hashes: "<prefix>docs" maps key to the
// raw body and "<prefix>updated" maps key to the RFC3339Nano write time. Both
// are written in one MULTI/EXEC so readers never see a body without its
// timestamp, and Clear deletes both hashes in a single DEL.
type RedisRepo struct {
	client     redis.Cmdable
	docsKey    string
	updatedKey string
}

// NewRedisRepo creates a Redis-backed repository. Prefix may be empty.
func NewRedisRepo(client redis.Cmdable, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "export:"
	}
	return &RedisRepo{client: client, docsKey: prefix + "docs", updatedKey: prefix + "updated"}
}

func (r *RedisRepo) Put(ctx context.Context, key string, body json.RawMessage, updatedAt time.Time) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.docsKey, key, []byte(body))
		p.HSet(ctx, r.updatedKey, key, updatedAt.UTC().Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, key string) (*document.Entry, error) {
	var bodyCmd, tsCmd *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		bodyCmd = p.HGet(ctx, r.docsKey, key)
		tsCmd = p.HGet(ctx, r.updatedKey, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	b, err := bodyCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e := &document.Entry{Key: key, Body: json.RawMessage(b)}
	if ts, err := tsCmd.Result(); err == nil {
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return e, nil
}

func (r *RedisRepo) List(ctx context.Context) ([]document.Summary, error) {
	m, err := r.client.HGetAll(ctx, r.updatedKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	out := make([]document.Summary, 0, len(m))
	for k, v := range m {
		ts, _ := time.Parse(time.RFC3339Nano, v)
		out = append(out, document.Summary{Key: k, UpdatedAt: ts})
	}
	return out, nil
}

func (r *RedisRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.docsKey, r.updatedKey).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

func (r *RedisRepo) Len(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.docsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis len: %w", err)
	}
	return int(n), nil
}

func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
