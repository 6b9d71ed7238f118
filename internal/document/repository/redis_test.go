package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisRepo(t *testing.T) (*RedisRepo, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepo(client, "test:export:"), m
}

func TestRedisRepo_PutGetOverwrite(t *testing.T) {
	repo, m := newTestRedisRepo(t)
	ctx := context.Background()
	t1 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(90 * time.Second)

	require.NoError(t, repo.Put(ctx, "roster_1.json", json.RawMessage(`{"name":"A"}`), t1))
	require.NoError(t, repo.Put(ctx, "roster_1.json", json.RawMessage(`{"name":"B"}`), t2))

	got, err := repo.Get(ctx, "roster_1.json")
	require.NoError(t, err)
	require.Equal(t, `{"name":"B"}`, string(got.Body))
	require.True(t, t2.Equal(got.UpdatedAt))

	require.Equal(t, `{"name":"B"}`, m.HGet("test:export:docs", "roster_1.json"))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, t2.Equal(list[0].UpdatedAt))
}

func TestRedisRepo_GetMissing(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	_, err := repo.Get(context.Background(), "nope.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepo_ClearAndLen(t *testing.T) {
	repo, m := newTestRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "a.json", json.RawMessage(`[1,2]`), time.Now()))
	require.NoError(t, repo.Put(ctx, "b.json", json.RawMessage(`"x"`), time.Now()))
	n, err := repo.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, repo.Clear(ctx))
	require.False(t, m.Exists("test:export:docs"))
	require.False(t, m.Exists("test:export:updated"))

	_, err = repo.Get(ctx, "a.json")
	require.ErrorIs(t, err, ErrNotFound)
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	require.NoError(t, repo.Ping(ctx))
}

func TestRedisRepo_PreservesBodyBytes(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	ctx := context.Background()
	raw := `{ "z": 1.10, "a": 12345678901234567890 }`

	require.NoError(t, repo.Put(ctx, "raw.json", json.RawMessage(raw), time.Now()))
	got, err := repo.Get(ctx, "raw.json")
	require.NoError(t, err)
	require.Equal(t, raw, string(got.Body))
}
