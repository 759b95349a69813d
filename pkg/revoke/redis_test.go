package revoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRedis records SET calls and answers EXISTS from them.
type fakeRedis struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) Set(ctx context.Context, key string, _ any, exp time.Duration) *redis.StatusCmd {
	if f.err != nil {
		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRevokeSetsTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	store := newRedis(fake, "", func() time.Time { return now })

	require.NoError(t, store.Revoke(ctx, "jti-1", now.Add(10*time.Minute)))
	require.Equal(t, 10*time.Minute, fake.keys[DefaultKeyPrefix+"jti-1"])

	ok, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisRevokeAlreadyExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	store := newRedis(fake, "t:", func() time.Time { return now })

	require.NoError(t, store.Revoke(context.Background(), "old", now.Add(-time.Second)))
	require.Empty(t, fake.keys)
}

func TestRedisErrorsSurface(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}, err: errors.New("i/o timeout")}
	store := newRedis(fake, "", time.Now)

	_, err := store.IsRevoked(context.Background(), "jti")
	require.Error(t, err)

	c := NewChecker(store)
	require.ErrorIs(t, c.Check(context.Background(), "jti"), ErrUnavailable)

	require.Error(t, store.Revoke(context.Background(), "jti", time.Now().Add(time.Minute)))
}
