package revoke_test

import (
	"context"
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	mem := revoke.NewMemoryWithClock(func() time.Time { return now })

	require.NoError(t, mem.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, mem.Revoke(ctx, "b", now.Add(time.Hour)))

	ok, err := mem.IsRevoked(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)

	ok, err = mem.IsRevoked(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := mem.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 1, mem.Len())
}

func TestMemoryRevokeKeepsLongestExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	mem := revoke.NewMemoryWithClock(func() time.Time { return now })

	require.NoError(t, mem.Revoke(ctx, "a", now.Add(time.Hour)))
	require.NoError(t, mem.Revoke(ctx, "a", now.Add(time.Minute)))

	now = now.Add(30 * time.Minute)
	ok, err := mem.IsRevoked(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := revoke.NewMemory().IsRevoked(ctx, "a")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryConcurrentUse(t *testing.T) {
	ctx := context.Background()
	mem := revoke.NewMemory()
	exp := time.Now().Add(time.Minute)

	done := make(chan struct{})
	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := range 100 {
				jti := string(rune('a'+i)) + string(rune('a'+j%26))
				_ = mem.Revoke(ctx, jti, exp)
				_, _ = mem.IsRevoked(ctx, jti)
			}
		}()
	}
	for range 8 {
		<-done
	}
	require.LessOrEqual(t, mem.Len(), 8*26)
}
