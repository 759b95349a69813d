package revoke_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Revoke(context.Context, string, time.Time) error { return f.err }
func (f failingStore) IsRevoked(context.Context, string) (bool, error) { return false, f.err }

type slowStore struct{}

func (slowStore) Revoke(context.Context, string, time.Time) error { return nil }
func (slowStore) IsRevoked(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestCheckerRevokedAndLive(t *testing.T) {
	ctx := context.Background()
	mem := revoke.NewMemory()
	c := revoke.NewChecker(mem)

	require.NoError(t, c.Check(ctx, "jti-1"))

	require.NoError(t, c.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.ErrorIs(t, c.Check(ctx, "jti-1"), revoke.ErrRevoked)
	require.NoError(t, c.Check(ctx, "jti-2"))
}

func TestCheckerStoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	t.Run("fail closed by default", func(t *testing.T) {
		c := revoke.NewChecker(failingStore{err: boom})
		require.Equal(t, revoke.FailClosed, c.Policy)
		require.ErrorIs(t, c.Check(ctx, "jti"), revoke.ErrUnavailable)
	})

	t.Run("failed write is unavailable", func(t *testing.T) {
		c := revoke.NewChecker(failingStore{err: boom})
		c.Policy = revoke.FailOpen
		require.ErrorIs(t, c.Revoke(ctx, "jti", time.Now().Add(time.Minute)), revoke.ErrUnavailable)
	})

	t.Run("fail open", func(t *testing.T) {
		var reported error
		c := revoke.NewChecker(failingStore{err: boom})
		c.Policy = revoke.FailOpen
		c.OnError = func(_ context.Context, _ string, err error) { reported = err }

		require.NoError(t, c.Check(ctx, "jti"))
		require.ErrorIs(t, reported, boom)
	})
}

func TestCheckerTimeout(t *testing.T) {
	c := revoke.NewChecker(slowStore{})
	c.Timeout = 20 * time.Millisecond

	start := time.Now()
	err := c.Check(context.Background(), "jti")
	require.ErrorIs(t, err, revoke.ErrUnavailable)
	require.Less(t, time.Since(start), time.Second)
}

func TestNilCheckerAllows(t *testing.T) {
	var c *revoke.Checker
	require.NoError(t, c.Check(context.Background(), "jti"))
	require.Error(t, c.Revoke(context.Background(), "jti", time.Now().Add(time.Minute)))
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]revoke.Policy{
		"":            revoke.FailClosed,
		"fail-closed": revoke.FailClosed,
		"FAIL-OPEN":   revoke.FailOpen,
		"open":        revoke.FailOpen,
	} {
		got, err := revoke.ParsePolicy(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := revoke.ParsePolicy("maybe")
	require.Error(t, err)

	require.Equal(t, "fail-open", revoke.FailOpen.String())
	require.Equal(t, "fail-closed", revoke.FailClosed.String())
}
