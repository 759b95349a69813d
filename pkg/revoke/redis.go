package revoke

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces deny list keys.
const DefaultKeyPrefix = "lms:revoked:"

// redisCommands is the slice of the go-redis API the store needs.
type redisCommands interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis keeps one key per revoked jti. Keys expire with the token so the
// deny list never grows past the set of live tokens.
type Redis struct {
	client redisCommands
	prefix string
	now    func() time.Time
}

// NewRedis accepts any go-redis client (single node, cluster, ring).
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	return newRedis(client, prefix, time.Now)
}

func newRedis(client redisCommands, prefix string, now func() time.Time) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, now: now}
}

func (r *Redis) key(jti string) string { return r.prefix + jti }

func (r *Redis) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// Already expired; the validator rejects it without our help.
		return nil
	}
	if err := r.client.Set(ctx, r.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke: redis set: %w", err)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revoke: redis exists: %w", err)
	}
	return n > 0, nil
}
