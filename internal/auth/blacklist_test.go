package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements only the commands the blacklist issues.
type fakeRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.keys[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisTokenBlacklist(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	bl := NewRedisTokenBlacklist(fake)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	assert.Equal(t, time.Minute, fake.keys["storefront:token:revoked:jti-1"])

	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisTokenBlacklist_ExpiredTokenIsNotStored(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	require.NoError(t, NewRedisTokenBlacklist(fake).Revoke(context.Background(), "jti-1", -time.Second))
	assert.Empty(t, fake.keys)
}

func TestInMemoryTokenBlacklist_Expiry(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	now := time.Now()
	bl.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	revoked, _ := bl.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	bl.now = func() time.Time { return now.Add(2 * time.Minute) }
	revoked, _ = bl.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}
