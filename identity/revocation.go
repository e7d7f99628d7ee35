package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList remembers tokens invalidated before their natural expiry
// (sign-out, account deletion).
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "revoked:"

// RedisRevocationList keeps revocations in Redis, expiring each entry when
// the token itself would have expired anyway.
type RedisRevocationList struct {
	client *redis.Client
}

var _ RevocationList = (*RedisRevocationList)(nil)

func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

func (r *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (r *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisRevocationList) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// MemoryRevocationList is the in-process stand-in for tests and single-node
// runs without Redis.
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

var _ RevocationList = (*MemoryRevocationList)(nil)

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = until
	return nil
}

func (m *MemoryRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
