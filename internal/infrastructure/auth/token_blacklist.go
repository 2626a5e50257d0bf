package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked sessions and token ids until they would
// have expired anyway.
type TokenBlacklist interface {
	// RevokeSession rejects every token carrying sessionID for ttl
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)

	// RevokeToken rejects a single token by its JTI for ttl
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistKeyPrefix = "portal:revoked:"

// RedisTokenBlacklist implements TokenBlacklist using Redis so revocations
// are shared by every gateway instance.
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist connects to Redis and verifies the connection
func NewRedisTokenBlacklist(ctx context.Context, cfg config.RedisConfig) (*RedisTokenBlacklist, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for token blacklist: %w", err)
	}

	return NewRedisTokenBlacklistWithClient(client), nil
}

// NewRedisTokenBlacklistWithClient creates a token blacklist with an existing Redis client
func NewRedisTokenBlacklistWithClient(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: blacklistKeyPrefix,
	}
}

func (b *RedisTokenBlacklist) sessionKey(sessionID string) string {
	return b.keyPrefix + "session:" + sessionID
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

// RevokeSession stores a session marker that expires with ttl
func (b *RedisTokenBlacklist) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.sessionKey(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsSessionRevoked checks for the session marker
func (b *RedisTokenBlacklist) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	return b.exists(ctx, b.sessionKey(sessionID))
}

// RevokeToken stores a JTI marker that expires with ttl
func (b *RedisTokenBlacklist) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks for the JTI marker
func (b *RedisTokenBlacklist) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return b.exists(ctx, b.jtiKey(jti))
}

func (b *RedisTokenBlacklist) exists(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (b *RedisTokenBlacklist) Close() error {
	return b.client.Close()
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// Only suitable for a single gateway instance.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	now     func() time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (b *InMemoryTokenBlacklist) add(key string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = b.now().Add(ttl)
}

func (b *InMemoryTokenBlacklist) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.entries[key]
	if !ok {
		return false
	}
	if !b.now().Before(expiry) {
		delete(b.entries, key)
		return false
	}
	return true
}

// RevokeSession marks the session revoked for ttl
func (b *InMemoryTokenBlacklist) RevokeSession(_ context.Context, sessionID string, ttl time.Duration) error {
	b.add("session:"+sessionID, ttl)
	return nil
}

// IsSessionRevoked reports an unexpired session marker
func (b *InMemoryTokenBlacklist) IsSessionRevoked(_ context.Context, sessionID string) (bool, error) {
	return b.has("session:" + sessionID), nil
}

// RevokeToken marks the JTI revoked for ttl
func (b *InMemoryTokenBlacklist) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	b.add("jti:"+jti, ttl)
	return nil
}

// IsTokenRevoked reports an unexpired JTI marker
func (b *InMemoryTokenBlacklist) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	return b.has("jti:" + jti), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
