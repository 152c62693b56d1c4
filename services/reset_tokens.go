package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrResetTokenUnknown is returned when a reset token id was never issued,
// has expired, or was already used.
var ErrResetTokenUnknown = errors.New("reset token not found")

const resetTokenPrefix = "password_reset:"

// ResetTokenStore remembers issued reset token ids until they are used once.
type ResetTokenStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	// Consume returns the user id bound to jti and forgets it.
	Consume(ctx context.Context, jti string) (string, error)
}

// RedisResetTokens keeps reset token ids in Redis with a TTL.
type RedisResetTokens struct {
	client *redis.Client
}

func NewRedisResetTokens(client *redis.Client) *RedisResetTokens {
	return &RedisResetTokens{client: client}
}

func (r *RedisResetTokens) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, resetTokenPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

func (r *RedisResetTokens) Consume(ctx context.Context, jti string) (string, error) {
	userID, err := r.client.GetDel(ctx, resetTokenPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrResetTokenUnknown
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}

// MemoryResetTokens is the single-instance fallback used when Redis is
// unavailable.
type MemoryResetTokens struct {
	mu     sync.Mutex
	tokens map[string]memoryResetToken
	now    func() time.Time
}

type memoryResetToken struct {
	userID    string
	expiresAt time.Time
}

func NewMemoryResetTokens() *MemoryResetTokens {
	return &MemoryResetTokens{tokens: map[string]memoryResetToken{}, now: time.Now}
}

func (m *MemoryResetTokens) Save(_ context.Context, jti, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, t := range m.tokens {
		if !now.Before(t.expiresAt) {
			delete(m.tokens, k)
		}
	}
	m.tokens[jti] = memoryResetToken{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryResetTokens) Consume(_ context.Context, jti string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[jti]
	delete(m.tokens, jti)
	if !ok || !m.now().Before(t.expiresAt) {
		return "", ErrResetTokenUnknown
	}
	return t.userID, nil
}
