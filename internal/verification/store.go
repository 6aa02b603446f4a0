package verification

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound is returned when no code is stored for the email, either
// because none was requested or because it expired.
var ErrCodeNotFound = errors.New("verification code not found or expired")

// CodeStore holds short-lived verification codes keyed by email.
type CodeStore interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// RedisCodeStore keeps codes in Redis with a TTL so expiry needs no sweeper.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore creates a Redis-backed code store
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func codeKey(email string) string {
	return "email_" + email
}

func (s *RedisCodeStore) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKey(email), code, ttl).Err()
}

func (s *RedisCodeStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, codeKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", err
	}
	return code, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, codeKey(email)).Err()
}
