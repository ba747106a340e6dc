package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumengallery/auth-service/internal/domain"
)

// RedisCodeStore keeps one-time verification codes keyed by email.
// SET with TTL replaces any previous value under the same key, which gives
// the last-issued-wins guarantee without an explicit delete.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore creates the one-time-code cache adapter.
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Put(ctx context.Context, email string, code domain.OneTimeCode, ttl time.Duration) error {
	raw, err := json.Marshal(code)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "otp:code:"+email, raw, ttl).Err()
}

func (s *RedisCodeStore) Get(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	raw, err := s.client.Get(ctx, "otp:code:"+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.OneTimeCode
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, "otp:code:"+email).Err()
}
