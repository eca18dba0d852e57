package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	redis "github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "team:otp:"

// Redis stores each code as JSON under prefix+email with a matching TTL,
// so redis expires codes on its own.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(email string) string { return r.prefix + email }

func (r *Redis) Set(ctx context.Context, c domain.OneTimeCode) error {
	ttl := c.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, c.Email)
	}

	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("otpstore: encode: %w", err)
	}
	return r.client.Set(ctx, r.key(c.Email), b, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, email string) (domain.OneTimeCode, error) {
	b, err := r.client.Get(ctx, r.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OneTimeCode{}, ErrNotFound
	}
	if err != nil {
		return domain.OneTimeCode{}, err
	}

	var c domain.OneTimeCode
	if err := json.Unmarshal(b, &c); err != nil {
		return domain.OneTimeCode{}, fmt.Errorf("otpstore: decode %s: %w", r.key(email), err)
	}
	// Redis TTLs have millisecond granularity; trust the stored expiry.
	if c.Expired(r.now()) {
		return domain.OneTimeCode{}, ErrNotFound
	}
	return c, nil
}

func (r *Redis) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
