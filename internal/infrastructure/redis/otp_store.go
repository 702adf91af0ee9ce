package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shefaa-icu/internal/domain"
)

// incrIfExists bumps the attempts field without resurrecting an expired hash.
var incrIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// OTPStore keeps OTP records as Redis hashes that expire at the record's ExpiresAt.
type OTPStore struct {
	client *redis.Client
	prefix string
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client, prefix: "otp:"}
}

func (s *OTPStore) redisKey(key, kind string) string {
	return s.prefix + key + ":" + kind
}

func (s *OTPStore) Put(ctx context.Context, v *domain.OTPRecord) error {
	k := s.redisKey(v.Key, v.Kind)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			"code", v.Code,
			"attempts", v.Attempts,
			"created_at", v.CreatedAt.UTC().Format(time.RFC3339Nano),
			"expires_at", v.ExpiresAt,
		)
		pipe.ExpireAt(ctx, k, time.Unix(v.ExpiresAt, 0))
		return nil
	})
	return err
}

func (s *OTPStore) Get(ctx context.Context, key, kind string) (*domain.OTPRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.redisKey(key, kind)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	rec := &domain.OTPRecord{Key: key, Kind: kind, Code: fields["code"]}
	rec.Attempts, _ = strconv.Atoi(fields["attempts"])
	rec.ExpiresAt, _ = strconv.ParseInt(fields["expires_at"], 10, 64)
	if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}

// Consume deletes the record; only the caller whose DEL removed it succeeds.
func (s *OTPStore) Consume(ctx context.Context, key, kind string) error {
	n, err := s.client.Del(ctx, s.redisKey(key, kind)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("verification already used: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *OTPStore) Delete(ctx context.Context, key, kind string) error {
	return s.client.Del(ctx, s.redisKey(key, kind)).Err()
}

func (s *OTPStore) IncrementAttempts(ctx context.Context, key, kind string) (int, error) {
	n, err := incrIfExists.Run(ctx, s.client, []string{s.redisKey(key, kind)}).Int()
	if errors.Is(err, redis.Nil) || (err == nil && n < 0) {
		return 0, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
