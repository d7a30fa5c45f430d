package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/expensebot/core/logger"
)

// RedisConfig contains configuration options for the Redis store.
type RedisConfig struct {
	// Client is the Redis client instance.
	Client *redis.Client

	// KeyPrefix is prepended to every session key.
	// Default: "expensebot:session:"
	KeyPrefix string

	// TTL expires idle sessions; zero keeps them until deleted.
	TTL time.Duration

	// Now stamps Session.UpdatedAt. Default: time.Now
	Now func() time.Time
}

type redisStore[D any] struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisStore creates a Store that keeps JSON-encoded sessions in Redis.
func NewRedisStore[D any](cfg RedisConfig) (Store[D], error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "expensebot:session:"
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &redisStore[D]{
		client:    cfg.Client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		now:       cfg.Now,
	}, nil
}

func (s *redisStore[D]) Create(ctx context.Context, key int64, st State, draft D) (Session[D], error) {
	sess := Session[D]{State: st, Draft: draft, UpdatedAt: s.now()}
	if err := s.put(ctx, key, sess); err != nil {
		return Session[D]{}, err
	}
	logger.Debug(ctx, "session", "session.create",
		slog.String("status", "ok"),
		slog.Int64("chat_id", key),
		slog.String("state", string(st)),
		slog.String("backend", "redis"),
	)
	return sess, nil
}

func (s *redisStore[D]) Get(ctx context.Context, key int64) (Session[D], bool, error) {
	var sess Session[D]
	raw, err := s.client.Get(ctx, s.buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sess, false, nil
	}
	if err != nil {
		return sess, false, fmt.Errorf("session get %d: %w", key, err)
	}
	if err := json.Unmarshal(raw, &sess); err != nil {
		return sess, false, fmt.Errorf("session decode %d: %w", key, err)
	}
	return sess, true, nil
}

func (s *redisStore[D]) Update(ctx context.Context, key int64, sess Session[D]) error {
	sess.UpdatedAt = s.now()
	return s.put(ctx, key, sess)
}

func (s *redisStore[D]) Delete(ctx context.Context, key int64) error {
	if err := s.client.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("session delete %d: %w", key, err)
	}
	return nil
}

func (s *redisStore[D]) put(ctx context.Context, key int64, sess Session[D]) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode %d: %w", key, err)
	}
	if err := s.client.Set(ctx, s.buildKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set %d: %w", key, err)
	}
	return nil
}

func (s *redisStore[D]) buildKey(key int64) string {
	return s.keyPrefix + strconv.FormatInt(key, 10)
}
