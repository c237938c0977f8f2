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

	"github.com/Rzhek/TelegramHotelsBot/core/logger"
)

type redisManager[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisManager returns a Manager that stores JSON-encoded sessions under
// prefix+userID with the given TTL, refreshed on every Set.
func NewRedisManager[T any](client *redis.Client, prefix string, ttl time.Duration) Manager[T] {
	return &redisManager[T]{client: client, prefix: prefix, ttl: ttl}
}

func (m *redisManager[T]) key(userID int64) string {
	return m.prefix + strconv.FormatInt(userID, 10)
}

func (m *redisManager[T]) Get(ctx context.Context, userID int64) (Session[T], error) {
	raw, err := m.client.Get(ctx, m.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session[T]{State: StateIdle}, nil
	}
	if err != nil {
		return Session[T]{}, fmt.Errorf("session get: %w", err)
	}
	var s Session[T]
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session[T]{}, fmt.Errorf("session decode: %w", err)
	}
	return s, nil
}

func (m *redisManager[T]) Set(ctx context.Context, userID int64, s Session[T]) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := m.client.Set(ctx, m.key(userID), raw, m.ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (m *redisManager[T]) Clear(ctx context.Context, userID int64) error {
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

// InProgress treats backend failures as "no active session" and logs them.
func (m *redisManager[T]) InProgress(ctx context.Context, userID int64) bool {
	s, err := m.Get(ctx, userID)
	if err != nil {
		logger.Warn(ctx, logger.CompConversation, "session.lookup_failed",
			slog.String("err", err.Error()),
		)
		return false
	}
	return s.Active()
}
