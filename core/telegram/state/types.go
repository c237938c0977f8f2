package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Session is the stored conversation of one user.
type Session[T any] struct {
	State State `json:"state"`
	Data  T     `json:"data"`
}

// Active reports whether the session is in a non-idle state.
func (s Session[T]) Active() bool {
	return s.State != "" && s.State != StateIdle
}

// Manager stores sessions keyed by Telegram user id. Get returns an idle
// zero session for unknown users.
type Manager[T any] interface {
	Get(ctx context.Context, userID int64) (Session[T], error)
	Set(ctx context.Context, userID int64, s Session[T]) error
	Clear(ctx context.Context, userID int64) error
	InProgress(ctx context.Context, userID int64) bool
}

const (
	// BackendMemory keeps sessions in process memory.
	BackendMemory = "memory"
	// BackendRedis keeps sessions in Redis so they survive restarts.
	BackendRedis = "redis"
)

// Config selects and tunes the session backend.
type Config struct {
	Backend  string        `yaml:"backend" envconfig:"STATE_BACKEND"`
	RedisURL string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	Prefix   string        `yaml:"prefix" envconfig:"STATE_PREFIX"`
	TTL      time.Duration `yaml:"ttl" envconfig:"STATE_TTL"`
}

// Normalize validates the config and fills defaults.
func (c *Config) Normalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Prefix == "" {
		c.Prefix = "hotelsbot:session:"
	}
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("state.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, redis", c.Backend)
	}
	return nil
}

// New builds the configured Manager. The returned close func releases the
// backend connection and is never nil.
func New[T any](ctx context.Context, cfg Config) (Manager[T], func() error, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, nil, err
	}
	if cfg.Backend == BackendMemory {
		return NewMemoryManager[T](), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisManager[T](client, cfg.Prefix, cfg.TTL), client.Close, nil
}
