package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type draft struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

func exerciseManager(t *testing.T, m Manager[draft]) {
	t.Helper()
	ctx := context.Background()

	s, err := m.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.State != StateIdle || m.InProgress(ctx, 42) {
		t.Fatalf("unknown user must be idle, got %+v", s)
	}

	want := Session[draft]{State: "awaiting_hotel_count", Data: draft{City: "Rome", Count: 3}}
	if err := m.Set(ctx, 42, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want || !m.InProgress(ctx, 42) {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
	if m.InProgress(ctx, 43) {
		t.Fatal("sessions must be per user")
	}

	if err := m.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if m.InProgress(ctx, 42) {
		t.Fatal("cleared session must be idle")
	}
}

func TestMemoryManager(t *testing.T) {
	exerciseManager(t, NewMemoryManager[draft]())
}

func TestRedisManager(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := NewRedisManager[draft](client, "test:", time.Minute)
	exerciseManager(t, m)

	if err := m.Set(context.Background(), 7, Session[draft]{State: "awaiting_city"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("test:7"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if m.InProgress(context.Background(), 7) {
		t.Fatal("expired session must be idle")
	}
}

func TestRedisManagerUnavailableIsNotInProgress(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	m := NewRedisManager[draft](client, "test:", time.Minute)
	mr.Close()

	if m.InProgress(context.Background(), 1) {
		t.Fatal("backend failure must not report an active session")
	}
	if _, err := m.Get(context.Background(), 1); err == nil {
		t.Fatal("expected error from Get")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()
	m, closeFn, err := New[draft](ctx, Config{})
	if err != nil {
		t.Fatalf("New memory: %v", err)
	}
	if _, ok := m.(*memoryManager[draft]); !ok {
		t.Fatalf("unexpected manager %T", m)
	}
	_ = closeFn()

	mr := miniredis.RunT(t)
	m, closeFn, err = New[draft](ctx, Config{Backend: "Redis", RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("New redis: %v", err)
	}
	defer closeFn()
	if _, ok := m.(*redisManager[draft]); !ok {
		t.Fatalf("unexpected manager %T", m)
	}

	if _, _, err := New[draft](ctx, Config{Backend: "redis"}); err == nil {
		t.Fatal("redis without url must fail")
	}
	if _, _, err := New[draft](ctx, Config{Backend: "etcd"}); err == nil {
		t.Fatal("unknown backend must fail")
	}
}
