package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestRedisWindowLimiterFallsBackOnConnError(t *testing.T) {
	local := New(100, 10, time.Minute)
	defer local.Close()

	l := NewRedisWindowLimiter(RedisWindowLimiterConfig{
		Redis: RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 20 * time.Millisecond, KeyPrefix: "rl"},
		Local: local,
	})

	allowed, err := l.Allow(context.Background(), "ip:1.2.3.4", 5)
	if err != nil {
		t.Fatalf("expected silent fallback, got error: %v", err)
	}
	if !allowed {
		t.Fatal("expected local fallback to admit first request")
	}
}

func TestRedisWindowLimiterPropagatesErrorWhenFallbackDisabled(t *testing.T) {
	l := NewRedisWindowLimiter(RedisWindowLimiterConfig{
		Redis:                RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 20 * time.Millisecond, KeyPrefix: "rl"},
		DisableRedisFallback: true,
	})

	_, err := l.Allow(context.Background(), "ip:1.2.3.4", 5)
	if err == nil {
		t.Fatal("expected error when fallback disabled and redis unreachable")
	}
}
