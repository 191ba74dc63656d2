package ratelimit

import (
	"context"
	"io"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	if !l.Allow(context.Background(), "anyone") {
		t.Fatalf("nil limiter should allow")
	}
}

func TestNewDefaults(t *testing.T) {
	l := New(nil, Options{Logger: quietLogger()})
	if l.capacity != 10 || l.rate != 1 || l.timeout != 200*time.Millisecond {
		t.Fatalf("defaults = %d/%v/%v", l.capacity, l.rate, l.timeout)
	}
	if got := l.Key("auth:10.0.0.1"); got != "ratelimit:auth:10.0.0.1" {
		t.Fatalf("Key = %q", got)
	}
	if l.State() != gobreaker.StateClosed {
		t.Fatalf("breaker should start closed")
	}
}

func TestAllowFailsOpenWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := New(client, Options{Capacity: 1, RatePerSec: 1, Timeout: 100 * time.Millisecond, Logger: quietLogger()})
	for i := 0; i < 6; i++ {
		if !l.Allow(context.Background(), "client") {
			t.Fatalf("attempt %d: unreachable redis should fail open", i)
		}
	}
	if l.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %s, want open after repeated failures", l.State())
	}
}
