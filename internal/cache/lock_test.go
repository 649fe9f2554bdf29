package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalLockerIsExclusive(t *testing.T) {
	redisClient = nil
	locker := NewLocker()

	release, err := locker.Obtain(context.Background(), "sync:admitad", time.Minute)
	if err != nil {
		t.Fatalf("first obtain failed: %v", err)
	}
	if _, err := locker.Obtain(context.Background(), "sync:admitad", time.Minute); !errors.Is(err, ErrLockNotObtained) {
		t.Fatalf("expected ErrLockNotObtained, got %v", err)
	}
	release()
	release2, err := locker.Obtain(context.Background(), "sync:admitad", time.Minute)
	if err != nil {
		t.Fatalf("obtain after release failed: %v", err)
	}
	release2()
}

func TestDisabledCacheIsNoop(t *testing.T) {
	redisClient = nil
	hit, err := getJSON(context.Background(), "missing", &struct{}{})
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
	if err := Ping(context.Background()); err != nil {
		t.Fatalf("disabled ping should succeed: %v", err)
	}
}

func TestKeyUsesPrefix(t *testing.T) {
	previous := keyPrefix
	keyPrefix = "aff"
	t.Cleanup(func() { keyPrefix = previous })

	if got := Key("rate", "redirect"); got != "aff:rate:redirect" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := prefixed("  "); got != "aff" {
		t.Fatalf("empty key should collapse to prefix, got %s", got)
	}
}
