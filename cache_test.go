package oidcx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTTLCache_Memoizes(t *testing.T) {
	cache := newTTLCache[string](time.Minute, 0)
	defer cache.close()

	var fetches int32
	fetch := func(context.Context) (string, error) {
		atomic.AddInt32(&fetches, 1)
		return "value", nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		value, err := cache.get(ctx, "key", fetch)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if value != "value" {
			t.Fatalf("unexpected value: %s", value)
		}
	}
	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestTTLCache_ExpiryRefetches(t *testing.T) {
	cache := newTTLCache[int](30*time.Millisecond, 0)
	defer cache.close()

	var fetches int32
	fetch := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&fetches, 1)), nil
	}

	ctx := context.Background()
	if _, err := cache.get(ctx, "key", fetch); err != nil {
		t.Fatalf("get: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	value, err := cache.get(ctx, "key", fetch)
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if value != 2 {
		t.Fatalf("expected refetched value 2, got %d", value)
	}
}

func TestTTLCache_FailuresAreNotCached(t *testing.T) {
	cache := newTTLCache[string](time.Minute, 0)
	defer cache.close()

	var fetches int32
	boom := errors.New("boom")
	fetch := func(context.Context) (string, error) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			return "", boom
		}
		return "recovered", nil
	}

	ctx := context.Background()
	if _, err := cache.get(ctx, "key", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	value, err := cache.get(ctx, "key", fetch)
	if err != nil {
		t.Fatalf("get after failure: %v", err)
	}
	if value != "recovered" {
		t.Fatalf("unexpected value: %s", value)
	}
	if got := atomic.LoadInt32(&fetches); got != 2 {
		t.Fatalf("expected two fetches, got %d", got)
	}
}

func TestTTLCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	cache := newTTLCache[string](time.Minute, 0)
	defer cache.close()

	var fetches int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		atomic.AddInt32(&fetches, 1)
		<-release
		return "value", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			value, err := cache.get(context.Background(), "key", fetch)
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			if value != "value" {
				t.Errorf("unexpected value: %s", value)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Fatalf("expected one fetch across %d callers, got %d", callers, got)
	}
}

func TestTTLCache_InvalidateForcesRefetch(t *testing.T) {
	cache := newTTLCache[int](time.Minute, 0)
	defer cache.close()

	var fetches int32
	fetch := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&fetches, 1)), nil
	}

	ctx := context.Background()
	if _, err := cache.get(ctx, "key", fetch); err != nil {
		t.Fatalf("get: %v", err)
	}
	cache.invalidate("key")
	value, err := cache.get(ctx, "key", fetch)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if value != 2 {
		t.Fatalf("expected refetched value 2, got %d", value)
	}
}

func TestTTLCache_SweeperEvictsExpiredEntries(t *testing.T) {
	cache := newTTLCache[string](20*time.Millisecond, 10*time.Millisecond)
	defer cache.close()

	fetch := func(context.Context) (string, error) { return "value", nil }
	if _, err := cache.get(context.Background(), "key", fetch); err != nil {
		t.Fatalf("get: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		cache.mu.RLock()
		remaining := len(cache.entries)
		cache.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expired entry was not swept")
}

func TestTTLCache_CloseIsIdempotent(t *testing.T) {
	cache := newTTLCache[string](time.Minute, time.Minute)
	cache.close()
	cache.close()
}
