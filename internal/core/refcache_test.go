package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"order-backoffice/internal/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func countingLoader(calls *int) core.Loader[string] {
	var mu sync.Mutex
	return func(ctx context.Context, key string) (string, error) {
		mu.Lock()
		*calls++
		mu.Unlock()
		return "value-of-" + key, nil
	}
}

func TestRefCache_ReadThroughAndTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	calls := 0
	cache := core.NewRefCache("test", time.Minute, countingLoader(&calls), core.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		v, err := cache.Get(ctx, "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != "value-of-a" {
			t.Fatalf("unexpected value %q", v)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 load, got %d", calls)
	}

	clock.Advance(2 * time.Minute)
	if _, err := cache.Get(ctx, "a"); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected reload after TTL, got %d loads", calls)
	}
}

func TestRefCache_InvalidateAndReload(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cache := core.NewRefCache("test", time.Hour, countingLoader(&calls))

	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "b")
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}

	cache.Invalidate(ctx, "a")
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry after invalidate, got %d", cache.Len())
	}
	_, _ = cache.Get(ctx, "a")
	if calls != 3 {
		t.Errorf("expected invalidated key to reload, got %d loads", calls)
	}

	if err := cache.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after reload, got %d", cache.Len())
	}
}

func TestRefCache_LoaderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	fail := true
	cache := core.NewRefCache("test", time.Hour, func(ctx context.Context, key string) (int, error) {
		if fail {
			return 0, errors.New("db down")
		}
		return 7, nil
	})

	if _, err := cache.Get(ctx, "k"); err == nil {
		t.Fatal("expected loader error")
	}
	fail = false
	v, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
}

func TestRefCache_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cache := core.NewRefCache("test", time.Hour, countingLoader(&calls))

	var wg sync.WaitGroup
	errCh := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(ctx, "shared"); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent Get: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Len())
	}
}
