package rate

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, policies map[string]Policy) *Limiter {
	t.Helper()

	l, err := New(Config{Policies: policies})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

func TestAllowWithinBurst(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyLogin: {Burst: 5, Refill: 5, Interval: time.Minute},
	})

	for i := 0; i < 5; i++ {
		if err := l.Allow(PolicyLogin, "1.2.3.4"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}
}

func TestSixthAttemptRejectedThenAdmittedAfterInterval(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyLogin: {Burst: 5, Refill: 5, Interval: time.Minute},
	})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		if err := l.Allow(PolicyLogin, "1.2.3.4"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}

	if err := l.Allow(PolicyLogin, "1.2.3.4"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("sixth attempt: err = %v, want ErrRateLimited", err)
	}

	// Inside the window nothing replenishes.
	l.now = func() time.Time { return base.Add(59 * time.Second) }
	if err := l.Allow(PolicyLogin, "1.2.3.4"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("attempt at T+59s: err = %v, want ErrRateLimited", err)
	}

	// One full interval later the refill quantum lands.
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if err := l.Allow(PolicyLogin, "1.2.3.4"); err != nil {
		t.Fatalf("attempt after interval rejected: %v", err)
	}
}

func TestRejectedAttemptConsumesNothing(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyRegister: {Burst: 1, Refill: 1, Interval: time.Minute},
	})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	if err := l.Allow(PolicyRegister, "k"); err != nil {
		t.Fatalf("first attempt rejected: %v", err)
	}

	// Hammer the empty bucket; rejections must not push replenishment out.
	for i := 0; i < 10; i++ {
		if err := l.Allow(PolicyRegister, "k"); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("drained bucket admitted attempt %d", i)
		}
	}

	l.now = func() time.Time { return base.Add(time.Minute) }
	if err := l.Allow(PolicyRegister, "k"); err != nil {
		t.Fatalf("attempt after interval rejected: %v", err)
	}
}

func TestRefillCapsAtBurst(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyGlobal: {Burst: 3, Refill: 2, Interval: time.Second},
	})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if err := l.Allow(PolicyGlobal, "k"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}

	// A long idle stretch fills the bucket back to capacity, never beyond.
	l.now = func() time.Time { return base.Add(time.Hour) }
	for i := 0; i < 3; i++ {
		if err := l.Allow(PolicyGlobal, "k"); err != nil {
			t.Fatalf("attempt %d after idle rejected: %v", i+1, err)
		}
	}
	if err := l.Allow(PolicyGlobal, "k"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("bucket overfilled past burst: err = %v", err)
	}
}

func TestKeysAreIsolated(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyLogin: {Burst: 1, Refill: 1, Interval: time.Minute},
	})

	if err := l.Allow(PolicyLogin, "alice"); err != nil {
		t.Fatalf("alice rejected: %v", err)
	}
	if err := l.Allow(PolicyLogin, "alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("alice second attempt: err = %v, want ErrRateLimited", err)
	}

	// Exhausting alice's bucket must not touch bob's.
	if err := l.Allow(PolicyLogin, "bob"); err != nil {
		t.Fatalf("bob rejected: %v", err)
	}
}

func TestPoliciesAreIsolated(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyLogin:    {Burst: 1, Refill: 1, Interval: time.Minute},
		PolicyRegister: {Burst: 1, Refill: 1, Interval: time.Minute},
	})

	if err := l.Allow(PolicyLogin, "k"); err != nil {
		t.Fatalf("login rejected: %v", err)
	}
	if err := l.Allow(PolicyRegister, "k"); err != nil {
		t.Fatalf("register rejected after login drained its own bucket: %v", err)
	}
}

func TestUnknownPolicy(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyGlobal: {Burst: 1, Refill: 1, Interval: time.Second},
	})

	if err := l.Allow("nope", "k"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("err = %v, want ErrUnknownPolicy", err)
	}
}

func TestIdleEviction(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyGlobal: {Burst: 1, Refill: 1, Interval: time.Second},
	})
	l.idle = time.Minute

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	if err := l.Allow(PolicyGlobal, "a"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if err := l.Allow(PolicyGlobal, "b"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if got := l.size(); got != 2 {
		t.Fatalf("size = %d, want 2", got)
	}

	// Touch a so only b goes idle.
	l.now = func() time.Time { return base.Add(50 * time.Second) }
	if err := l.Allow(PolicyGlobal, "a"); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	l.evictIdle(base.Add(70 * time.Second))
	if got := l.size(); got != 1 {
		t.Fatalf("size after eviction = %d, want 1", got)
	}
}

func TestConcurrentAllowAccountsExactly(t *testing.T) {
	l := newTestLimiter(t, map[string]Policy{
		PolicyGlobal: {Burst: 50, Refill: 1, Interval: time.Hour},
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Allow(PolicyGlobal, "shared"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Fatalf("admitted %d of 100 concurrent attempts, want exactly 50", admitted)
	}
}
