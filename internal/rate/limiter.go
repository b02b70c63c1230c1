package rate

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// Well-known policy names shared with the HTTP layer.
const (
	PolicyGlobal   = "global"
	PolicyLogin    = "login"
	PolicyRegister = "register"
)

const shardCount = 32

// Policy defines a public type used by gatekey APIs.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	// Burst is the bucket capacity; new buckets start full.
	Burst int

	// Refill is the quantum of tokens added per elapsed Interval.
	Refill int

	// Interval is the replenishment period.
	Interval time.Duration
}

// Config defines a public type used by gatekey APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Policies maps policy name to its bucket parameters.
	Policies map[string]Policy

	// IdleEviction is how long a bucket may go untouched before the sweeper
	// reclaims it. Zero disables sweeping.
	IdleEviction time.Duration
}

type bucket struct {
	mu      sync.Mutex
	tokens  int
	last    time.Time // last replenishment boundary
	touched time.Time // last admission attempt, drives eviction
}

type shard struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// Limiter defines a public type used by gatekey APIs.
//
// Limiter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Limiter struct {
	policies map[string]Policy
	shards   [shardCount]shard
	idle     time.Duration

	// now is swapped in tests to walk buckets through time.
	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) (*Limiter, error) {
	if len(cfg.Policies) == 0 {
		return nil, errors.New("rate: at least one policy required")
	}
	for name, p := range cfg.Policies {
		if p.Burst <= 0 {
			return nil, fmt.Errorf("rate: policy %q: burst must be positive", name)
		}
		if p.Refill <= 0 {
			return nil, fmt.Errorf("rate: policy %q: refill must be positive", name)
		}
		if p.Interval <= 0 {
			return nil, fmt.Errorf("rate: policy %q: interval must be positive", name)
		}
	}

	l := &Limiter{
		policies: make(map[string]Policy, len(cfg.Policies)),
		idle:     cfg.IdleEviction,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for name, p := range cfg.Policies {
		l.policies[name] = p
	}
	for i := range l.shards {
		l.shards[i].buckets = make(map[string]*bucket)
	}

	if l.idle > 0 {
		go l.sweep()
	}

	return l, nil
}

// Allow charges one token against the bucket for (policy, key). It returns
// nil when admitted and ErrRateLimited when the bucket is empty; a rejected
// attempt consumes nothing. Unknown policy names are a configuration fault.
func (l *Limiter) Allow(policy, key string) error {
	p, ok := l.policies[policy]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	now := l.now()
	b := l.bucket(policy, key, p, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	l.replenish(b, p, now)
	b.touched = now

	if b.tokens <= 0 {
		return ErrRateLimited
	}
	b.tokens--

	return nil
}

// replenish applies every full interval elapsed since the bucket's last
// boundary. Partial intervals carry over; tokens only ever arrive in whole
// Refill quanta.
func (l *Limiter) replenish(b *bucket, p Policy, now time.Time) {
	elapsed := now.Sub(b.last)
	if elapsed < p.Interval {
		return
	}

	steps := int64(elapsed / p.Interval)

	// Enough steps to overflow the bucket regardless of its level; skip the
	// arithmetic and snap to full.
	if steps >= int64(p.Burst/p.Refill)+1 {
		b.tokens = p.Burst
		b.last = now
		return
	}

	b.tokens += int(steps) * p.Refill
	if b.tokens > p.Burst {
		b.tokens = p.Burst
	}
	b.last = b.last.Add(time.Duration(steps) * p.Interval)
}

func (l *Limiter) bucket(policy, key string, p Policy, now time.Time) *bucket {
	h := fnv.New32a()
	h.Write([]byte(policy))
	h.Write([]byte{0})
	h.Write([]byte(key))
	s := &l.shards[h.Sum32()%shardCount]

	id := policy + "\x00" + key

	s.mu.RLock()
	b, ok := s.buckets[id]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[id]; ok {
		return b
	}

	b = &bucket{
		tokens:  p.Burst,
		last:    now,
		touched: now,
	}
	s.buckets[id] = b

	return b
}

// Close stops the idle sweeper. Idempotent.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

func (l *Limiter) sweep() {
	period := l.idle / 2
	if period < time.Minute {
		period = time.Minute
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle(l.now())
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) evictIdle(now time.Time) {
	for i := range l.shards {
		s := &l.shards[i]

		s.mu.Lock()
		for id, b := range s.buckets {
			b.mu.Lock()
			idle := now.Sub(b.touched) > l.idle
			b.mu.Unlock()
			if idle {
				delete(s.buckets, id)
			}
		}
		s.mu.Unlock()
	}
}

// size reports the number of live buckets. Test hook.
func (l *Limiter) size() int {
	n := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.RLock()
		n += len(s.buckets)
		s.mu.RUnlock()
	}
	return n
}
