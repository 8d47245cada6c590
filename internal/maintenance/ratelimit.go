package maintenance

import (
	"context"
	"sync"
	"time"
)

// TokenBucket limits work to rate units per second. A nil bucket or a
// non-positive rate never blocks.
type TokenBucket struct {
	rate     int64
	capacity int64
	tokens   int64
	last     time.Time
	mu       sync.Mutex
}

func NewTokenBucket(ratePerSecond int64) *TokenBucket {
	if ratePerSecond <= 0 {
		return &TokenBucket{}
	}
	now := time.Now()
	return &TokenBucket{
		rate:     ratePerSecond,
		capacity: ratePerSecond,
		tokens:   ratePerSecond,
		last:     now,
	}
}

// WaitN blocks until n tokens are available or ctx is done. Requests larger
// than the bucket are charged the full capacity.
func (t *TokenBucket) WaitN(ctx context.Context, n int64) error {
	if t == nil || t.rate <= 0 || n <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if n > t.capacity {
		n = t.capacity
	}

	for {
		t.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(t.last)
		if elapsed > 0 {
			added := int64(float64(t.rate) * elapsed.Seconds())
			if added > 0 {
				t.tokens += added
				if t.tokens > t.capacity {
					t.tokens = t.capacity
				}
				t.last = now
			}
		}

		if t.tokens >= n {
			t.tokens -= n
			t.mu.Unlock()
			return nil
		}
		deficit := n - t.tokens
		wait := time.Duration(float64(deficit) / float64(t.rate) * float64(time.Second))
		t.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
