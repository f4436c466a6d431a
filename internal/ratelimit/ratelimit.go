package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer sleeps a full delay on every Wait, optionally jittered between
// min and max. Time spent since the previous Wait is not subtracted.
type Pacer struct {
	minDelay time.Duration
	maxDelay time.Duration
	mu       sync.Mutex
	rng      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Pacer{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepContext,
	}
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	delay := p.calculateDelay()
	p.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, delay)
}

func (p *Pacer) calculateDelay() time.Duration {
	if p.minDelay == p.maxDelay {
		return p.minDelay
	}

	delta := p.maxDelay - p.minDelay
	jitter := time.Duration(p.rng.Int63n(int64(delta)))
	return p.minDelay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
