package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingPacer(min, max time.Duration) (*Pacer, *[]time.Duration) {
	var slept []time.Duration
	p := NewPacer(min, max)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return p, &slept
}

func TestPacer_FixedDelay(t *testing.T) {
	p, slept := recordingPacer(time.Second, time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, *slept)
}

func TestPacer_JitterStaysInRange(t *testing.T) {
	p, slept := recordingPacer(time.Second, 3*time.Second)

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	for _, d := range *slept {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}
}

func TestPacer_MaxBelowMin(t *testing.T) {
	p, slept := recordingPacer(2*time.Second, time.Second)

	require.NoError(t, p.Wait(context.Background()))
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestPacer_ConcurrentWaitsShareRandomSource(t *testing.T) {
	p := NewPacer(time.Millisecond, 2*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Wait(context.Background()))
		}()
	}
	wg.Wait()
}

func TestPacer_ZeroDelay(t *testing.T) {
	p, slept := recordingPacer(0, 0)

	require.NoError(t, p.Wait(context.Background()))
	assert.Empty(t, *slept)
}

func TestPacer_Cancelled(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacer_RealSleep(t *testing.T) {
	p := NewPacer(20*time.Millisecond, 20*time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
