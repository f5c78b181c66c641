package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedIntervalWaitSpacesRequests(t *testing.T) {
	limiter := NewFixedInterval(50 * time.Millisecond)

	start := time.Now()
	limiter.Wait()
	limiter.Wait()
	elapsed := time.Since(start)

	// Two waits from a fresh limiter must span at least two intervals.
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestFixedIntervalAllow(t *testing.T) {
	limiter := NewFixedInterval(time.Hour)
	assert.False(t, limiter.Allow())

	limiter.Reset()
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

func TestFixedIntervalZeroDelay(t *testing.T) {
	limiter := NewFixedInterval(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		limiter.Wait()
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(2, 20*time.Millisecond)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, tb.Allow())
}
