package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialGrowth(t *testing.T) {
	b := New(Config{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, b.Next())
	assert.Equal(t, 200*time.Millisecond, b.Next())
	assert.Equal(t, 400*time.Millisecond, b.Next())
	assert.Equal(t, 800*time.Millisecond, b.Next())

	// Capped from here on.
	assert.Equal(t, time.Second, b.Next())
	assert.Equal(t, time.Second, b.Next())
}

func TestExponentialReset(t *testing.T) {
	b := New(Config{Initial: 50 * time.Millisecond, Max: time.Second, Multiplier: 2})

	b.Next()
	b.Next()
	b.Reset()
	assert.Equal(t, 50*time.Millisecond, b.Next())
}

func TestExponentialDefaults(t *testing.T) {
	b := New(Config{})

	first := b.Next()
	assert.Equal(t, 500*time.Millisecond, first)

	for i := 0; i < 20; i++ {
		assert.LessOrEqual(t, b.Next(), 30*time.Second)
	}
}

func TestExponentialJitterBounds(t *testing.T) {
	b := New(Config{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2, Jitter: 0.5})

	// With reset each round the base stays at Initial, so every sample
	// must land within the jitter band around it.
	for i := 0; i < 50; i++ {
		d := b.Next()
		require.GreaterOrEqual(t, d, 50*time.Millisecond)
		require.LessOrEqual(t, d, 150*time.Millisecond)
		b.Reset()
	}
}

func TestNextAfterHonorsLongerHint(t *testing.T) {
	b := New(Config{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2})

	assert.Equal(t, 5*time.Second, b.NextAfter(5*time.Second))
	// A hint shorter than the schedule does not shrink it.
	assert.Equal(t, 200*time.Millisecond, b.NextAfter(time.Millisecond))
	assert.Equal(t, 400*time.Millisecond, b.NextAfter(0))
}
