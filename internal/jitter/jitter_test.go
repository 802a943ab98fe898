package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRange(t *testing.T) {
	tests := []struct {
		strategy Strategy
		lo, hi   float64
	}{
		{None, 1, 1},
		{Balanced, 0.75, 1.25},
		{Aggressive, 0.5, 2.0},
		{Conservative, 0.9, 1.1},
	}

	for _, tt := range tests {
		lo, hi := Range(tt.strategy)
		assert.Equal(t, tt.lo, lo, "lo for %s", tt.strategy)
		assert.Equal(t, tt.hi, hi, "hi for %s", tt.strategy)
	}
}

func TestRangeUnknownFallsBackToBalanced(t *testing.T) {
	lo, hi := Range("exponential")
	assert.Equal(t, 0.75, lo)
	assert.Equal(t, 1.25, hi)

	lo, hi = Range("")
	assert.Equal(t, 0.75, lo)
	assert.Equal(t, 1.25, hi)
}

func TestDelayConservativeBounds(t *testing.T) {
	p := New(Conservative)
	base := 10 * time.Second

	for i := 0; i < 10000; i++ {
		d := p.Delay(base)
		assert.GreaterOrEqual(t, d, 9*time.Second)
		assert.LessOrEqual(t, d, 11*time.Second)
	}
}

func TestDelayNoneIsExact(t *testing.T) {
	p := New(None)
	base := 10 * time.Second

	for i := 0; i < 10000; i++ {
		assert.Equal(t, base, p.Delay(base))
	}
}

func TestDelayRoundsToWholeSeconds(t *testing.T) {
	// Draw of 0 pins the coefficient at the low end of the range.
	p := NewWithRand(Aggressive, func() float64 { return 0 })
	assert.Equal(t, 4*time.Second, p.Delay(8*time.Second)) // 8 * 0.5

	// Draw just under 1 lands near the high end; 8 * ~2.0 rounds to 16.
	p = NewWithRand(Aggressive, func() float64 { return 0.9999999 })
	assert.Equal(t, 16*time.Second, p.Delay(8*time.Second))
}

func TestDelayDeterministicWithInjectedRand(t *testing.T) {
	p := NewWithRand(Balanced, func() float64 { return 0.5 })

	// Coefficient is exactly 1.0 at the midpoint of the balanced range.
	assert.Equal(t, 21*time.Second, p.Delay(21*time.Second))
}
