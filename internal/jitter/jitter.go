// Package jitter provides randomized scaling of retry backoff delays.
// Jitter spreads retries from many clients over time so that a struggling
// upstream is not hit by synchronized retry storms.
package jitter

import (
	"math"
	"math/rand"
	"time"
)

// Strategy names a multiplicative jitter range applied to a base delay.
type Strategy string

const (
	// None disables jitter (delays are used as-is).
	None Strategy = "none"
	// Balanced scales delays by 0.75-1.25x (default).
	Balanced Strategy = "balanced"
	// Aggressive scales delays by 0.5-2.0x.
	Aggressive Strategy = "aggressive"
	// Conservative scales delays by 0.9-1.1x.
	Conservative Strategy = "conservative"
)

// Range returns the multiplicative [lo, hi] coefficient range for a strategy.
// Unknown or empty strategies fall back to Balanced.
func Range(s Strategy) (lo, hi float64) {
	switch s {
	case None:
		return 1, 1
	case Aggressive:
		return 0.5, 2.0
	case Conservative:
		return 0.9, 1.1
	case Balanced:
		return 0.75, 1.25
	default:
		return 0.75, 1.25
	}
}

// Policy computes jittered delays for a fixed strategy.
type Policy struct {
	strategy Strategy
	randFn   func() float64 // uniform draw in [0,1)
}

// New creates a jitter policy using the default random source.
func New(strategy Strategy) *Policy {
	return &Policy{strategy: strategy, randFn: rand.Float64}
}

// NewWithRand creates a jitter policy with an injected random source.
// Used in tests to make delays deterministic.
func NewWithRand(strategy Strategy, randFn func() float64) *Policy {
	return &Policy{strategy: strategy, randFn: randFn}
}

// Strategy returns the policy's strategy name.
func (p *Policy) Strategy() Strategy {
	return p.strategy
}

// Delay scales a base delay by a uniform random coefficient from the
// strategy's range, rounded to whole seconds.
func (p *Policy) Delay(base time.Duration) time.Duration {
	lo, hi := Range(p.strategy)
	coeff := lo + p.randFn()*(hi-lo)
	secs := math.Round(base.Seconds() * coeff)
	return time.Duration(secs) * time.Second
}
