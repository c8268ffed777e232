package signal

import (
	"math/rand"
	"time"
)

// Random is the uniform [0, 1) source every generator draws from.
// *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// NewRandom returns a seeded source. A zero seed means time-based.
func NewRandom(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// pick maps one draw onto [0, n).
func pick(rnd Random, n int) int {
	i := int(rnd.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Option configures a generator.
type Option func(*options)

type options struct {
	rnd         Random
	interval    time.Duration
	probability float64
}

func defaultOptions() *options {
	return &options{
		interval:    time.Second,
		probability: AnomalyProbability,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.rnd == nil {
		o.rnd = NewRandom(0)
	}
	return o
}

// WithRandom injects the random source.
func WithRandom(r Random) Option {
	return func(o *options) {
		if r != nil {
			o.rnd = r
		}
	}
}

// WithSeed uses a math/rand source seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rnd = NewRandom(seed) }
}

// WithInterval sets the tick interval used for timestamps. Timestamps are
// in milliseconds, so anything below 1ms is ignored.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= time.Millisecond {
			o.interval = d
		}
	}
}

// WithAnomalyProbability overrides the per-sample anomaly probability.
// The draw still happens at p=0 so the random sequence is unchanged.
func WithAnomalyProbability(p float64) Option {
	return func(o *options) {
		if p >= 0 && p <= 1 {
			o.probability = p
		}
	}
}
