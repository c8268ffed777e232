package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"HealthTwin/internal/domain/models"
	"HealthTwin/pkg/logger"
	"HealthTwin/pkg/window"
)

// ErrStreamStopped is returned when starting a stream that was stopped.
var ErrStreamStopped = errors.New("signal stream stopped")

// Generator produces a seed batch and then one sample per tick.
type Generator[T any] interface {
	Batch(now time.Time, n int) []T
	Next(prev T, now time.Time) T
}

// SignalStream owns one generator, its sliding window and the tick loop.
// The window is only mutated on the tick goroutine; subscribers run there
// too and must not block.
type SignalStream[T models.Readable] struct {
	name     models.Stream
	gen      Generator[T]
	buf      *window.Buffer[T]
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger

	mu      sync.Mutex
	subs    []func(T)
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	stopped bool
}

// StreamOption configures a SignalStream.
type StreamOption func(*streamOptions)

type streamOptions struct {
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// WithTickInterval sets the tick period. Values below 1ms are ignored.
func WithTickInterval(d time.Duration) StreamOption {
	return func(o *streamOptions) {
		if d >= time.Millisecond {
			o.interval = d
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) StreamOption {
	return func(o *streamOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithStreamLogger sets the logger.
func WithStreamLogger(l *logger.Logger) StreamOption {
	return func(o *streamOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// NewSignalStream creates a stream with a window of the given capacity.
func NewSignalStream[T models.Readable](name models.Stream, gen Generator[T], capacity int, opts ...StreamOption) (*SignalStream[T], error) {
	o := &streamOptions{interval: time.Second, now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	buf, err := window.New[T](capacity)
	if err != nil {
		return nil, err
	}
	return &SignalStream[T]{
		name:     name,
		gen:      gen,
		buf:      buf,
		interval: o.interval,
		now:      o.now,
		log:      o.log,
		done:     make(chan struct{}),
	}, nil
}

// Name returns the stream name.
func (s *SignalStream[T]) Name() models.Stream { return s.name }

// OnSample registers fn to be called with every new sample.
func (s *SignalStream[T]) OnSample(fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Start seeds the window and launches the tick loop. Calling Start on a
// running stream is a no-op.
func (s *SignalStream[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStreamStopped
	}
	if s.started {
		return nil
	}

	seed := s.gen.Batch(s.now(), s.buf.Cap())
	if err := s.buf.Seed(seed); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	go s.run(ctx)

	s.log.Info("signal stream started",
		logger.String("stream", string(s.name)),
		logger.Int("window", s.buf.Cap()),
		logger.Duration("interval_ms", s.interval),
	)
	return nil
}

func (s *SignalStream[T]) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stop may have raced the tick.
			if ctx.Err() != nil {
				return
			}
			s.tick()
		}
	}
}

func (s *SignalStream[T]) tick() {
	prev, ok := s.buf.Newest()
	if !ok {
		return
	}
	next := s.gen.Next(prev, s.now())
	s.buf.Push(next)

	s.mu.Lock()
	subs := make([]func(T), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

// Stop cancels the tick loop and waits for it to exit. No sample is emitted
// after Stop returns. Safe to call more than once and before Start.
func (s *SignalStream[T]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-s.done
	s.log.Info("signal stream stopped", logger.String("stream", string(s.name)))
}

// Running reports whether the tick loop is active. It turns false once the
// loop exits, whether through Stop or the start context ending.
func (s *SignalStream[T]) Running() bool {
	s.mu.Lock()
	started, stopped := s.started, s.stopped
	s.mu.Unlock()
	if !started || stopped {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Window returns a copy of the current window, oldest first.
func (s *SignalStream[T]) Window() []T { return s.buf.Window() }

// Latest returns up to n newest samples, oldest first.
func (s *SignalStream[T]) Latest(n int) []T { return s.buf.Last(n) }

// Capacity returns the window capacity.
func (s *SignalStream[T]) Capacity() int { return s.buf.Cap() }

// Readings returns the window in flat form.
func (s *SignalStream[T]) Readings() []*models.Reading {
	win := s.buf.Window()
	out := make([]*models.Reading, len(win))
	for i, v := range win {
		out[i] = v.Reading()
	}
	return out
}
