package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"HealthTwin/internal/domain/models"
	domrepo "HealthTwin/internal/domain/repository"
)

var (
	ErrNilReading       = errors.New("reading nil")
	ErrUnknownStream    = errors.New("unknown stream")
	ErrInvalidTimestamp = errors.New("timestamp invalid")
	ErrNonFiniteValue   = errors.New("non-finite value")
	ErrBufferFull       = errors.New("pipeline buffer full")
)

// Proc is the processor the pipeline forwards to.
type Proc interface {
	Process(ctx context.Context, r *models.Reading) error
	ProcessBatch(ctx context.Context, rs []*models.Reading) error
}

// RealtimePipeline sits between the signal streams and the sample sink.
// It validates and throttles per stream. With a batch size above one,
// readings are queued and flushed by the background loop in batches of up
// to that size or every linger interval. Otherwise they are forwarded
// inline and only failures are queued for retry.
type RealtimePipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	maxRPS    int
	bufSize   int
	batchSize int
	linger    time.Duration
	bufCh     chan *models.Reading
	pending   atomic.Int64
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	mu        sync.Mutex
	lastSeen  map[models.Stream]time.Time
	now       func() time.Time
	backoff   time.Duration
	maxBackof time.Duration
	drainWait time.Duration
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max readings per second per stream. Zero disables
// throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the queue size.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatch enables batched delivery. A size of one or less keeps inline
// forwarding.
func WithBatch(size int, linger time.Duration) PipelineOption {
	return func(p *RealtimePipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if linger > 0 {
			p.linger = linger
		}
	}
}

// WithBackoff sets the initial and max retry backoff.
func WithBackoff(initial, max time.Duration) PipelineOption {
	return func(p *RealtimePipeline) {
		if initial > 0 {
			p.backoff = initial
		}
		if max >= initial {
			p.maxBackof = max
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:      proc,
		metrics:   metrics,
		maxRPS:    20,
		bufSize:   1000,
		batchSize: 1,
		linger:    time.Second,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		lastSeen:  make(map[models.Stream]time.Time),
		now:       time.Now,
		backoff:   50 * time.Millisecond,
		maxBackof: 2 * time.Second,
		drainWait: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize < p.batchSize {
		p.bufSize = p.batchSize
	}
	p.bufCh = make(chan *models.Reading, p.bufSize)
	return p
}

func (p *RealtimePipeline) batching() bool { return p.batchSize > 1 }

// maxBatch bounds one delivery. Retries without batching still drain the
// queue in chunks.
func (p *RealtimePipeline) maxBatch() int {
	if p.batching() {
		return p.batchSize
	}
	return 100
}

// Start launches the background flush loop.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flush(ctx)
}

func (p *RealtimePipeline) flush(ctx context.Context) {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.linger)
	defer ticker.Stop()

	var batch []*models.Reading
	for {
		in := p.bufCh
		if len(batch) >= p.maxBatch() {
			in = nil
		}
		select {
		case <-p.stopCh:
			p.drain(batch)
			return
		case <-ctx.Done():
			p.drain(batch)
			return
		case r := <-in:
			batch = p.fill(append(batch, r))
			p.pending.Store(int64(len(batch)))
			if p.batching() && len(batch) < p.batchSize {
				continue
			}
		case <-ticker.C:
		}
		if len(batch) == 0 {
			continue
		}
		if !p.deliverWithRetry(ctx, batch) {
			return
		}
		batch = nil
		p.pending.Store(0)
		p.metrics.RecordQueueDepth("pipeline", len(p.bufCh))
	}
}

// deliverWithRetry keeps retrying batch with exponential backoff. It
// returns false once the pipeline stopped, after the final drain.
func (p *RealtimePipeline) deliverWithRetry(ctx context.Context, batch []*models.Reading) bool {
	backoff := p.backoff
	for {
		err := p.deliver(ctx, batch)
		if err == nil {
			return true
		}
		p.metrics.RecordError("pipeline_flush")
		select {
		case <-time.After(backoff):
		case <-p.stopCh:
			p.drain(batch)
			return false
		case <-ctx.Done():
			p.drain(batch)
			return false
		}
		backoff *= 2
		if backoff > p.maxBackof {
			backoff = p.maxBackof
		}
	}
}

// fill takes queued readings without blocking, up to maxBatch.
func (p *RealtimePipeline) fill(batch []*models.Reading) []*models.Reading {
	for len(batch) < p.maxBatch() {
		select {
		case r := <-p.bufCh:
			batch = append(batch, r)
		default:
			return batch
		}
	}
	return batch
}

func (p *RealtimePipeline) deliver(ctx context.Context, batch []*models.Reading) error {
	if len(batch) == 1 {
		return p.proc.Process(ctx, batch[0])
	}
	return p.proc.ProcessBatch(ctx, batch)
}

// drain makes one last delivery attempt with whatever is queued. Readings
// that still fail are counted as dropped.
func (p *RealtimePipeline) drain(batch []*models.Reading) {
	for {
		batch = p.fill(batch)
		if len(batch) == 0 {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.drainWait)
		err := p.deliver(ctx, batch)
		cancel()
		if err != nil {
			p.metrics.RecordError("pipeline_drain_drop")
			break
		}
		batch = nil
	}
	p.pending.Store(0)
	p.metrics.RecordQueueDepth("pipeline", len(p.bufCh))
}

// Stop stops the flush loop and waits for its final drain. Safe to call
// more than once and before Start.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	close(p.stopCh)
	if started {
		<-p.doneCh
	}
}

// Buffered returns how many readings are queued or held by the flush loop.
func (p *RealtimePipeline) Buffered() int { return len(p.bufCh) + int(p.pending.Load()) }

// Process validates and throttles a reading, then forwards it inline or
// queues it for the next batch.
func (p *RealtimePipeline) Process(ctx context.Context, r *models.Reading) error {
	start := p.now()
	if err := ValidateReading(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(r.Stream, start) {
		p.metrics.RecordError("pipeline_throttle_" + string(r.Stream))
		return nil
	}

	if p.batching() {
		return p.enqueue(r)
	}

	if err := p.proc.Process(ctx, r); err != nil {
		p.metrics.RecordError("pipeline_process")
		if qerr := p.enqueue(r); qerr != nil {
			return fmt.Errorf("pipeline downstream: %w", errors.Join(err, qerr))
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func (p *RealtimePipeline) enqueue(r *models.Reading) error {
	select {
	case p.bufCh <- r:
		p.metrics.RecordQueueDepth("pipeline", len(p.bufCh))
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return ErrBufferFull
	}
}

// ValidateReading rejects nil readings, unknown streams, non-positive
// timestamps and NaN/Inf values.
func ValidateReading(r *models.Reading) error {
	if r == nil {
		return ErrNilReading
	}
	if !domrepo.IsValidStream(r.Stream) {
		return fmt.Errorf("%w: %q", ErrUnknownStream, r.Stream)
	}
	if r.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	for k, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrNonFiniteValue, k)
		}
	}
	return nil
}

func (p *RealtimePipeline) allow(stream models.Stream, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[stream]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[stream] = now
	return true
}
