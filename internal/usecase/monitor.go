package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"HealthTwin/internal/domain/models"
	drepo "HealthTwin/internal/domain/repository"
	"HealthTwin/pkg/logger"
)

// ErrUnknownStream is returned for stream names other than ecg and eeg.
var ErrUnknownStream = errors.New("unknown stream")

// Sink accepts every emitted reading. *middleware.RealtimePipeline and
// *SampleProcessor satisfy it.
type Sink interface {
	Process(ctx context.Context, r *models.Reading) error
}

// Monitor runs the ECG and EEG streams and fans each new sample out to
// metrics, the sink and live subscribers.
type Monitor struct {
	ecg     *SignalStream[models.ECGSample]
	eeg     *SignalStream[models.EEGSample]
	sink    Sink
	metrics drepo.Metrics
	log     *logger.Logger

	mu        sync.RWMutex
	listeners []func(models.LiveFrame)
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewMonitor wires both streams. sink may be nil.
func NewMonitor(ecg *SignalStream[models.ECGSample], eeg *SignalStream[models.EEGSample], sink Sink, metrics drepo.Metrics, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	m := &Monitor{ecg: ecg, eeg: eeg, sink: sink, metrics: metrics, log: log, ctx: context.Background()}
	ecg.OnSample(func(s models.ECGSample) { m.emit(models.StreamECG, s, s.Reading()) })
	eeg.OnSample(func(s models.EEGSample) { m.emit(models.StreamEEG, s, s.Reading()) })
	return m
}

// Subscribe registers fn for every live frame. fn runs on a tick goroutine
// and must not block.
func (m *Monitor) Subscribe(fn func(models.LiveFrame)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Start seeds and starts both streams.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	runCtx := m.ctx
	m.mu.Unlock()

	if err := m.ecg.Start(runCtx); err != nil {
		return fmt.Errorf("start ecg: %w", err)
	}
	if err := m.eeg.Start(runCtx); err != nil {
		m.ecg.Stop()
		return fmt.Errorf("start eeg: %w", err)
	}
	m.recordSeed()
	return nil
}

// Stop stops both streams and waits for their tick loops.
func (m *Monitor) Stop() {
	m.ecg.Stop()
	m.eeg.Stop()
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
}

func (m *Monitor) recordSeed() {
	if m.metrics == nil {
		return
	}
	for _, src := range m.Sources() {
		for _, r := range src.Readings() {
			m.metrics.RecordSample(string(r.Stream), r.IsAnomaly)
		}
	}
}

func (m *Monitor) emit(stream models.Stream, sample any, r *models.Reading) {
	if m.metrics != nil {
		m.metrics.RecordSample(string(stream), r.IsAnomaly)
		for ch, v := range r.Values {
			m.metrics.RecordLastValue(string(stream), ch, v)
		}
	}

	m.mu.RLock()
	ctx := m.ctx
	listeners := m.listeners
	m.mu.RUnlock()

	if m.sink != nil {
		if err := m.sink.Process(ctx, r); err != nil {
			m.log.Debug("sink rejected reading", logger.String("stream", string(stream)), logger.Error(err))
		}
	}
	frame := models.LiveFrame{Stream: stream, Sample: sample}
	for _, fn := range listeners {
		fn(frame)
	}
}

// Window returns the typed window of a stream.
func (m *Monitor) Window(stream models.Stream) (any, error) {
	switch stream {
	case models.StreamECG:
		return m.ecg.Window(), nil
	case models.StreamEEG:
		return m.eeg.Window(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStream, stream)
}

// Latest returns the n newest samples of a stream.
func (m *Monitor) Latest(stream models.Stream, n int) (any, error) {
	switch stream {
	case models.StreamECG:
		return m.ecg.Latest(n), nil
	case models.StreamEEG:
		return m.eeg.Latest(n), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStream, stream)
}

// Capacity returns the window capacity of a stream.
func (m *Monitor) Capacity(stream models.Stream) int {
	if stream == models.StreamEEG {
		return m.eeg.Capacity()
	}
	return m.ecg.Capacity()
}

// Sources exposes both streams to HealthInsights.
func (m *Monitor) Sources() []ReadingSource {
	return []ReadingSource{m.ecg, m.eeg}
}

// Status summarizes both streams.
func (m *Monitor) Status() []models.StreamStatus {
	return []models.StreamStatus{
		streamStatus(m.ecg.Name(), m.ecg.Running(), m.ecg.Capacity(), m.ecg.Readings()),
		streamStatus(m.eeg.Name(), m.eeg.Running(), m.eeg.Capacity(), m.eeg.Readings()),
	}
}

func streamStatus(name models.Stream, running bool, capacity int, rs []*models.Reading) models.StreamStatus {
	st := models.StreamStatus{Stream: name, Running: running, Length: len(rs), Capacity: capacity}
	for _, r := range rs {
		if r.IsAnomaly {
			st.Anomalies++
		}
	}
	if len(rs) > 0 {
		st.Newest = rs[len(rs)-1].Timestamp
	}
	return st
}
