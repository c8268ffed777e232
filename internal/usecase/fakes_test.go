package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"HealthTwin/internal/domain/models"
)

type fakeMetrics struct {
	mu     sync.Mutex
	sent   map[string]int
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{sent: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordSample(string, bool)               {}
func (m *fakeMetrics) RecordLastValue(string, string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)           {}
func (m *fakeMetrics) RecordQueueDepth(string, int)            {}

func (m *fakeMetrics) RecordMessageSent(backend, stream string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[backend+"/"+stream]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

type fakePublisher struct {
	got    []*models.Reading
	err    error
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, r *models.Reading) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, r)
	return nil
}

func (p *fakePublisher) PublishBatch(_ context.Context, rs []*models.Reading) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, rs...)
	return nil
}

func (p *fakePublisher) Close() error { p.closed = true; return nil }

type fakeStorage struct {
	got    []*models.Reading
	err    error
	closed bool
}

func (s *fakeStorage) Init(context.Context) error { return nil }
func (s *fakeStorage) Store(_ context.Context, r *models.Reading) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, r)
	return nil
}
func (s *fakeStorage) StoreBatch(_ context.Context, rs []*models.Reading) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, rs...)
	return nil
}
func (s *fakeStorage) Query(context.Context, models.Stream, time.Time, time.Time, int) ([]*models.Reading, error) {
	return s.got, nil
}
func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { s.closed = true; return nil }

var errDown = errors.New("down")

type staticSource struct {
	name     models.Stream
	readings []*models.Reading
}

func (s staticSource) Name() models.Stream         { return s.name }
func (s staticSource) Readings() []*models.Reading { return s.readings }
