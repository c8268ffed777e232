package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/services/signal"
)

func newECGStream(t *testing.T, capacity int) *SignalStream[models.ECGSample] {
	t.Helper()
	gen := signal.NewECGGenerator(signal.WithSeed(11), signal.WithInterval(time.Second))
	s, err := NewSignalStream[models.ECGSample](models.StreamECG, gen, capacity, WithTickInterval(5*time.Millisecond))
	require.NoError(t, err)
	return s
}

func TestSignalStreamRejectsBadCapacity(t *testing.T) {
	_, err := NewSignalStream[models.EEGSample](models.StreamEEG, signal.NewEEGGenerator(), 0)
	assert.Error(t, err)
}

func TestSignalStreamSeedsAndTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newECGStream(t, 100)
	ticks := make(chan models.ECGSample, 64)
	s.OnSample(func(v models.ECGSample) {
		select {
		case ticks <- v:
		default:
		}
	})

	require.NoError(t, s.Start(context.Background()))
	seed := s.Window()
	require.Len(t, seed, 100)

	var first models.ECGSample
	select {
	case first = <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick")
	}
	s.Stop()

	assert.Equal(t, seed[99].Timestamp+1000, first.Timestamp)
	win := s.Window()
	assert.Len(t, win, 100)
	for i := 1; i < len(win); i++ {
		assert.Equal(t, int64(1000), win[i].Timestamp-win[i-1].Timestamp)
	}
}

func TestSignalStreamNoEmissionAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newECGStream(t, 10)
	var n atomic.Int64
	s.OnSample(func(models.ECGSample) { n.Add(1) })

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return n.Load() >= 2 }, 2*time.Second, time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())

	after := n.Load()
	newest := s.Latest(1)[0]
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, n.Load())
	assert.Equal(t, newest, s.Latest(1)[0])

	s.Stop()
	assert.ErrorIs(t, s.Start(context.Background()), ErrStreamStopped)
}

func TestSignalStreamStopBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newECGStream(t, 10)
	s.Stop()
	assert.ErrorIs(t, s.Start(context.Background()), ErrStreamStopped)
	assert.Empty(t, s.Window())
}

func TestSignalStreamContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newECGStream(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Running())
	cancel()

	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())
}

func TestSignalStreamReadings(t *testing.T) {
	gen := signal.NewEEGGenerator(signal.WithSeed(2))
	s, err := NewSignalStream[models.EEGSample](models.StreamEEG, gen, 20, WithTickInterval(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	rs := s.Readings()
	require.Len(t, rs, 20)
	assert.Equal(t, models.StreamEEG, rs[0].Stream)
	assert.Len(t, rs[0].Values, 4)
	assert.Equal(t, 20, s.Capacity())
	assert.Len(t, s.Latest(5), 5)
}
