package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthTwin/internal/domain/models"
)

type fakeAlertSource struct {
	alerts []models.HealthAlert
	err    error
	seen   int
}

func (s *fakeAlertSource) Alerts(_ context.Context, c []models.AnomalyCandidate) ([]models.HealthAlert, error) {
	s.seen = len(c)
	return s.alerts, s.err
}

func TestCannedAlerts(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, 3, CannedAlertSets())

	set := CannedAlerts(0, now)
	require.Len(t, set, 3)
	assert.Equal(t, "Combined", set[0].Type)
	assert.Equal(t, "high", set[0].Severity)
	assert.Len(t, set[0].Risks, 2)
	assert.Equal(t, now.Format(time.RFC3339), set[0].Timestamp)
	assert.Equal(t, now.Add(-15*time.Minute).Format(time.RFC3339), set[1].Timestamp)

	// ids are stable and unique across sets
	assert.Equal(t, set[0].ID, CannedAlerts(3, now)[0].ID)
	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		for _, a := range CannedAlerts(i, now) {
			ids[a.ID] = true
		}
	}
	assert.Len(t, ids, 9)

	assert.Equal(t, "Critical: Pre-seizure Pattern Detected", CannedAlerts(1, now)[0].Description)
	assert.Equal(t, "Acute Myocardial Ischemia Pattern", CannedAlerts(-1, now)[0].Description)
}

func TestAlertFeedRotates(t *testing.T) {
	f := NewAlertFeed(nil, nil, nil)
	ctx := context.Background()

	assert.Equal(t, "Combined", f.Current(ctx)[0].Type)
	assert.Equal(t, 0, f.Index())

	assert.Equal(t, "EEG", f.Refresh(ctx)[0].Type)
	assert.Equal(t, "ECG", f.Refresh(ctx)[0].Type)
	assert.Equal(t, "Combined", f.Refresh(ctx)[0].Type)
	assert.Equal(t, 0, f.Index())
}

func TestAlertFeedSourceFirst(t *testing.T) {
	src := &fakeAlertSource{alerts: []models.HealthAlert{{ID: "x", Type: "ECG", Severity: "low"}}}
	insights := NewHealthInsights(nil, nil, 0, nil, nil, sources()...)
	f := NewAlertFeed(src, insights, nil)

	got := f.Current(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)
	assert.Equal(t, 2, src.seen)

	src.err = errDown
	got = f.Refresh(context.Background())
	assert.Len(t, got, 3)
	assert.Equal(t, "Critical: Pre-seizure Pattern Detected", got[0].Description)
}

// blockingSource holds every call until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSource) Alerts(ctx context.Context, _ []models.AnomalyCandidate) ([]models.HealthAlert, error) {
	s.entered <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []models.HealthAlert{{ID: "slow", Type: "EEG", Severity: "high"}}, nil
}

func TestAlertFeedSlowSourceDoesNotBlockReaders(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}, 2), release: make(chan struct{})}
	f := NewAlertFeed(src, nil, nil)

	first := make(chan []models.HealthAlert, 1)
	go func() { first <- f.Current(context.Background()) }()
	<-src.entered

	// a refresh in flight must not hold up Index
	done := make(chan int, 1)
	go func() { done <- f.Index() }()
	select {
	case idx := <-done:
		assert.Equal(t, 0, idx)
	case <-time.After(time.Second):
		t.Fatal("Index blocked behind the alert source")
	}

	// a second caller with its own deadline is not stuck behind the first
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got := make(chan []models.HealthAlert, 1)
	go func() { got <- f.Current(ctx) }()
	<-src.entered
	var fallback []models.HealthAlert
	select {
	case fallback = <-got:
		assert.Equal(t, "Combined", fallback[0].Type)
	case <-time.After(time.Second):
		t.Fatal("Current blocked behind the alert source")
	}

	// the first answer stored is kept for every later reader
	close(src.release)
	assert.Equal(t, fallback, <-first)
	assert.Equal(t, fallback, f.Current(context.Background()))
}

func TestAlertFeedStaleRefreshDropped(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}, 2), release: make(chan struct{})}
	f := NewAlertFeed(src, nil, nil)

	slow := make(chan []models.HealthAlert, 1)
	go func() { slow <- f.Refresh(context.Background()) }()
	<-src.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fresh := make(chan []models.HealthAlert, 1)
	go func() { fresh <- f.Refresh(ctx) }()
	<-src.entered
	// cancelled source falls back to canned set #2
	assert.Equal(t, "ECG", (<-fresh)[0].Type)

	close(src.release)
	assert.Equal(t, "slow", (<-slow)[0].ID)
	// the older refresh finished last but does not overwrite the newer one
	assert.Equal(t, "ECG", f.Current(context.Background())[0].Type)
	assert.Equal(t, 2, f.Index())
}
