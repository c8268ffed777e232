package usecase

import (
	"context"
	"sync"
	"time"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/domain/service"
	"HealthTwin/pkg/logger"
)

// AlertFeed serves dashboard alerts. An optional AlertSource is asked first;
// on failure or an empty answer the current canned set is used.
type AlertFeed struct {
	mu       sync.Mutex
	index    int
	gen      int
	current  []models.HealthAlert
	source   service.AlertSource
	insights *HealthInsights
	now      func() time.Time
	log      *logger.Logger
}

// NewAlertFeed creates a feed. source and insights may be nil.
func NewAlertFeed(source service.AlertSource, insights *HealthInsights, log *logger.Logger) *AlertFeed {
	if log == nil {
		log = logger.Nop()
	}
	return &AlertFeed{source: source, insights: insights, now: time.Now, log: log}
}

// Index returns the current canned set index.
func (f *AlertFeed) Index() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// Current returns the alerts last produced, computing them on first use.
// The source is called without holding the feed lock.
func (f *AlertFeed) Current(ctx context.Context) []models.HealthAlert {
	f.mu.Lock()
	if f.current != nil {
		cur := f.current
		f.mu.Unlock()
		return cur
	}
	idx, gen := f.index, f.gen
	f.mu.Unlock()

	alerts := f.detect(ctx, idx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil && f.gen == gen {
		f.current = alerts
	}
	if f.current != nil {
		return f.current
	}
	return alerts
}

// Refresh advances the canned set index and recomputes the alerts. When
// refreshes overlap, the latest one wins.
func (f *AlertFeed) Refresh(ctx context.Context) []models.HealthAlert {
	f.mu.Lock()
	f.index = (f.index + 1) % CannedAlertSets()
	f.gen++
	idx, gen := f.index, f.gen
	f.mu.Unlock()

	alerts := f.detect(ctx, idx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen == gen {
		f.current = alerts
	}
	return alerts
}

func (f *AlertFeed) detect(ctx context.Context, idx int) []models.HealthAlert {
	if f.source != nil {
		var cands []models.AnomalyCandidate
		if f.insights != nil {
			cands = f.insights.Candidates()
		}
		alerts, err := f.source.Alerts(ctx, cands)
		if err == nil && len(alerts) > 0 {
			return alerts
		}
		if err != nil {
			f.log.Warn("alert source failed, using canned set", logger.Error(err), logger.Int("set", idx))
		}
	}
	return CannedAlerts(idx, f.now())
}
