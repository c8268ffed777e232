package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/service/cache"
)

type fakeAnalyzer struct {
	calls int
	res   models.HealthAnalysis
	err   error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, _ []models.AnomalyCandidate) (models.HealthAnalysis, error) {
	a.calls++
	return a.res, a.err
}

func sources() []ReadingSource {
	return []ReadingSource{
		staticSource{name: models.StreamECG, readings: []*models.Reading{
			models.ECGSample{Timestamp: 3000, Value: 1, IsAnomaly: true, AnomalyKind: "invert"}.Reading(),
			models.ECGSample{Timestamp: 4000, Value: 1}.Reading(),
		}},
		staticSource{name: models.StreamEEG, readings: []*models.Reading{
			models.EEGSample{Timestamp: 1000, IsAnomaly: true, AnomalyKind: "stress"}.Reading(),
		}},
	}
}

func TestHealthInsightsCandidates(t *testing.T) {
	h := NewHealthInsights(nil, nil, 0, nil, nil, sources()...)
	c := h.Candidates()
	require.Len(t, c, 2)
	assert.Equal(t, models.AnomalyCandidate{Stream: models.StreamEEG, Timestamp: 1000, Kind: "stress"}, c[0])
	assert.Equal(t, models.StreamECG, c[1].Stream)
}

func TestFallbackAnalysisDeterministic(t *testing.T) {
	ecgOnly := []models.AnomalyCandidate{{Stream: models.StreamECG, Timestamp: 1}}
	a := FallbackAnalysis(ecgOnly)
	b := FallbackAnalysis([]models.AnomalyCandidate{{Stream: models.StreamECG, Timestamp: 99, Kind: "x"}})
	assert.Equal(t, a, b)
	assert.Equal(t, SourceFallback, a.Source)
	assert.Contains(t, a.Analysis, "ECG")
	assert.NotContains(t, a.Analysis, "EEG")
	assert.Len(t, a.Recommendations, 5)
	assert.Len(t, a.WarningSigns, 5)

	both := FallbackAnalysis([]models.AnomalyCandidate{{Stream: models.StreamECG}, {Stream: models.StreamEEG}})
	assert.Contains(t, both.Analysis, "EEG")
	assert.Contains(t, both.Analysis, "2 flagged samples")

	none := FallbackAnalysis(nil)
	assert.Equal(t, 0, none.Candidates)
	assert.NotContains(t, none.Analysis, "ECG")
}

func TestHealthInsightsAnalyzerAndFallback(t *testing.T) {
	m := newFakeMetrics()
	an := &fakeAnalyzer{res: models.HealthAnalysis{Analysis: "steady", Recommendations: []string{"rest"}}}
	h := NewHealthInsights(an, nil, 0, m, nil, sources()...)

	res := h.Analyze(context.Background(), false)
	assert.Equal(t, SourceGemini, res.Source)
	assert.Equal(t, "steady", res.Analysis)
	assert.Equal(t, 2, res.Candidates)

	an.err = errDown
	res = h.Analyze(context.Background(), false)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 1, m.errors["insights_analyzer"])

	an.err = nil
	an.res = models.HealthAnalysis{Analysis: "  "}
	assert.Equal(t, SourceFallback, h.Analyze(context.Background(), false).Source)
}

func TestHealthInsightsCache(t *testing.T) {
	an := &fakeAnalyzer{res: models.HealthAnalysis{Analysis: "steady"}}
	h := NewHealthInsights(an, cache.NewTTLCache(), time.Minute, newFakeMetrics(), nil, sources()...)

	first := h.Analyze(context.Background(), false)
	second := h.Analyze(context.Background(), false)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, an.calls)

	h.Analyze(context.Background(), true)
	assert.Equal(t, 2, an.calls)
}
