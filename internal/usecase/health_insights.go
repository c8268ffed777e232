package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"HealthTwin/internal/domain/models"
	drepo "HealthTwin/internal/domain/repository"
	"HealthTwin/internal/domain/service"
	"HealthTwin/internal/service/cache"
	"HealthTwin/pkg/logger"
)

// Analysis sources.
const (
	SourceGemini   = "gemini"
	SourceFallback = "fallback"
)

// ReadingSource exposes a stream's current window in flat form.
type ReadingSource interface {
	Name() models.Stream
	Readings() []*models.Reading
}

// HealthInsights turns the flagged samples of every window into a health
// summary. The analyzer is optional; without it, or on any analyzer error,
// a static summary is returned.
type HealthInsights struct {
	sources  []ReadingSource
	analyzer service.Analyzer
	cache    cache.BytesCache
	ttl      time.Duration
	metrics  drepo.Metrics
	log      *logger.Logger
}

// NewHealthInsights creates the insights use case. analyzer and c may be nil.
func NewHealthInsights(analyzer service.Analyzer, c cache.BytesCache, ttl time.Duration, metrics drepo.Metrics, log *logger.Logger, sources ...ReadingSource) *HealthInsights {
	if log == nil {
		log = logger.Nop()
	}
	return &HealthInsights{
		sources:  sources,
		analyzer: analyzer,
		cache:    c,
		ttl:      ttl,
		metrics:  metrics,
		log:      log,
	}
}

// Candidates maps every flagged sample in the current windows to a
// candidate, oldest first.
func (h *HealthInsights) Candidates() []models.AnomalyCandidate {
	var out []models.AnomalyCandidate
	for _, src := range h.sources {
		for _, r := range src.Readings() {
			if !r.IsAnomaly {
				continue
			}
			out = append(out, models.AnomalyCandidate{Stream: r.Stream, Timestamp: r.Timestamp, Kind: r.AnomalyKind})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Analyze returns a summary for the current candidates. Cached results are
// reused unless fresh is set.
func (h *HealthInsights) Analyze(ctx context.Context, fresh bool) models.HealthAnalysis {
	cands := h.Candidates()
	key := candidatesKey(cands)

	if !fresh && h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			var cached models.HealthAnalysis
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached
			}
		} else if err != nil {
			h.log.Warn("insights cache get failed", logger.Error(err))
		}
	}

	res := h.analyze(ctx, cands)

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(key, b, h.ttl); err != nil {
				h.log.Warn("insights cache set failed", logger.Error(err))
			}
		}
	}
	return res
}

func (h *HealthInsights) analyze(ctx context.Context, cands []models.AnomalyCandidate) models.HealthAnalysis {
	if h.analyzer == nil {
		return FallbackAnalysis(cands)
	}
	start := time.Now()
	res, err := h.analyzer.Analyze(ctx, cands)
	if h.metrics != nil {
		h.metrics.RecordLatency("insights_analyze", time.Since(start).Seconds())
	}
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("insights_analyzer")
		}
		h.log.Warn("analyzer failed, using fallback", logger.Error(err), logger.Int("candidates", len(cands)))
		return FallbackAnalysis(cands)
	}
	if strings.TrimSpace(res.Analysis) == "" {
		return FallbackAnalysis(cands)
	}
	res.Source = SourceGemini
	res.Candidates = len(cands)
	return res
}

func candidatesKey(cands []models.AnomalyCandidate) string {
	b, _ := json.Marshal(cands)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("insights:%x", sum[:12])
}

var (
	fallbackRecommendations = []string{
		"Schedule a check-up with your healthcare provider",
		"Maintain a regular sleep schedule",
		"Practice stress-reduction techniques like deep breathing or meditation",
		"Monitor and log any unusual symptoms",
		"Stay hydrated and maintain a balanced diet",
	}
	fallbackWarningSigns = []string{
		"Severe chest pain or pressure",
		"Difficulty breathing",
		"Sudden confusion or severe headache",
		"Irregular heartbeat or palpitations",
		"Extreme fatigue or weakness",
	}
)

const (
	fallbackImplications = "These patterns may indicate increased stress levels and potential cardiovascular strain. " +
		"Early intervention and lifestyle modifications could help prevent more serious conditions."
	fallbackAdvice = "Seek immediate medical attention if you experience severe chest pain, difficulty breathing, " +
		"or sudden neurological symptoms like severe headache or confusion."
)

// FallbackAnalysis is the static summary. Its text depends only on the
// number of candidates and which streams they come from.
func FallbackAnalysis(cands []models.AnomalyCandidate) models.HealthAnalysis {
	var hasECG, hasEEG bool
	for _, c := range cands {
		switch c.Stream {
		case models.StreamECG:
			hasECG = true
		case models.StreamEEG:
			hasEEG = true
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the analysis of %d flagged samples, there are patterns that require attention.", len(cands))
	if hasECG {
		sb.WriteString(" The ECG data shows irregular patterns that may indicate cardiac rhythm variations.")
	}
	if hasEEG {
		sb.WriteString(" The EEG readings suggest fluctuations in brain wave activity that could be stress-related.")
	}

	return models.HealthAnalysis{
		Analysis:        sb.String(),
		Implications:    fallbackImplications,
		Recommendations: append([]string(nil), fallbackRecommendations...),
		WarningSigns:    append([]string(nil), fallbackWarningSigns...),
		MedicalAdvice:   fallbackAdvice,
		Source:          SourceFallback,
		Candidates:      len(cands),
	}
}
