package signal

import (
	"math"
	"sync"
	"time"

	"HealthTwin/internal/domain/models"
)

// ECG anomaly names.
const (
	ECGAmplify      = "amplify"      // amplified R wave
	ECGAttenuate    = "attenuate"    // reduced QRS amplitude
	ECGFibrillation = "fibrillation" // fibrillation-like ripple
	ECGInvert       = "invert"       // inverted QRS complex
	ECGJitter       = "jitter"       // interference noise
)

var (
	ecgAmplify   = Transform[float64]{Name: ECGAmplify, Apply: func(v, _ float64, _ Random) float64 { return v * 2.5 }}
	ecgAttenuate = Transform[float64]{Name: ECGAttenuate, Apply: func(v, _ float64, _ Random) float64 { return v * 0.3 }}
)

func ecgBatchTransforms() []Transform[float64] {
	return []Transform[float64]{
		ecgAmplify,
		ecgAttenuate,
		{Name: ECGFibrillation, Apply: func(v, t float64, _ Random) float64 { return v + math.Sin(t*5)*0.8 }},
		{Name: ECGInvert, Apply: func(v, _ float64, _ Random) float64 { return -v }},
		{Name: ECGJitter, Apply: func(v, _ float64, rnd Random) float64 { return v + (rnd.Float64() - 0.5) }},
	}
}

// ECGGenerator produces an ECG-like scalar per tick with a simplified QRS
// overlay. The logical index advances once per sample and is never reset.
//
// Seeded samples derive time from the index (t = i/10). Live samples derive
// the sine term from the wall clock and use the narrower amplify/attenuate
// anomaly set.
type ECGGenerator struct {
	mu       sync.Mutex
	rnd      Random
	interval time.Duration
	index    int
	batch    Policy[float64]
	live     Policy[float64]
}

// NewECGGenerator creates a generator. Without WithRandom/WithSeed it uses a
// time-seeded source.
func NewECGGenerator(opts ...Option) *ECGGenerator {
	o := buildOptions(opts)
	return &ECGGenerator{
		rnd:      o.rnd,
		interval: o.interval,
		batch:    Policy[float64]{Probability: o.probability, Transforms: ecgBatchTransforms()},
		live:     Policy[float64]{Probability: o.probability, Transforms: []Transform[float64]{ecgAmplify, ecgAttenuate}},
	}
}

// qrs returns the fixed-phase QRS term for index i.
func qrs(i int) float64 {
	switch i % 10 {
	case 0:
		return 1.5 // R wave
	case 1, 9:
		return -0.5 // Q and S waves
	default:
		return 0
	}
}

func ecgBase(t float64) float64 { return math.Sin(t*math.Pi*2) * 0.5 }

// At computes the seeded-model sample for index i without touching the
// generator's index.
func (g *ECGGenerator) At(i int, ts int64) models.ECGSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.at(i, ts)
}

func (g *ECGGenerator) at(i int, ts int64) models.ECGSample {
	t := float64(i) / 10
	v := ecgBase(t) + qrs(i)
	v += (g.rnd.Float64() - 0.5) * 0.1

	v, kind, anomalous := g.batch.Inject(g.rnd, v, t)
	return models.ECGSample{Timestamp: ts, Value: v, IsAnomaly: anomalous, AnomalyKind: kind}
}

// Batch produces n samples ending at now, spaced by the tick interval, and
// advances the index by n.
func (g *ECGGenerator) Batch(now time.Time, n int) []models.ECGSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	step := g.interval.Milliseconds()
	end := now.UnixMilli()
	out := make([]models.ECGSample, n)
	for k := 0; k < n; k++ {
		ts := end - int64(n-1-k)*step
		out[k] = g.at(g.index, ts)
		g.index++
	}
	return out
}

// Next produces the live sample following prev.
func (g *ECGGenerator) Next(prev models.ECGSample, now time.Time) models.ECGSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := float64(now.UnixMilli()) / 1000
	v := ecgBase(t) + qrs(g.index)
	v += (g.rnd.Float64() - 0.5) * 0.1
	g.index++

	v, kind, anomalous := g.live.Inject(g.rnd, v, t)
	return models.ECGSample{
		Timestamp:   prev.Timestamp + g.interval.Milliseconds(),
		Value:       v,
		IsAnomaly:   anomalous,
		AnomalyKind: kind,
	}
}

// Index returns the next logical index.
func (g *ECGGenerator) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Transforms returns the seeded-model anomaly names in selection order.
func (g *ECGGenerator) Transforms() []string { return g.batch.Names() }
