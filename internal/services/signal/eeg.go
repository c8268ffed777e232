package signal

import (
	"math"
	"sync"
	"time"

	"HealthTwin/internal/domain/models"
)

// EEG scenario names for the seeded model.
const (
	EEGStress         = "stress"
	EEGDeepSleep      = "deep_sleep"
	EEGPoorRelaxation = "poor_relaxation"
	EEGSeizure        = "seizure"
)

// Bands holds the four band powers.
type Bands struct {
	Alpha, Beta, Theta, Delta float64
}

func (b Bands) scale(a, be, th, d float64) Bands {
	return Bands{Alpha: b.Alpha * a, Beta: b.Beta * be, Theta: b.Theta * th, Delta: b.Delta * d}
}

var bandNames = [4]string{"alpha", "beta", "theta", "delta"}

func eegScenarios() []Transform[Bands] {
	return []Transform[Bands]{
		{Name: EEGStress, Apply: func(b Bands, _ float64, _ Random) Bands { return b.scale(0.5, 2.5, 0.7, 0.7) }},
		{Name: EEGDeepSleep, Apply: func(b Bands, _ float64, _ Random) Bands { return b.scale(0.3, 0.3, 0.5, 3) }},
		{Name: EEGPoorRelaxation, Apply: func(b Bands, _ float64, _ Random) Bands { return b.scale(0.2, 1.5, 1.2, 1.1) }},
		{Name: EEGSeizure, Apply: func(b Bands, t float64, _ Random) Bands {
			return b.scale(1+math.Sin(t*5), 1+math.Sin(t*7), 1+math.Sin(t*3), 1+math.Sin(t*2))
		}},
	}
}

// EEGGenerator produces four band powers per tick. Seeded samples use the
// joint four-scenario anomaly model; live samples scale a single band.
type EEGGenerator struct {
	mu          sync.Mutex
	rnd         Random
	interval    time.Duration
	index       int
	probability float64
	batch       Policy[Bands]
}

// NewEEGGenerator creates a generator.
func NewEEGGenerator(opts ...Option) *EEGGenerator {
	o := buildOptions(opts)
	return &EEGGenerator{
		rnd:         o.rnd,
		interval:    o.interval,
		probability: o.probability,
		batch:       Policy[Bands]{Probability: o.probability, Transforms: eegScenarios()},
	}
}

// bands draws the four noisy base waves at time t, in alpha, beta, theta,
// delta order.
func (g *EEGGenerator) bands(t float64) Bands {
	return Bands{
		Alpha: math.Sin(t*0.8)*0.5 + g.rnd.Float64()*0.1,
		Beta:  math.Sin(t*1.5)*0.3 + g.rnd.Float64()*0.1,
		Theta: math.Sin(t*0.4)*0.4 + g.rnd.Float64()*0.1,
		Delta: math.Sin(t*0.2)*0.6 + g.rnd.Float64()*0.1,
	}
}

func eegSample(ts int64, b Bands, anomalous bool, kind string) models.EEGSample {
	return models.EEGSample{
		Timestamp:   ts,
		Alpha:       b.Alpha,
		Beta:        b.Beta,
		Theta:       b.Theta,
		Delta:       b.Delta,
		IsAnomaly:   anomalous,
		AnomalyKind: kind,
	}
}

// At computes the seeded-model sample for index i without touching the
// generator's index.
func (g *EEGGenerator) At(i int, ts int64) models.EEGSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.at(i, ts)
}

func (g *EEGGenerator) at(i int, ts int64) models.EEGSample {
	t := float64(i) / 10
	b, kind, anomalous := g.batch.Inject(g.rnd, g.bands(t), t)
	return eegSample(ts, b, anomalous, kind)
}

// Batch produces n samples ending at now and advances the index by n.
func (g *EEGGenerator) Batch(now time.Time, n int) []models.EEGSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	step := g.interval.Milliseconds()
	end := now.UnixMilli()
	out := make([]models.EEGSample, n)
	for k := 0; k < n; k++ {
		out[k] = g.at(g.index, end-int64(n-1-k)*step)
		g.index++
	}
	return out
}

// Next produces the live sample following prev. On anomaly the factor
// (2.5 or 0.3) is drawn first, then the target band.
func (g *EEGGenerator) Next(prev models.EEGSample, now time.Time) models.EEGSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := float64(now.UnixMilli()) / 1000
	b := g.bands(t)
	g.index++

	var kind string
	anomalous := g.rnd.Float64() < g.probability
	if anomalous {
		factor, suffix := 0.3, "drop"
		if g.rnd.Float64() < 0.5 {
			factor, suffix = 2.5, "surge"
		}
		band := pick(g.rnd, len(bandNames))
		switch band {
		case 0:
			b.Alpha *= factor
		case 1:
			b.Beta *= factor
		case 2:
			b.Theta *= factor
		case 3:
			b.Delta *= factor
		}
		kind = bandNames[band] + "_" + suffix
	}
	return eegSample(prev.Timestamp+g.interval.Milliseconds(), b, anomalous, kind)
}

// Index returns the next logical index.
func (g *EEGGenerator) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Scenarios returns the seeded-model scenario names in selection order.
func (g *EEGGenerator) Scenarios() []string { return g.batch.Names() }
