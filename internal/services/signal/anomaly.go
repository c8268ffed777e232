package signal

// AnomalyProbability is the per-sample chance of an injected anomaly.
const AnomalyProbability = 0.05

// Transform is a named anomaly substitution. t is the time argument of the
// sample being generated.
type Transform[T any] struct {
	Name  string
	Apply func(v T, t float64, rnd Random) T
}

// Policy is an independent Bernoulli trigger plus a uniform choice among a
// fixed set of transforms. It carries no state between samples.
type Policy[T any] struct {
	Probability float64
	Transforms  []Transform[T]
}

// Trigger draws once and reports whether this sample is anomalous.
func (p Policy[T]) Trigger(rnd Random) bool {
	return rnd.Float64() < p.Probability
}

// Apply chooses one transform uniformly and applies it to v.
func (p Policy[T]) Apply(rnd Random, v T, t float64) (T, string) {
	tr := p.Transforms[pick(rnd, len(p.Transforms))]
	return tr.Apply(v, t, rnd), tr.Name
}

// Inject runs Trigger and, when it fires, Apply.
func (p Policy[T]) Inject(rnd Random, v T, t float64) (T, string, bool) {
	if !p.Trigger(rnd) {
		return v, "", false
	}
	out, name := p.Apply(rnd, v, t)
	return out, name, true
}

// Names lists the transform names in selection order.
func (p Policy[T]) Names() []string {
	out := make([]string, len(p.Transforms))
	for i, tr := range p.Transforms {
		out[i] = tr.Name
	}
	return out
}
