package models

// Stream names the physiological signal a sample belongs to.
type Stream string

const (
	StreamECG Stream = "ecg"
	StreamEEG Stream = "eeg"
)

// ECGSample is one synthetic ECG reading.
type ECGSample struct {
	Timestamp   int64   `json:"timestamp"` // ms epoch
	Value       float64 `json:"value"`
	IsAnomaly   bool    `json:"isAnomaly"`
	AnomalyKind string  `json:"anomalyKind,omitempty"`
}

// EEGSample holds the four synthetic band powers for one tick.
type EEGSample struct {
	Timestamp   int64   `json:"timestamp"` // ms epoch
	Alpha       float64 `json:"alpha"`
	Beta        float64 `json:"beta"`
	Theta       float64 `json:"theta"`
	Delta       float64 `json:"delta"`
	IsAnomaly   bool    `json:"isAnomaly"`
	AnomalyKind string  `json:"anomalyKind,omitempty"`
}

// Reading is the flat form of a sample used on the bus and in storage.
// Note: no transport concerns beyond json tags here.
type Reading struct {
	Stream      Stream             `json:"stream"`
	Timestamp   int64              `json:"ts"`
	Values      map[string]float64 `json:"values"`
	IsAnomaly   bool               `json:"anomaly"`
	AnomalyKind string             `json:"kind,omitempty"`
}

// Reading converts the sample to its flat form.
func (s ECGSample) Reading() *Reading {
	return &Reading{
		Stream:      StreamECG,
		Timestamp:   s.Timestamp,
		Values:      map[string]float64{"value": s.Value},
		IsAnomaly:   s.IsAnomaly,
		AnomalyKind: s.AnomalyKind,
	}
}

// Reading converts the sample to its flat form.
func (s EEGSample) Reading() *Reading {
	return &Reading{
		Stream:    StreamEEG,
		Timestamp: s.Timestamp,
		Values: map[string]float64{
			"alpha": s.Alpha,
			"beta":  s.Beta,
			"theta": s.Theta,
			"delta": s.Delta,
		},
		IsAnomaly:   s.IsAnomaly,
		AnomalyKind: s.AnomalyKind,
	}
}

// Readable is implemented by every sample type a stream can emit.
type Readable interface {
	Reading() *Reading
}

// LiveFrame is one tick pushed to live subscribers.
type LiveFrame struct {
	Stream Stream `json:"stream"`
	Sample any    `json:"sample"`
}

// StreamStatus summarizes one stream for the status endpoint.
type StreamStatus struct {
	Stream    Stream `json:"stream"`
	Running   bool   `json:"running"`
	Length    int    `json:"length"`
	Capacity  int    `json:"capacity"`
	Newest    int64  `json:"newest"`
	Anomalies int    `json:"anomalies"`
}
