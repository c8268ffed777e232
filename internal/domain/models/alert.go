package models

// Risk is one scored risk attached to an alert.
type Risk struct {
	Type        string   `json:"type"`
	Probability float64  `json:"probability"`
	Severity    string   `json:"severity"`
	Indicators  []string `json:"indicators"`
}

// HealthAlert is a dashboard alert card.
type HealthAlert struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"` // RFC3339
	Type        string `json:"type"`      // "ECG", "EEG", "Combined"
	Severity    string `json:"severity"`  // "low", "medium", "high", "normal"
	Description string `json:"description"`
	Details     string `json:"details"`
	Status      string `json:"status"` // "active", "resolved", "normal"
	Risks       []Risk `json:"risks,omitempty"`
}

// AnomalyCandidate is a flagged sample handed to the analyzer. It is a
// direct mapping of the isAnomaly flag, not a detection result.
type AnomalyCandidate struct {
	Stream    Stream `json:"stream"`
	Timestamp int64  `json:"timestamp"`
	Kind      string `json:"kind"`
}

// HealthAnalysis is the structured summary shown next to the charts.
type HealthAnalysis struct {
	Analysis        string   `json:"analysis"`
	Implications    string   `json:"implications"`
	Recommendations []string `json:"recommendations"`
	WarningSigns    []string `json:"warningSigns"`
	MedicalAdvice   string   `json:"medicalAdvice"`
	Source          string   `json:"source"` // "gemini" | "fallback"
	Candidates      int      `json:"candidates"`
}
