package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"HealthTwin/internal/domain/models"
)

// alertNamespace scopes the deterministic ids of canned alerts.
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("healthtwin/alerts"))

type cannedAlert struct {
	age         time.Duration
	typ         string
	severity    string
	description string
	details     string
	status      string
	risks       []models.Risk
}

func baseline(p float64, indicators ...string) []models.Risk {
	return []models.Risk{{Type: "Baseline Assessment", Probability: p, Severity: "normal", Indicators: indicators}}
}

var cannedAlertSets = [][]cannedAlert{
	{
		{
			typ:         "Combined",
			severity:    "high",
			description: "Urgent: Multiple cardiovascular and neurological indicators detected",
			details: "Concurrent cardiac arrhythmia patterns and asymmetric neural activity. ST-segment elevation observed in ECG, " +
				"accompanied by significant changes in delta wave patterns.",
			status: "active",
			risks: []models.Risk{
				{Type: "Heart Attack", Probability: 0.85, Severity: "high", Indicators: []string{
					"ST-segment elevation of 2.3mm in leads V2-V4",
					"T-wave inversion in lateral leads",
					"Reduced R-wave progression",
					"Tachycardia with rate >120 bpm",
					"Irregular QRS complex morphology",
				}},
				{Type: "Stroke", Probability: 0.78, Severity: "high", Indicators: []string{
					"Left hemispheric delta wave predominance",
					"Significant alpha wave suppression",
					"Focal theta wave bursts",
					"Asymmetric neural activity patterns",
					"Abnormal P300 response",
				}},
			},
		},
		{
			age:         15 * time.Minute,
			typ:         "ECG",
			severity:    "normal",
			description: "Normal Sinus Rhythm",
			details:     "Regular heart rhythm with normal P waves, QRS complexes, and T waves. Heart rate within normal range.",
			status:      "normal",
			risks: baseline(0.05,
				"Regular RR intervals",
				"Normal P wave morphology",
				"Normal QRS duration",
				"Normal T wave orientation",
				"Heart rate 60-100 bpm",
			),
		},
		{
			age:         30 * time.Minute,
			typ:         "EEG",
			severity:    "normal",
			description: "Normal Brain Wave Patterns",
			details:     "Well-organized alpha rhythm with appropriate beta, theta, and delta distributions. No abnormal waveforms or asymmetries.",
			status:      "normal",
			risks: baseline(0.03,
				"Dominant posterior alpha rhythm",
				"Normal beta activity during tasks",
				"Appropriate theta distribution",
				"Expected delta presence",
				"Symmetric hemispheric patterns",
			),
		},
	},
	{
		{
			typ:         "EEG",
			severity:    "high",
			description: "Critical: Pre-seizure Pattern Detected",
			details: "Sudden onset of high-frequency beta activity followed by rhythmic sharp waves in the temporal region. " +
				"Pattern suggests imminent seizure risk.",
			status: "active",
			risks: []models.Risk{{Type: "Seizure", Probability: 0.91, Severity: "high", Indicators: []string{
				"Rhythmic sharp waves in temporal lobe",
				"High-frequency beta activity bursts",
				"Focal spike-wave complexes",
				"Suppression of normal background rhythm",
				"Progressive amplitude increase",
			}}},
		},
		{
			age:         15 * time.Minute,
			typ:         "ECG",
			severity:    "normal",
			description: "Healthy Cardiac Function",
			details:     "Normal cardiac rhythm and conduction patterns. All parameters within healthy ranges.",
			status:      "normal",
			risks: baseline(0.04,
				"Normal sinus rhythm",
				"Regular heart rate",
				"Normal QRS morphology",
				"Normal ST segments",
				"Regular P waves",
			),
		},
		{
			age:         45 * time.Minute,
			typ:         "Combined",
			severity:    "normal",
			description: "Optimal Cardio-Neurological Function",
			details:     "Synchronized cardiac and neural patterns indicating healthy physiological state.",
			status:      "normal",
			risks: baseline(0.02,
				"Coordinated heart-brain interaction",
				"Normal autonomic balance",
				"Healthy stress response",
				"Regular sleep-wake patterns",
				"Normal cognitive function indicators",
			),
		},
	},
	{
		{
			typ:         "ECG",
			severity:    "high",
			description: "Acute Myocardial Ischemia Pattern",
			details: "Significant ST-segment elevation in anterior leads with reciprocal changes. " +
				"Pattern indicates acute anterior wall myocardial ischemia.",
			status: "active",
			risks: []models.Risk{{Type: "Myocardial Infarction", Probability: 0.88, Severity: "high", Indicators: []string{
				"ST elevation >2mm in V2-V4",
				"Reciprocal ST depression in II, III, aVF",
				"Hyperacute T waves",
				"Loss of R wave progression",
				"New Q waves developing",
			}}},
		},
		{
			age:         20 * time.Minute,
			typ:         "EEG",
			severity:    "normal",
			description: "Normal Neural Activity",
			details:     "Well-regulated brain activity with appropriate wave patterns across all frequency bands.",
			status:      "normal",
			risks: baseline(0.03,
				"Normal alpha rhythm",
				"Appropriate beta activity",
				"Regular theta patterns",
				"Expected delta waves",
				"Balanced hemispheric activity",
			),
		},
		{
			age:         time.Hour,
			typ:         "Combined",
			severity:    "normal",
			description: "Stable Physiological State",
			details:     "Harmonious interaction between cardiac and neural systems indicating good health status.",
			status:      "normal",
			risks: baseline(0.02,
				"Normal heart rate variability",
				"Balanced autonomic function",
				"Regular breathing patterns",
				"Normal cognitive processing",
				"Healthy stress response",
			),
		},
	},
}

// CannedAlertSets returns the number of canned sets.
func CannedAlertSets() int { return len(cannedAlertSets) }

// CannedAlerts renders set idx (mod the number of sets) relative to now.
// Ids are stable per set and position.
func CannedAlerts(idx int, now time.Time) []models.HealthAlert {
	n := len(cannedAlertSets)
	idx = ((idx % n) + n) % n
	set := cannedAlertSets[idx]
	out := make([]models.HealthAlert, len(set))
	for i, a := range set {
		risks := make([]models.Risk, len(a.risks))
		for j, r := range a.risks {
			r.Indicators = append([]string(nil), r.Indicators...)
			risks[j] = r
		}
		out[i] = models.HealthAlert{
			ID:          uuid.NewSHA1(alertNamespace, []byte(fmt.Sprintf("%d/%d", idx, i))).String(),
			Timestamp:   now.Add(-a.age).UTC().Format(time.RFC3339),
			Type:        a.typ,
			Severity:    a.severity,
			Description: a.description,
			Details:     a.details,
			Status:      a.status,
			Risks:       risks,
		}
	}
	return out
}
