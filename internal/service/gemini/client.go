package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"HealthTwin/internal/domain/models"
	dsvc "HealthTwin/internal/domain/service"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

var (
	ErrNoAPIKey      = errors.New("gemini api key is required")
	ErrEmptyResponse = errors.New("gemini returned an empty response")
)

// generator is the subset of genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client asks Gemini for health summaries and alert cards. Both answers are
// requested as JSON.
type Client struct {
	gen     generator
	model   string
	timeout time.Duration
	now     func() time.Time
}

var (
	_ dsvc.Analyzer    = (*Client)(nil)
	_ dsvc.AlertSource = (*Client)(nil)
)

// New creates a Gemini client.
func New(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newClient(gc.Models, model, timeout), nil
}

func newClient(gen generator, model string, timeout time.Duration) *Client {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{gen: gen, model: model, timeout: timeout, now: time.Now}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

func (c *Client) generate(ctx context.Context, prompt string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gen.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return ErrEmptyResponse
	}
	text := stripFence(resp.Text())
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// stripFence removes a ```json fence some models add despite the MIME type.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Analyze implements service.Analyzer.
func (c *Client) Analyze(ctx context.Context, cands []models.AnomalyCandidate) (models.HealthAnalysis, error) {
	var res models.HealthAnalysis
	if err := c.generate(ctx, analysisPrompt(cands), &res); err != nil {
		return models.HealthAnalysis{}, err
	}
	if strings.TrimSpace(res.Analysis) == "" {
		return models.HealthAnalysis{}, ErrEmptyResponse
	}
	return res, nil
}

// Alerts implements service.AlertSource.
func (c *Client) Alerts(ctx context.Context, cands []models.AnomalyCandidate) ([]models.HealthAlert, error) {
	var res struct {
		Alerts []models.HealthAlert `json:"alerts"`
	}
	if err := c.generate(ctx, alertsPrompt(cands), &res); err != nil {
		return nil, err
	}
	now := c.now().UTC().Format(time.RFC3339)
	out := res.Alerts[:0]
	for i, a := range res.Alerts {
		if a.Description == "" {
			continue
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("gemini-%d", i+1)
		}
		if a.Timestamp == "" {
			a.Timestamp = now
		}
		if a.Status == "" {
			a.Status = "active"
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func countStreams(cands []models.AnomalyCandidate) (ecg, eeg int) {
	for _, c := range cands {
		switch c.Stream {
		case models.StreamECG:
			ecg++
		case models.StreamEEG:
			eeg++
		}
	}
	return ecg, eeg
}

func writeCandidates(sb *strings.Builder, cands []models.AnomalyCandidate) {
	ecg, eeg := countStreams(cands)
	fmt.Fprintf(sb, "Current status:\n- Total flagged samples: %d\n- ECG: %d\n- EEG: %d\n\nFlagged samples:\n", len(cands), ecg, eeg)
	for _, c := range cands {
		ts := time.UnixMilli(c.Timestamp).UTC().Format(time.RFC3339)
		fmt.Fprintf(sb, "- time=%s type=%s pattern=%s\n", ts, strings.ToUpper(string(c.Stream)), c.Kind)
	}
}

func analysisPrompt(cands []models.AnomalyCandidate) string {
	var sb strings.Builder
	sb.WriteString("As a medical assistant specializing in cardiology and neurology, analyze this monitoring data and provide recommendations.\n\n")
	writeCandidates(&sb, cands)
	sb.WriteString(`
Answer with a single JSON object of this shape:
{"analysis": string, "implications": string, "recommendations": [string], "warningSigns": [string], "medicalAdvice": string}
Keep it concise and actionable. Order recommendations by importance.`)
	return sb.String()
}

func alertsPrompt(cands []models.AnomalyCandidate) string {
	var sb strings.Builder
	sb.WriteString("You summarize ECG and EEG monitoring into alert cards for a dashboard.\n\n")
	writeCandidates(&sb, cands)
	sb.WriteString(`
Answer with a JSON object {"alerts": [...]} holding one to three alerts of this shape:
{"type": "ECG"|"EEG"|"Combined", "severity": "low"|"medium"|"high"|"normal", "description": string, "details": string, "status": "active"|"normal",
 "risks": [{"type": string, "probability": number between 0 and 1, "severity": string, "indicators": [string]}]}
When nothing is flagged return a single normal alert.`)
	return sb.String()
}
