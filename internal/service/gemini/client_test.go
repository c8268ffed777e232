package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"HealthTwin/internal/domain/models"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
	config *genai.GenerateContentConfig
	model  string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}}},
	}, nil
}

var cands = []models.AnomalyCandidate{
	{Stream: models.StreamECG, Timestamp: 1_700_000_000_000, Kind: "amplify"},
	{Stream: models.StreamEEG, Timestamp: 1_700_000_001_000, Kind: "stress"},
	{Stream: models.StreamEEG, Timestamp: 1_700_000_002_000, Kind: "seizure"},
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), "", "", 0)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAnalyze(t *testing.T) {
	gen := &fakeGenerator{text: `{"analysis":"Irregular rhythm","implications":"strain","recommendations":["rest"],"warningSigns":["chest pain"],"medicalAdvice":"see a doctor"}`}
	c := newClient(gen, "", 0)

	res, err := c.Analyze(context.Background(), cands)
	require.NoError(t, err)
	assert.Equal(t, "Irregular rhythm", res.Analysis)
	assert.Equal(t, []string{"rest"}, res.Recommendations)
	assert.Equal(t, DefaultModel, gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Contains(t, gen.prompt, "Total flagged samples: 3")
	assert.Contains(t, gen.prompt, "ECG: 1")
	assert.Contains(t, gen.prompt, "pattern=seizure")
}

func TestAnalyzeFencedJSON(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"analysis\":\"ok\"}\n```"}
	res, err := newClient(gen, "m", time.Second).Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Analysis)
	assert.Equal(t, "m", gen.model)
}

func TestAnalyzeErrors(t *testing.T) {
	boom := errors.New("quota")
	_, err := newClient(&fakeGenerator{err: boom}, "", 0).Analyze(context.Background(), cands)
	assert.ErrorIs(t, err, boom)

	_, err = newClient(&fakeGenerator{text: ""}, "", 0).Analyze(context.Background(), cands)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = newClient(&fakeGenerator{text: `{"analysis":"  "}`}, "", 0).Analyze(context.Background(), cands)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = newClient(&fakeGenerator{text: "not json"}, "", 0).Analyze(context.Background(), cands)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode gemini response"))
}

func TestAlerts(t *testing.T) {
	gen := &fakeGenerator{text: `{"alerts":[
		{"type":"ECG","severity":"high","description":"Arrhythmia","risks":[{"type":"AFib","probability":0.4,"severity":"medium","indicators":["irregular RR"]}]},
		{"type":"EEG","severity":"low","description":""}
	]}`}
	c := newClient(gen, "", 0)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	alerts, err := c.Alerts(context.Background(), cands)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "gemini-1", alerts[0].ID)
	assert.Equal(t, "2024-01-02T03:04:05Z", alerts[0].Timestamp)
	assert.Equal(t, "active", alerts[0].Status)
	require.Len(t, alerts[0].Risks, 1)
	assert.InDelta(t, 0.4, alerts[0].Risks[0].Probability, 1e-9)

	_, err = newClient(&fakeGenerator{text: `{"alerts":[]}`}, "", 0).Alerts(context.Background(), cands)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
