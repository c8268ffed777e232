package service

import (
	"context"

	"HealthTwin/internal/domain/models"
)

// Analyzer turns flagged samples into a structured health summary.
type Analyzer interface {
	Analyze(ctx context.Context, candidates []models.AnomalyCandidate) (models.HealthAnalysis, error)
}

// AlertSource produces alert cards for the dashboard.
type AlertSource interface {
	Alerts(ctx context.Context, candidates []models.AnomalyCandidate) ([]models.HealthAlert, error)
}
