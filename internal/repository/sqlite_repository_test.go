package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthTwin/internal/domain/models"
)

func TestSQLiteStorageRoundTrip(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Health(ctx))

	require.NoError(t, s.Store(ctx, models.ECGSample{Timestamp: 1000, Value: 1.25, IsAnomaly: true, AnomalyKind: "invert"}.Reading()))
	require.NoError(t, s.StoreBatch(ctx, []*models.Reading{
		models.ECGSample{Timestamp: 2000, Value: 0.5}.Reading(),
		models.EEGSample{Timestamp: 2000, Alpha: 0.1, Beta: 0.2, Theta: 0.3, Delta: 0.4}.Reading(),
		nil,
	}))

	got, err := s.Query(ctx, models.StreamECG, time.UnixMilli(0), time.UnixMilli(5000), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].Timestamp)
	assert.Equal(t, 1.25, got[1].Values["value"])
	assert.True(t, got[1].IsAnomaly)
	assert.Equal(t, "invert", got[1].AnomalyKind)

	got, err = s.Query(ctx, models.StreamEEG, time.UnixMilli(0), time.UnixMilli(5000), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.4, got[0].Values["delta"])

	got, err = s.Query(ctx, models.StreamECG, time.UnixMilli(1500), time.UnixMilli(5000), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSamplesTableDDL(t *testing.T) {
	stmts := SamplesTableDDL("healthtwin", "samples")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "healthtwin.samples")
	assert.Contains(t, stmts[1], "Map(String, Float64)")
}
