package di

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthTwin/internal/service/cache"
	"HealthTwin/pkg/config"
	applogger "HealthTwin/pkg/logger"
)

func TestOptionalProvidersReturnUntypedNil(t *testing.T) {
	cfg := config.Default()

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)

	assert.Nil(t, ProvideSamplePublisher(cfg, producer))
	assert.Nil(t, ProvideSink(cfg, nil))
	assert.Nil(t, ProvideAnalyzer(nil))
	assert.Nil(t, ProvideAlertSource(nil))
	assert.Nil(t, ProvideKafkaSamplesHandler(cfg, nil, nil))

	store, err := ProvideSampleStorage(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, store)

	consumer, err := ProvideKafkaConsumer(cfg, applogger.Nop())
	require.NoError(t, err)
	assert.Nil(t, consumer)

	gc, err := ProvideGeminiClient(cfg, applogger.Nop())
	require.NoError(t, err)
	assert.Nil(t, gc)
}

func TestProvideInsightsCacheDefaultsToMemory(t *testing.T) {
	c := ProvideInsightsCache(config.Default(), applogger.Nop())
	_, ok := c.(*cache.TTLCache)
	assert.True(t, ok)
}

func TestGeneratorOptionsSeedOffset(t *testing.T) {
	cfg := config.Default()
	assert.Len(t, generatorOptions(cfg, 0), 2)
	cfg.Signals.Seed = 7
	assert.Len(t, generatorOptions(cfg, 1), 3)
}

func TestInitializeAppWithSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Type = config.BackendSQLite
	cfg.Backend.SQLitePath = filepath.Join(t.TempDir(), "samples.db")
	cfg.Server.Port = 18089
	cfg.Metrics.Enabled = false
	require.NoError(t, cfg.Validate())

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	app.Close()
}
