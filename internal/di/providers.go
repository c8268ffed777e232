package di

import (
	"context"
	"fmt"
	"time"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/domain/repository"
	dsvc "HealthTwin/internal/domain/service"
	"HealthTwin/internal/handler/api"
	"HealthTwin/internal/handler/ws"
	mid "HealthTwin/internal/middleware"
	internalrepo "HealthTwin/internal/repository"
	"HealthTwin/internal/service/cache"
	"HealthTwin/internal/service/gemini"
	"HealthTwin/internal/service/ratelimit"
	"HealthTwin/internal/services/signal"
	"HealthTwin/internal/usecase"
	pkgch "HealthTwin/pkg/clickhouse"
	"HealthTwin/pkg/config"
	xhttp "HealthTwin/pkg/http"
	pkgkafka "HealthTwin/pkg/kafka"
	applogger "HealthTwin/pkg/logger"
	"HealthTwin/pkg/metrics"
	"HealthTwin/pkg/server"
)

// Optional dependencies are returned as nil when the configuration does not
// need them. Providers that return interfaces return an untyped nil.

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "healthtwin",
	})
}

func needsClickHouse(cfg *config.Config) bool {
	return cfg.Backend.Type == config.BackendClickHouse || cfg.Kafka.Consumer.Enabled
}

func needsProducer(cfg *config.Config) bool {
	return cfg.Backend.Type == config.BackendKafka || cfg.Log.Digest.Enabled
}

// ProvideClickHouseClient creates a ClickHouse client and the samples table.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !needsClickHouse(cfg) {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SamplesTableDDL(client.Database(), cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !needsProducer(cfg) {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSampleStorage creates the sink storage for clickhouse or sqlite.
func ProvideSampleStorage(cfg *config.Config, ch *pkgch.Client) (repository.Storage, error) {
	switch cfg.Backend.Type {
	case config.BackendClickHouse:
		return internalrepo.NewClickHouseStorage(ch.DB(), ch.Table(cfg.ClickHouse.Table)), nil
	case config.BackendSQLite:
		store, err := internalrepo.OpenSQLite(cfg.Backend.SQLitePath)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return store, nil
	}
	return nil, nil
}

// ProvideSamplePublisher creates the Kafka publisher for the kafka backend.
func ProvideSamplePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if cfg.Backend.Type != config.BackendKafka || producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSampleProcessor creates the backend router.
func ProvideSampleProcessor(cfg *config.Config, pub repository.Publisher, store repository.Storage, m repository.Metrics) *usecase.SampleProcessor {
	return usecase.NewSampleProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvidePipeline builds the validation/throttle/batch stage in front of the
// processor.
func ProvidePipeline(cfg *config.Config, proc *usecase.SampleProcessor, m repository.Metrics) *mid.RealtimePipeline {
	return mid.NewRealtimePipeline(proc, m,
		mid.WithMaxRPS(cfg.Backend.MaxRPS),
		mid.WithBufferSize(cfg.Backend.BufferSize),
		mid.WithBatch(cfg.Backend.BatchSize, cfg.Backend.BatchLinger),
		mid.WithBackoff(cfg.Backend.Backoff, 10*cfg.Backend.Backoff),
	)
}

// ProvideSink returns the pipeline, or nil when samples go nowhere.
func ProvideSink(cfg *config.Config, pipe *mid.RealtimePipeline) usecase.Sink {
	if cfg.Backend.Type == config.BackendNone {
		return nil
	}
	return pipe
}

func generatorOptions(cfg *config.Config, offset int64) []signal.Option {
	opts := []signal.Option{
		signal.WithInterval(cfg.Signals.Interval),
		signal.WithAnomalyProbability(cfg.Signals.AnomalyProbability),
	}
	if cfg.Signals.Seed != 0 {
		opts = append(opts, signal.WithSeed(cfg.Signals.Seed+offset))
	}
	return opts
}

// ProvideECGStream creates the ECG stream.
func ProvideECGStream(cfg *config.Config, l *applogger.Logger) (*usecase.SignalStream[models.ECGSample], error) {
	return usecase.NewSignalStream[models.ECGSample](models.StreamECG,
		signal.NewECGGenerator(generatorOptions(cfg, 0)...),
		cfg.Signals.WindowSize,
		usecase.WithTickInterval(cfg.Signals.Interval),
		usecase.WithStreamLogger(l),
	)
}

// ProvideEEGStream creates the EEG stream.
func ProvideEEGStream(cfg *config.Config, l *applogger.Logger) (*usecase.SignalStream[models.EEGSample], error) {
	return usecase.NewSignalStream[models.EEGSample](models.StreamEEG,
		signal.NewEEGGenerator(generatorOptions(cfg, 1)...),
		cfg.Signals.WindowSize,
		usecase.WithTickInterval(cfg.Signals.Interval),
		usecase.WithStreamLogger(l),
	)
}

// ProvideMonitor joins both streams.
func ProvideMonitor(ecg *usecase.SignalStream[models.ECGSample], eeg *usecase.SignalStream[models.EEGSample], sink usecase.Sink, m repository.Metrics, l *applogger.Logger) *usecase.Monitor {
	return usecase.NewMonitor(ecg, eeg, sink, m, l)
}

// ProvideGeminiClient creates the Gemini client, or nil without an API key.
func ProvideGeminiClient(cfg *config.Config, l *applogger.Logger) (*gemini.Client, error) {
	if cfg.Gemini.APIKey == "" {
		l.Info("gemini api key not set, insights use the static fallback")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
	if err != nil {
		l.Warn("gemini client unavailable, insights use the static fallback", applogger.Error(err))
		return nil, nil
	}
	return client, nil
}

// ProvideAnalyzer exposes the Gemini client as an Analyzer.
func ProvideAnalyzer(c *gemini.Client) dsvc.Analyzer {
	if c == nil {
		return nil
	}
	return c
}

// ProvideAlertSource exposes the Gemini client as an AlertSource.
func ProvideAlertSource(c *gemini.Client) dsvc.AlertSource {
	if c == nil {
		return nil
	}
	return c
}

// ProvideInsightsCache picks Redis when enabled, the in-memory cache otherwise.
func ProvideInsightsCache(cfg *config.Config, l *applogger.Logger) cache.BytesCache {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache()
	}
	rc := cache.NewRedisCache(cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-memory insights cache", applogger.Error(err))
		_ = rc.Close()
		return cache.NewTTLCache()
	}
	return rc
}

// ProvideHealthInsights creates the insights use case.
func ProvideHealthInsights(cfg *config.Config, analyzer dsvc.Analyzer, c cache.BytesCache, m repository.Metrics, l *applogger.Logger, mon *usecase.Monitor) *usecase.HealthInsights {
	return usecase.NewHealthInsights(analyzer, c, cfg.Insights.CacheTTL, m, l, mon.Sources()...)
}

// ProvideAlertFeed creates the alert feed.
func ProvideAlertFeed(src dsvc.AlertSource, insights *usecase.HealthInsights, l *applogger.Logger) *usecase.AlertFeed {
	return usecase.NewAlertFeed(src, insights, l)
}

// ProvideRateLimiter creates the per-client limiter for LLM-backed routes.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHub creates the live feed hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l.With(applogger.String("component", "ws")))
}

// ProvideHTTPHandlers collects every route group.
func ProvideHTTPHandlers(
	cfg *config.Config,
	l *applogger.Logger,
	mon *usecase.Monitor,
	store repository.Storage,
	gc *gemini.Client,
	insights *usecase.HealthInsights,
	alerts *usecase.AlertFeed,
	rl *ratelimit.Limiter,
	hub *ws.Hub,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewSignalsEchoHandler(l, mon, store, cfg.Backend.Type, gc != nil),
		api.NewInsightsEchoHandler(l, insights, alerts, rl, cfg.Insights.RateBurst, cfg.Insights.RateRefill),
		hub,
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h xhttp.Handler) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
		xhttp.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates a Kafka consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.LoggingHook{Log: l, Slow: time.Second}))
	return consumer, nil
}

// ProvideKafkaSamplesHandler stores consumed samples in ClickHouse.
func ProvideKafkaSamplesHandler(cfg *config.Config, ch *pkgch.Client, m repository.Metrics) pkgkafka.MessageHandler {
	if !cfg.Kafka.Consumer.Enabled || ch == nil {
		return nil
	}
	store := internalrepo.NewClickHouseStorage(ch.DB(), ch.Table(cfg.ClickHouse.Table))
	return usecase.NewKafkaSamplesHandler(cfg.Kafka.Topic, store, m)
}

// ProvideApp creates the application server and attaches housekeeping.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	mon *usecase.Monitor,
	pipe *mid.RealtimePipeline,
	proc *usecase.SampleProcessor,
	hub *ws.Hub,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	rl *ratelimit.Limiter,
	c cache.BytesCache,
) *server.App {
	app := server.New(server.Deps{
		Config:     cfg,
		Logger:     l,
		Monitor:    mon,
		Pipeline:   pipe,
		Processor:  proc,
		Hub:        hub,
		HTTPServer: srv,
		Consumer:   consumer,
		Handler:    kh,
		ClickHouse: ch,
	})

	app.AddJanitor(func() { rl.Sweep(10 * time.Minute) })
	if ttl, ok := c.(*cache.TTLCache); ok {
		app.AddJanitor(func() { ttl.Purge() })
	}
	if rc, ok := c.(*cache.RedisCache); ok {
		app.AddCloser(rc.Close)
	}

	if producer != nil && cfg.Log.Digest.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Digest.Interval,
			CountThreshold: cfg.Log.Digest.Threshold,
			Topic:          cfg.Log.Digest.Topic,
			Publisher:      producer,
			Service:        "healthtwin",
		})
	}
	if producer != nil && cfg.Backend.Type != config.BackendKafka {
		// otherwise the publisher owns it
		app.AddCloser(producer.Close)
	}
	return app
}
