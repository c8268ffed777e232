package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"HealthTwin/internal/handler/ws"
	mid "HealthTwin/internal/middleware"
	"HealthTwin/internal/usecase"
	pkgch "HealthTwin/pkg/clickhouse"
	"HealthTwin/pkg/config"
	xhttp "HealthTwin/pkg/http"
	pkgkafka "HealthTwin/pkg/kafka"
	applogger "HealthTwin/pkg/logger"
)

// Janitor is periodic housekeeping run while the app is up, e.g. pruning
// idle rate limit buckets.
type Janitor func()

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	monitor    *usecase.Monitor
	pipeline   *mid.RealtimePipeline
	processor  *usecase.SampleProcessor
	hub        *ws.Hub
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client

	janitors []Janitor
	closers  []func() error
	stopOnce sync.Once
}

// Deps groups what App needs. Optional parts may be nil.
type Deps struct {
	Config     *config.Config
	Logger     *applogger.Logger
	Monitor    *usecase.Monitor
	Pipeline   *mid.RealtimePipeline
	Processor  *usecase.SampleProcessor
	Hub        *ws.Hub
	HTTPServer *xhttp.Server
	Consumer   *pkgkafka.Consumer
	Handler    pkgkafka.MessageHandler
	ClickHouse *pkgch.Client
}

// New creates a new App instance with all dependencies.
func New(d Deps) *App {
	l := d.Logger
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{
		cfg:        d.Config,
		log:        l,
		monitor:    d.Monitor,
		pipeline:   d.Pipeline,
		processor:  d.Processor,
		hub:        d.Hub,
		httpServer: d.HTTPServer,
		consumer:   d.Consumer,
		kh:         d.Handler,
		chClient:   d.ClickHouse,
	}
	if a.hub != nil {
		a.monitor.Subscribe(a.hub.Broadcast)
	}
	return a
}

// AddJanitor registers periodic housekeeping.
func (a *App) AddJanitor(j Janitor) { a.janitors = append(a.janitors, j) }

// AddCloser registers a resource closed last during shutdown.
func (a *App) AddCloser(fn func() error) { a.closers = append(a.closers, fn) }

// Run starts every component and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
	}
	if err := a.monitor.Start(ctx); err != nil {
		a.shutdown()
		return err
	}
	a.log.Info("monitor started",
		applogger.String("backend", a.cfg.Backend.Type),
		applogger.Int("window", a.cfg.Signals.WindowSize),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.httpServer.ListenAndServe)
	if len(a.janitors) > 0 {
		g.Go(func() error {
			a.runJanitors(gctx, time.Minute)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("shutdown signal received")
		}
		a.shutdown()
		return nil
	})

	return g.Wait()
}

func (a *App) runJanitors(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, j := range a.janitors {
				j()
			}
		}
	}
}

// Close releases everything the app holds. It is what Run calls on exit and
// may also be used on an app that never ran. Only the first call does work.
func (a *App) Close() { a.shutdown() }

func (a *App) shutdown() { a.stopOnce.Do(a.doShutdown) }

// doShutdown stops producers of data first, then transports, then clients.
func (a *App) doShutdown() {
	a.log.Info("shutting down...")

	a.monitor.Stop()
	if a.pipeline != nil {
		a.pipeline.Stop()
		if n := a.pipeline.Buffered(); n > 0 {
			a.log.Warn("dropping buffered readings", applogger.Int("count", n))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	// last error digest goes out while the producer is still open
	a.log.RemoveCollector()

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// closes the publisher and the sink storage
	if a.processor != nil {
		a.processor.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
