package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"HealthTwin/internal/domain/models"
	domrepo "HealthTwin/internal/domain/repository"
	svcmetrics "HealthTwin/internal/service/metrics"
	"HealthTwin/internal/usecase"
	xhttp "HealthTwin/pkg/http"
	xlogger "HealthTwin/pkg/logger"
	xutil "HealthTwin/pkg/util"
)

func init() {
	xhttp.RegisterValidation("stream", func(v string) bool {
		return domrepo.NormalizeStream(v) != ""
	})
	svcmetrics.Register()
}

// SignalsEchoHandler serves the live windows, status and stored history.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	monitor *usecase.Monitor
	history domrepo.Storage
	backend string
	llm     bool
	started time.Time
}

// NewSignalsEchoHandler creates the handler. history may be nil, in which
// case /api/history answers 503.
func NewSignalsEchoHandler(logger *xlogger.Logger, monitor *usecase.Monitor, history domrepo.Storage, backend string, llm bool) *SignalsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SignalsEchoHandler{
		logger:  logger,
		monitor: monitor,
		history: history,
		backend: backend,
		llm:     llm,
		started: time.Now(),
	}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/signals/:stream", h.Window)
	g.GET("/signals/:stream/latest", h.Latest)
	g.GET("/history", h.History)
}

func observe(endpoint string, start time.Time) {
	svcmetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *SignalsEchoHandler) Status(c echo.Context) error {
	defer observe("status", time.Now())
	return xhttp.SuccessResponse(c, models.StatusResponse{
		Service: "healthtwin",
		Backend: h.backend,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
		Streams: h.monitor.Status(),
		History: h.history != nil,
		LLM:     h.llm,
	})
}

func (h *SignalsEchoHandler) Window(c echo.Context) error {
	defer observe("window", time.Now())
	req := &models.WindowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.monitor.Window(models.Stream(req.Stream))
	if err != nil {
		return h.fail(c, "window", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Latest(c echo.Context) error {
	defer observe("latest", time.Now())
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	stream := models.Stream(req.Stream)
	if capacity := h.monitor.Capacity(stream); req.N > capacity {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("n must be at most %d", capacity).WithParam("max", capacity))
	}

	res, err := h.monitor.Latest(stream, req.N)
	if err != nil {
		return h.fail(c, "latest", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) History(c echo.Context) error {
	defer observe("history", time.Now())
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("history storage not configured"))
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to := xutil.ParseRange(req.From, req.To, time.Now(), time.Hour)

	rows, err := h.history.Query(c.Request().Context(), models.Stream(req.Stream), from, to, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)), req.Limit)
}

func (h *SignalsEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	svcmetrics.APIErrors.WithLabelValues(endpoint).Inc()
	if errors.Is(err, usecase.ErrUnknownStream) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	h.logger.Error("signals handler error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("request failed").WithError(err))
}
