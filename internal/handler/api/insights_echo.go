package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/service/ratelimit"
	"HealthTwin/internal/usecase"
	xhttp "HealthTwin/pkg/http"
	xlogger "HealthTwin/pkg/logger"
)

// InsightsEchoHandler serves the health summary and the alert feed. Calls
// that may reach the LLM are rate limited per client.
type InsightsEchoHandler struct {
	logger   *xlogger.Logger
	insights *usecase.HealthInsights
	alerts   *usecase.AlertFeed
	rl       *ratelimit.Limiter
	burst    float64
	refill   float64
}

func NewInsightsEchoHandler(logger *xlogger.Logger, insights *usecase.HealthInsights, alerts *usecase.AlertFeed, rl *ratelimit.Limiter, burst, refillPerSec float64) *InsightsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if rl == nil {
		rl = ratelimit.New()
	}
	return &InsightsEchoHandler{logger: logger, insights: insights, alerts: alerts, rl: rl, burst: burst, refill: refillPerSec}
}

func (h *InsightsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/insights", h.Insights)
	g.GET("/alerts", h.Alerts)
	g.POST("/alerts/refresh", h.Refresh)
}

// retryAfter is the time one token takes to refill.
func (h *InsightsEchoHandler) retryAfter() time.Duration {
	if h.refill <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / h.refill)
}

func (h *InsightsEchoHandler) allow(c echo.Context, endpoint string) bool {
	if h.burst <= 0 {
		return true
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, h.burst, h.refill) {
		return true
	}
	h.logger.Warn("rate limited", xlogger.String("endpoint", endpoint), xlogger.String("remote", c.RealIP()))
	return false
}

func (h *InsightsEchoHandler) Insights(c echo.Context) error {
	defer observe("insights", time.Now())
	req := &models.InsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "insights") {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many insight requests", h.retryAfter()))
	}
	return xhttp.SuccessResponse(c, h.insights.Analyze(c.Request().Context(), req.Fresh))
}

func (h *InsightsEchoHandler) Alerts(c echo.Context) error {
	defer observe("alerts", time.Now())
	return xhttp.SuccessResponse(c, h.alerts.Current(c.Request().Context()))
}

func (h *InsightsEchoHandler) Refresh(c echo.Context) error {
	defer observe("alerts_refresh", time.Now())
	if !h.allow(c, "alerts_refresh") {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many refresh requests", h.retryAfter()))
	}
	return xhttp.SuccessResponse(c, h.alerts.Refresh(c.Request().Context()))
}
