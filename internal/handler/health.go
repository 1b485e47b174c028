package handler

import (
	"context"
	"time"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/deppfellow/restcore/internal/middleware"
	"github.com/deppfellow/restcore/internal/response"
	"github.com/deppfellow/restcore/internal/server"
	"github.com/deppfellow/restcore/internal/sqlerr"
	"github.com/labstack/echo/v4"
)

const defaultCheckTimeout = 5 * time.Second

// HealthHandler serves the liveness probe (/health) and the dependency
// check (/status).
type HealthHandler struct {
	Handler
	checks  []dependencyCheck
	timeout time.Duration
}

type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
}

type StatusReport struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	h := &HealthHandler{
		Handler: NewHandler(s),
		timeout: defaultCheckTimeout,
	}

	obs := s.Config.Observability
	if obs == nil || !obs.HealthChecks.Enabled {
		return h
	}
	if obs.HealthChecks.Timeout > 0 {
		h.timeout = obs.HealthChecks.Timeout
	}

	for _, name := range obs.HealthChecks.Checks {
		switch name {
		case "database":
			h.checks = append(h.checks, dependencyCheck{name: name, ping: func(ctx context.Context) error {
				return sqlerr.TranslateErr(ctx, s.RelationalPool().Ping(ctx))
			}})
		case "redis":
			h.checks = append(h.checks, dependencyCheck{name: name, ping: func(ctx context.Context) error {
				conn, err := s.CachePool(ctx)
				if err != nil {
					return err
				}
				defer conn.Close()
				return sqlerr.TranslateErr(ctx, conn.Ping(ctx).Err())
			}})
		}
	}

	return h
}

// CheckHealth answers as long as the process serves requests.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return response.JSON(c, "ok")
}

// CheckStatus pings every configured dependency. Any failure answers
// service_unavailable; the per-check detail is logged.
func (h *HealthHandler) CheckStatus(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	report := StatusReport{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]CheckResult, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		checkStart := time.Now()
		err := check.ping(ctx)
		cancel()

		elapsed := time.Since(checkStart)
		result := CheckResult{Status: "healthy", ResponseTime: elapsed.String()}

		if err != nil {
			result.Status = "unhealthy"
			report.Status = "unhealthy"
			logger.Error().
				Err(err).
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordHealthEvent(map[string]any{
				"check_type":       check.name,
				"operation":        "health_check",
				"error_type":       check.name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
		} else {
			logger.Debug().
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check passed")
		}

		report.Checks[check.name] = result
	}

	if report.Status != "healthy" {
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Interface("checks", report.Checks).
			Msg("health check failed")

		h.recordHealthEvent(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
		return errs.ErrServiceUnavailable
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return response.JSON(c, report)
}

func (h *HealthHandler) recordHealthEvent(attrs map[string]any) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}
	app.RecordCustomEvent("HealthCheckError", attrs)
}
