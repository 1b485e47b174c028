package middleware

import (
	"net/http"
	"time"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/deppfellow/restcore/internal/response"
	"github.com/deppfellow/restcore/internal/server"
	"github.com/deppfellow/restcore/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RequestTimeout bounds every request. Pool checkouts inherit the deadline.
const RequestTimeout = 30 * time.Second

// GlobalMiddlewares groups the middleware every route runs through, plus the
// global error handler.
type GlobalMiddlewares struct {
	server       *server.Server
	availability *AvailabilityRecorder
}

func NewGlobalMiddlewares(s *server.Server, nrApp *newrelic.Application) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server:       s,
		availability: NewAvailabilityRecorder(nrApp),
	}
}

func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// RequestLogger writes one "API" line per request, with its level picked by
// the final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// When a handler returns an error the response is written later by
			// GlobalErrorHandler, so v.Status may still read 200.
			// https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = statusForError(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

func (global *GlobalMiddlewares) Gzip() echo.MiddlewareFunc {
	return middleware.Gzip()
}

// Decompress inflates gzip request bodies (Content-Encoding: gzip) before
// binding.
func (global *GlobalMiddlewares) Decompress() echo.MiddlewareFunc {
	return middleware.Decompress()
}

// Timeout puts a deadline on the request context. It does not interrupt a
// handler; blocking calls that honour the context (checkouts, queries) do.
func (global *GlobalMiddlewares) Timeout() echo.MiddlewareFunc {
	return middleware.ContextTimeout(RequestTimeout)
}

// conditionForHTTPError maps Echo's own errors into the registry. Unknown
// routes and methods answer not_implemented.
func conditionForHTTPError(echoErr *echo.HTTPError) errs.Condition {
	switch code := echoErr.Code; {
	case code == http.StatusNotFound, code == http.StatusMethodNotAllowed:
		return errs.ErrNotImplemented
	case code == http.StatusUnauthorized:
		return errs.ErrInvalidUserID
	case code == http.StatusServiceUnavailable:
		return errs.ErrServiceUnavailable
	case code >= 400 && code < 500:
		return errs.ErrBadRequest
	default:
		return errs.ErrDbUnknownError
	}
}

// conditionFor resolves err the way GlobalErrorHandler does, without
// logging, for code that needs the outcome before the handler writes it.
func conditionFor(err error) errs.Condition {
	if cond, ok := errs.FromError(err); ok {
		return cond
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return conditionForHTTPError(echoErr)
	}
	return sqlerr.Classify(err).Condition()
}

func statusForError(err error) int {
	return conditionFor(err).Status()
}

// GlobalErrorHandler is the final error funnel: every error becomes exactly
// one registry condition and is written as a failure envelope.
//
// Conditions pass through untouched. Echo errors are mapped by status.
// Anything else is a native failure that escaped translation and is
// translated (and logged) here.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	var cond errs.Condition
	var echoErr *echo.HTTPError

	switch {
	case errors.As(err, &cond):
	case errors.As(err, &echoErr):
		cond = conditionForHTTPError(echoErr)
	default:
		cond = sqlerr.Translate(c.Request().Context(), err)
	}

	logger := GetLogger(c)

	e := logger.Warn()
	if cond.Class == errs.Internal {
		e = logger.Error().Stack()
	}
	e.Err(err).
		Int("status", cond.Status()).
		Int64("err_no", cond.Code).
		Str("condition", string(cond.Name)).
		Msg(cond.Message)

	if cond.Class == errs.ServiceUnavailable {
		global.availability.RecordUnavailableHit(c.Path(), cond)
	}

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(cond.Status())
		return
	}
	_ = response.Error(c, cond)
}
