package middleware

import (
	"github.com/deppfellow/restcore/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// TracingMiddleware ties New Relic transactions to the request pipeline.
// With a nil nrApp both middlewares pass requests through.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware opens one transaction per request and puts it in the
// request context for newrelic.FromContext.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing annotates the transaction with request identity and the
// resolved outcome, so APM and logs join on request.id and err_no.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			for key, value := range tm.requestAttributes(c) {
				txn.AddAttribute(key, value)
			}

			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			for key, value := range outcomeAttributes(c, err) {
				txn.AddAttribute(key, value)
			}

			return err
		}
	}
}

func (tm *TracingMiddleware) requestAttributes(c echo.Context) map[string]any {
	attrs := map[string]any{
		"http.real_ip":    c.RealIP(),
		"http.user_agent": c.Request().UserAgent(),
	}
	if requestID := GetRequestID(c); requestID != "" {
		attrs["request.id"] = requestID
	}
	if tm.server != nil && tm.server.Config != nil {
		attrs["service.environment"] = tm.server.Config.Primary.Env
	}
	return attrs
}

// outcomeAttributes reports the status the client will actually see. When
// the handler returned an error the response is not written yet, so the
// status comes from the condition the error resolves to.
func outcomeAttributes(c echo.Context, err error) map[string]any {
	if err == nil {
		return map[string]any{"http.status_code": c.Response().Status}
	}

	cond := conditionFor(err)
	return map[string]any{
		"http.status_code": cond.Status(),
		"error.err_no":     cond.Code,
		"error.condition":  string(cond.Name),
		"error.class":      cond.Class.String(),
	}
}
