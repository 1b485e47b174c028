package middleware

import (
	"bytes"
	"compress/gzip"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/restcore/internal/config"
	"github.com/deppfellow/restcore/internal/errs"
	"github.com/deppfellow/restcore/internal/server"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T) (*echo.Echo, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := &server.Server{
		Config: &config.Config{Server: config.ServerConfig{CORSAllowedOrigins: []string{"*"}}},
		Logger: &logger,
	}

	m := NewMiddlewares(s)
	e := echo.New()
	e.HTTPErrorHandler = m.Global.GlobalErrorHandler
	e.Use(RequestID(), m.ContextEnhancer.EnhanceContext())

	return e, &buf
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestUnknownRouteIsNotImplemented(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := serve(e, http.MethodGet, "/nowhere")

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.JSONEq(t, `{"err_no":50000,"err_msg":"Not Implemented"}`, rec.Body.String())
}

func TestConditionsKeepTheirStatus(t *testing.T) {
	tests := []struct {
		cond   errs.Condition
		status int
	}{
		{errs.ErrBadRequest, http.StatusBadRequest},
		{errs.ErrInvalidUserID, http.StatusUnauthorized},
		{errs.ErrDbRowNotFound, http.StatusNotFound},
		{errs.ErrDbDataConflict, http.StatusConflict},
		{errs.ErrDbPoolTimeout, http.StatusServiceUnavailable},
		{errs.ErrDbTableNotFound, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.cond.Name), func(t *testing.T) {
			e, _ := newTestEcho(t)
			e.GET("/x", func(echo.Context) error { return tt.cond })

			rec := serve(e, http.MethodGet, "/x")

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), `"data"`)
			assert.Contains(t, rec.Body.String(), tt.cond.Message)
		})
	}
}

func TestRawDriverErrorIsSanitized(t *testing.T) {
	e, buf := newTestEcho(t)
	e.GET("/x", func(echo.Context) error {
		return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"users_nick_name_key\""}
	})

	rec := serve(e, http.MethodGet, "/x")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"err_no":50202,"err_msg":"Resource Conflict"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "users_nick_name_key", "detail stays in the server log")
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	e, _ := newTestEcho(t)
	e.GET("/x", func(echo.Context) error { return errors.New("/etc/secret.conf: permission denied") })

	rec := serve(e, http.MethodGet, "/x")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "Server Internal Error")
}

func TestHeadRequestsGetNoBody(t *testing.T) {
	e, _ := newTestEcho(t)
	e.HEAD("/x", func(echo.Context) error { return errs.ErrDbPoolClosed })

	rec := serve(e, http.MethodHead, "/x")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	e, _ := newTestEcho(t)
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, GetRequestID(c)) })

	rec := serve(e, http.MethodGet, "/x")
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", maxRequestIDLength+1))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEqual(t, strings.Repeat("a", maxRequestIDLength+1), rec.Header().Get(RequestIDHeader))
}

func TestContextEnhancerReachesRequestContext(t *testing.T) {
	e, buf := newTestEcho(t)
	e.GET("/x", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("from deep inside")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	e.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "from deep inside")
	assert.Contains(t, buf.String(), `"request_id":"trace-me"`)
}

func TestGetLoggerWithoutEnhancer(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.NotNil(t, GetLogger(c))
}

func TestDecompressInflatesRequestBody(t *testing.T) {
	logger := zerolog.Nop()
	m := NewMiddlewares(&server.Server{Config: &config.Config{}, Logger: &logger})

	e := echo.New()
	e.Use(m.Global.Decompress())
	e.POST("/x", func(c echo.Context) error {
		var payload struct {
			NickName string `json:"nick_name"`
		}
		if err := c.Bind(&payload); err != nil {
			return err
		}
		return c.String(http.StatusOK, payload.NickName)
	})

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	_, err := zw.Write([]byte(`{"nick_name":"ada"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/x", &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", rec.Body.String())
}

func TestOutcomeAttributes(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())

	require.NoError(t, c.NoContent(http.StatusOK))
	attrs := outcomeAttributes(c, nil)
	assert.Equal(t, map[string]any{"http.status_code": http.StatusOK}, attrs)

	attrs = outcomeAttributes(c, &pgconn.PgError{Code: "23505"})
	assert.Equal(t, http.StatusConflict, attrs["http.status_code"], "status of the envelope, not the unwritten response")
	assert.Equal(t, errs.ErrDbDataConflict.Code, attrs["error.err_no"])
	assert.Equal(t, string(errs.ErrDbDataConflict.Name), attrs["error.condition"])
	assert.Equal(t, errs.Conflict.String(), attrs["error.class"])

	attrs = outcomeAttributes(c, echo.ErrNotFound)
	assert.Equal(t, http.StatusNotImplemented, attrs["http.status_code"])
}

func TestRequestAttributes(t *testing.T) {
	logger := zerolog.Nop()
	tm := NewTracingMiddleware(&server.Server{Config: &config.Config{Primary: config.Primary{Env: "staging"}}, Logger: &logger}, nil)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("User-Agent", "curl/8")
	c := echo.New().NewContext(req, httptest.NewRecorder())

	attrs := tm.requestAttributes(c)
	assert.Equal(t, "curl/8", attrs["http.user_agent"])
	assert.Equal(t, "staging", attrs["service.environment"])
	assert.NotContains(t, attrs, "request.id")
}
