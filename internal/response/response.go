// Package response is the single place where handler results become wire
// format: {"err_no", "err_msg", "data"}.
package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/deppfellow/restcore/internal/sqlerr"
	"github.com/labstack/echo/v4"
)

// Envelope wraps every response body.
//
// Data is a pointer so that "absent" and "zero value" stay distinct: a
// failure never carries data and omits the field, a success always carries
// it, even when the payload is 0, "" or an empty struct.
type Envelope[T any] struct {
	Code    int64  `json:"err_no"`
	Message string `json:"err_msg"`
	Data    *T     `json:"data,omitempty"`
}

// Success wraps v with the success code.
func Success[T any](v T) Envelope[T] {
	return Envelope[T]{
		Code:    errs.SuccessCode,
		Message: errs.SuccessMessage,
		Data:    &v,
	}
}

// Failure wraps a condition. The message is the condition's fixed one.
func Failure(c errs.Condition) Envelope[any] {
	return Envelope[any]{
		Code:    c.Code,
		Message: c.Message,
	}
}

func (e Envelope[T]) IsSuccess() bool {
	return e.Code == errs.SuccessCode
}

// Decode parses an envelope carrying a T payload.
func Decode[T any](body []byte) (Envelope[T], error) {
	var env Envelope[T]
	err := json.Unmarshal(body, &env)
	return env, err
}

// Wrap turns a handler result into an HTTP status and envelope.
//
// A nil err yields 200 and a success envelope. Otherwise err is translated
// (a Condition passes through unchanged) and its status class picks the
// HTTP status.
func Wrap[T any](ctx context.Context, v T, err error) (int, any) {
	if err != nil {
		cond := sqlerr.Translate(ctx, err)
		return cond.Status(), Failure(cond)
	}
	return http.StatusOK, Success(v)
}

// JSON writes v as a 200 success envelope.
func JSON[T any](c echo.Context, v T) error {
	status, body := Wrap(c.Request().Context(), v, nil)
	return c.JSON(status, body)
}

// Error writes err as a failure envelope with the matching status.
func Error(c echo.Context, err error) error {
	status, body := Wrap[any](c.Request().Context(), nil, err)
	return c.JSON(status, body)
}
