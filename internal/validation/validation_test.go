package validation

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createUserRequest struct {
	NickName string `json:"nick_name" validate:"required,min=2,max=16"`
	Age      int    `json:"age" validate:"max=150"`
}

func (r *createUserRequest) Validate() error {
	return validator.New().Struct(r)
}

func newContext(body string, buf *bytes.Buffer) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(zerolog.New(buf).WithContext(req.Context()))
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindAndValidateAcceptsValidPayload(t *testing.T) {
	var buf bytes.Buffer
	req := &createUserRequest{}

	err := BindAndValidate(newContext(`{"nick_name":"ada","age":36}`, &buf), req)

	require.NoError(t, err)
	assert.Equal(t, "ada", req.NickName)
	assert.Equal(t, 36, req.Age)
}

func TestBindAndValidateRejectsMalformedJSON(t *testing.T) {
	var buf bytes.Buffer

	err := BindAndValidate(newContext(`{"nick_name":`, &buf), &createUserRequest{})

	assert.True(t, errors.Is(err, errs.ErrBadRequest))
	assert.Contains(t, buf.String(), "request binding failed")
}

func TestBindAndValidateLogsFieldErrors(t *testing.T) {
	var buf bytes.Buffer

	err := BindAndValidate(newContext(`{"nick_name":"a","age":200}`, &buf), &createUserRequest{})

	assert.True(t, errors.Is(err, errs.ErrBadRequest))
	assert.Contains(t, buf.String(), "Nick Name must be at least 2 characters")
	assert.Contains(t, buf.String(), "Age must not exceed 150")
}

func TestExtractFieldErrorsFromCustomErrors(t *testing.T) {
	fieldErrors := ExtractFieldErrors(CustomValidationErrors{{Field: "user_id", Message: "is unknown"}})

	require.Len(t, fieldErrors, 1)
	assert.Equal(t, FieldError{Field: "User Id", Error: "is unknown"}, fieldErrors[0])
}

func TestExtractFieldErrorsFromPlainError(t *testing.T) {
	fieldErrors := ExtractFieldErrors(errors.New("nope"))
	assert.Equal(t, []FieldError{{Error: "nope"}}, fieldErrors)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Nick Name", humanize("NickName"))
	assert.Equal(t, "Nick Name", humanize("nick_name"))
	assert.Equal(t, "Id", humanize("ID"))
}
