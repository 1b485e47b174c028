package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Validatable is implemented by request payloads that validate themselves,
// usually by running validator.Struct on their tags.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a validation issue that tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// FieldError is one field-level problem, as logged.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// BindAndValidate binds the request into payload (a pointer) and validates
// it. Any failure is errs.ErrBadRequest; details go to the request log.
func BindAndValidate(c echo.Context, payload Validatable) error {
	logger := zerolog.Ctx(c.Request().Context())

	if err := c.Bind(payload); err != nil {
		logger.Warn().Err(err).Msg("request binding failed")
		return errs.ErrBadRequest
	}

	if err := payload.Validate(); err != nil {
		fieldErrors := ExtractFieldErrors(err)
		arr := zerolog.Arr()
		for _, fe := range fieldErrors {
			arr.Str(fe.Field + " " + fe.Error)
		}
		logger.Warn().Array("field_errors", arr).Msg("request validation failed")
		return errs.ErrBadRequest
	}

	return nil
}

var titleCaser = cases.Title(language.English)

// humanize turns "nick_name" or "NickName" into "Nick Name". Acronyms such
// as "ID" stay together.
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r == '_' {
			b.WriteRune(' ')
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' && field[i-1] >= 'a' && field[i-1] <= 'z' {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(b.String())
}

// ExtractFieldErrors converts validator or custom errors into FieldErrors.
// Any other error becomes a single entry without a field.
func ExtractFieldErrors(err error) []FieldError {
	var fieldErrors []FieldError

	switch e := err.(type) {
	case CustomValidationErrors:
		for _, ce := range e {
			fieldErrors = append(fieldErrors, FieldError{Field: humanize(ce.Field), Error: ce.Message})
		}
		return fieldErrors
	case validator.ValidationErrors:
	default:
		return []FieldError{{Error: err.Error()}}
	}

	for _, err := range err.(validator.ValidationErrors) {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "gt":
			msg = fmt.Sprintf("must be greater than %s", err.Param())

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "email":
			msg = "must be a valid email address"

		case "e164":
			msg = "must be a valid phone number with country code"

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s:%s", err.Tag(), err.Param())
			} else {
				msg = err.Tag()
			}
		}

		fieldErrors = append(fieldErrors, FieldError{
			Field: humanize(err.Field()),
			Error: msg,
		})
	}

	return fieldErrors
}
