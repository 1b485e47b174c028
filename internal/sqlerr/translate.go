package sqlerr

import (
	"context"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/rs/zerolog"
)

// Translate converts a native store error into its registry Condition.
//
// Behavior:
//   - err already carrying a Condition: returned unchanged, nothing logged
//     (it was logged where it was first translated).
//   - any other error: classified, logged with its full detail through the
//     logger attached to ctx, then replaced by the sanitized Condition.
//   - nil: ErrDbUnknownError, logged as a caller bug.
//
// The native error never escapes this function.
func Translate(ctx context.Context, err error) errs.Condition {
	log := zerolog.Ctx(ctx)

	if err == nil {
		log.Error().Msg("database error translation requested for a nil error")
		return errs.ErrDbUnknownError
	}

	if cond, ok := errs.FromError(err); ok {
		return cond
	}

	failure := Classify(err)
	cond := failure.Condition()

	event := log.Error().
		Err(err).
		Str("error_kind", failure.Kind.String()).
		Str("condition", string(cond.Name)).
		Int64("err_no", cond.Code)
	if failure.VendorCode != "" {
		event = event.Str("vendor_code", failure.VendorCode)
	}
	event.Msg("database error")

	return cond
}

// TranslateErr is Translate for call sites that return error. It keeps nil
// as nil, so it can wrap a call result directly:
//
//	return sqlerr.TranslateErr(ctx, row.Scan(&u.ID))
func TranslateErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return Translate(ctx, err)
}
