package sqlerr

import "github.com/deppfellow/restcore/internal/errs"

// vendorCode binds one engine error code to a registry entry.
type vendorCode struct {
	Code      string
	Condition errs.Condition
}

// vendorCodes is evaluated top to bottom; the first matching code wins.
//
// 23000 is the generic MySQL/ANSI integrity violation, 23505 the Postgres
// unique violation. 42S02 is the MySQL "base table not found" state.
var vendorCodes = []vendorCode{
	{"23000", errs.ErrDbDataConflict},
	{"23505", errs.ErrDbDataConflict},
	{"22001", errs.ErrDbDataLengthExceeded},
	{"22003", errs.ErrDbNumericRange},
	{"23502", errs.ErrDbRequiredField},
	{"23503", errs.ErrDbForeignKeyConstraint},
	{"42S02", errs.ErrDbTableNotFound},
}

// conditionForVendorCode resolves an engine error. An absent code maps to
// ErrDbUnknown, an unrecognised one to ErrDbGeneric.
func conditionForVendorCode(code string) errs.Condition {
	if code == "" {
		return errs.ErrDbUnknown
	}
	for _, vc := range vendorCodes {
		if vc.Code == code {
			return vc.Condition
		}
	}
	return errs.ErrDbGeneric
}
