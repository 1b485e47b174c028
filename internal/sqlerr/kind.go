package sqlerr

import (
	"fmt"

	"github.com/deppfellow/restcore/internal/errs"
)

// Kind is the closed set of failure shapes the translator understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindInvalidArgument
	KindDatabase
	KindIo
	KindTls
	KindProtocol
	KindRowNotFound
	KindTypeNotFound
	KindColumnNotFound
	KindColumnIndexOutOfBounds
	KindColumnDecode
	KindEncode
	KindDecode
	KindDriver
	KindPoolTimeout
	KindPoolExhausted
	KindPoolClosed
	KindWorkerCrashed
	KindMigration
	KindInvalidSavePoint
	KindBeginFailed
	KindCacheReply
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindConfiguration:          "configuration",
	KindInvalidArgument:        "invalid_argument",
	KindDatabase:               "database",
	KindIo:                     "io",
	KindTls:                    "tls",
	KindProtocol:               "protocol",
	KindRowNotFound:            "row_not_found",
	KindTypeNotFound:           "type_not_found",
	KindColumnNotFound:         "column_not_found",
	KindColumnIndexOutOfBounds: "column_index_out_of_bounds",
	KindColumnDecode:           "column_decode",
	KindEncode:                 "encode",
	KindDecode:                 "decode",
	KindDriver:                 "driver",
	KindPoolTimeout:            "pool_timeout",
	KindPoolExhausted:          "pool_exhausted",
	KindPoolClosed:             "pool_closed",
	KindWorkerCrashed:          "worker_crashed",
	KindMigration:              "migration",
	KindInvalidSavePoint:       "invalid_save_point",
	KindBeginFailed:            "begin_failed",
	KindCacheReply:             "cache_reply",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// kindConditions maps every non-engine shape 1:1 to its registry entry.
// KindDatabase is resolved through the vendor code table instead.
var kindConditions = map[Kind]errs.Condition{
	KindUnknown:                errs.ErrDbUnknownError,
	KindConfiguration:          errs.ErrDbConfiguration,
	KindInvalidArgument:        errs.ErrDbInvalidArgument,
	KindIo:                     errs.ErrDbIo,
	KindTls:                    errs.ErrDbTls,
	KindProtocol:               errs.ErrDbProtocol,
	KindRowNotFound:            errs.ErrDbRowNotFound,
	KindTypeNotFound:           errs.ErrDbTypeNotFound,
	KindColumnNotFound:         errs.ErrDbColumnNotFound,
	KindColumnIndexOutOfBounds: errs.ErrDbColumnIndexOutOfBounds,
	KindColumnDecode:           errs.ErrDbColumnDecode,
	KindEncode:                 errs.ErrDbEncode,
	KindDecode:                 errs.ErrDbDecode,
	KindDriver:                 errs.ErrDbDriver,
	KindPoolTimeout:            errs.ErrDbPoolTimeout,
	KindPoolExhausted:          errs.ErrDbPoolExhausted,
	KindPoolClosed:             errs.ErrDbPoolClosed,
	KindWorkerCrashed:          errs.ErrDbWorkerCrashed,
	KindMigration:              errs.ErrDbMigration,
	KindInvalidSavePoint:       errs.ErrDbInvalidSavePoint,
	KindBeginFailed:            errs.ErrDbBeginFailed,
	KindCacheReply:             errs.ErrRedisClient,
}

// Failure is a classified native error.
type Failure struct {
	Kind Kind

	// VendorCode is the engine error code: the SQLSTATE for Postgres, the
	// reply prefix for Redis. Empty when the engine supplied none.
	VendorCode string
}

// Condition resolves the failure to its registry entry.
func (f Failure) Condition() errs.Condition {
	if f.Kind == KindDatabase {
		return conditionForVendorCode(f.VendorCode)
	}
	if cond, ok := kindConditions[f.Kind]; ok {
		return cond
	}
	return errs.ErrDbUnknownError
}

// markedError tags an error with a Kind that its native type cannot express,
// e.g. a failed BEGIN or a msgpack encode failure.
type markedError struct {
	kind Kind
	err  error
}

func (e *markedError) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *markedError) Unwrap() error {
	return e.err
}

// Mark wraps err so that Classify reports kind for it. Mark(kind, nil) is nil.
func Mark(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &markedError{kind: kind, err: err}
}

// ConfigError reports a pool configuration that failed validation.
//
// Field names the offending knob. The value itself is never included, since
// it may be a DSN carrying credentials.
type ConfigError struct {
	Pool   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s pool configuration: %s %s", e.Pool, e.Field, e.Reason)
}
