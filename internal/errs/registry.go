package errs

// SuccessCode is the err_no of every successful response.
const (
	SuccessCode    int64 = 10000
	SuccessMessage       = "success"
)

// Client-visible messages. Entries of the same family share one message so the
// wire never reveals which internal branch failed; the distinct codes exist for
// log correlation.
const (
	msgBadRequest     = "Bad Request Params"
	msgUnauthorized   = "Unauthorized"
	msgNotFound       = "Record Not Found"
	msgConflict       = "Resource Conflict"
	msgUnavailable    = "Service Unavailable"
	msgInternal       = "Server Internal Error"
	msgNotImplemented = "Not Implemented"
)

const (
	NameBadRequest               Name = "bad_request"
	NameInvalidUserID            Name = "invalid_user_id"
	NameNotImplemented           Name = "not_implemented"
	NameRedisClient              Name = "redis_client"
	NameDbInvalidArgument        Name = "db_invalid_argument"
	NameDbConfiguration          Name = "db_configuration"
	NameDbDataConflict           Name = "db_data_conflict"
	NameDbDataLengthExceeded     Name = "db_data_length_exceeded"
	NameDbNumericRange           Name = "db_numeric_range"
	NameDbRequiredField          Name = "db_required_field"
	NameDbForeignKeyConstraint   Name = "db_foreign_key_constraint"
	NameDbTableNotFound          Name = "db_table_not_found"
	NameDbGeneric                Name = "db_generic"
	NameDbUnknown                Name = "db_unknown"
	NameDbIo                     Name = "db_io"
	NameDbTls                    Name = "db_tls"
	NameDbProtocol               Name = "db_protocol"
	NameDbRowNotFound            Name = "db_row_not_found"
	NameDbTypeNotFound           Name = "db_type_not_found"
	NameDbColumnIndexOutOfBounds Name = "db_column_index_out_of_bounds"
	NameDbColumnNotFound         Name = "db_column_not_found"
	NameDbColumnDecode           Name = "db_column_decode"
	NameDbEncode                 Name = "db_encode"
	NameDbDecode                 Name = "db_decode"
	NameDbDriver                 Name = "db_driver"
	NameDbPoolTimeout            Name = "db_pool_timeout"
	NameDbPoolClosed             Name = "db_pool_closed"
	NameDbWorkerCrashed          Name = "db_worker_crashed"
	NameDbMigration              Name = "db_migration"
	NameDbInvalidSavePoint       Name = "db_invalid_save_point"
	NameDbBeginFailed            Name = "db_begin_failed"
	NameDbUnknownError           Name = "db_unknown_error"
	NameDbPoolExhausted          Name = "db_pool_exhausted"
	NameServiceUnavailable       Name = "service_unavailable"
	NameUpstreamCall             Name = "upstream_call"
	NameUnmarshalJSON            Name = "unmarshal_json"
)

var (
	ErrBadRequest     = Condition{NameBadRequest, 14000, BadRequest, msgBadRequest}
	ErrInvalidUserID  = Condition{NameInvalidUserID, 20000, Unauthorized, msgUnauthorized}
	ErrNotImplemented = Condition{NameNotImplemented, 50000, NotImplemented, msgNotImplemented}
	ErrRedisClient    = Condition{NameRedisClient, 50100, Internal, msgInternal}

	ErrDbInvalidArgument        = Condition{NameDbInvalidArgument, 50200, Internal, msgInternal}
	ErrDbConfiguration          = Condition{NameDbConfiguration, 50201, Internal, msgInternal}
	ErrDbDataConflict           = Condition{NameDbDataConflict, 50202, Conflict, msgConflict}
	ErrDbDataLengthExceeded     = Condition{NameDbDataLengthExceeded, 50203, BadRequest, msgBadRequest}
	ErrDbNumericRange           = Condition{NameDbNumericRange, 50204, BadRequest, msgBadRequest}
	ErrDbRequiredField          = Condition{NameDbRequiredField, 50205, BadRequest, msgBadRequest}
	ErrDbForeignKeyConstraint   = Condition{NameDbForeignKeyConstraint, 50206, BadRequest, msgBadRequest}
	ErrDbTableNotFound          = Condition{NameDbTableNotFound, 50207, Internal, msgInternal}
	ErrDbGeneric                = Condition{NameDbGeneric, 50208, Internal, msgInternal}
	ErrDbUnknown                = Condition{NameDbUnknown, 50209, Internal, msgInternal}
	ErrDbIo                     = Condition{NameDbIo, 50210, Internal, msgInternal}
	ErrDbTls                    = Condition{NameDbTls, 50211, Internal, msgInternal}
	ErrDbProtocol               = Condition{NameDbProtocol, 50212, Internal, msgInternal}
	ErrDbRowNotFound            = Condition{NameDbRowNotFound, 50213, NotFound, msgNotFound}
	ErrDbTypeNotFound           = Condition{NameDbTypeNotFound, 50214, Internal, msgInternal}
	ErrDbColumnIndexOutOfBounds = Condition{NameDbColumnIndexOutOfBounds, 50215, Internal, msgInternal}
	ErrDbColumnNotFound         = Condition{NameDbColumnNotFound, 50216, Internal, msgInternal}
	ErrDbColumnDecode           = Condition{NameDbColumnDecode, 50217, Internal, msgInternal}
	ErrDbEncode                 = Condition{NameDbEncode, 50218, Internal, msgInternal}
	ErrDbDecode                 = Condition{NameDbDecode, 50219, Internal, msgInternal}
	ErrDbDriver                 = Condition{NameDbDriver, 50220, Internal, msgInternal}
	ErrDbPoolTimeout            = Condition{NameDbPoolTimeout, 50221, ServiceUnavailable, msgUnavailable}
	ErrDbPoolClosed             = Condition{NameDbPoolClosed, 50222, ServiceUnavailable, msgUnavailable}
	ErrDbWorkerCrashed          = Condition{NameDbWorkerCrashed, 50223, Internal, msgInternal}
	ErrDbMigration              = Condition{NameDbMigration, 50224, Internal, msgInternal}
	ErrDbInvalidSavePoint       = Condition{NameDbInvalidSavePoint, 50225, Internal, msgInternal}
	ErrDbBeginFailed            = Condition{NameDbBeginFailed, 50226, Internal, msgInternal}
	ErrDbUnknownError           = Condition{NameDbUnknownError, 50227, Internal, msgInternal}
	ErrDbPoolExhausted          = Condition{NameDbPoolExhausted, 50228, ServiceUnavailable, msgUnavailable}

	ErrServiceUnavailable = Condition{NameServiceUnavailable, 50300, ServiceUnavailable, msgUnavailable}

	ErrUpstreamCall  = Condition{NameUpstreamCall, 50500, Internal, msgInternal}
	ErrUnmarshalJSON = Condition{NameUnmarshalJSON, 50501, Internal, msgInternal}
)

// table is the complete registry, in code order. It is never mutated after
// package initialisation.
var table = []Condition{
	ErrBadRequest,
	ErrInvalidUserID,
	ErrNotImplemented,
	ErrRedisClient,
	ErrDbInvalidArgument,
	ErrDbConfiguration,
	ErrDbDataConflict,
	ErrDbDataLengthExceeded,
	ErrDbNumericRange,
	ErrDbRequiredField,
	ErrDbForeignKeyConstraint,
	ErrDbTableNotFound,
	ErrDbGeneric,
	ErrDbUnknown,
	ErrDbIo,
	ErrDbTls,
	ErrDbProtocol,
	ErrDbRowNotFound,
	ErrDbTypeNotFound,
	ErrDbColumnIndexOutOfBounds,
	ErrDbColumnNotFound,
	ErrDbColumnDecode,
	ErrDbEncode,
	ErrDbDecode,
	ErrDbDriver,
	ErrDbPoolTimeout,
	ErrDbPoolClosed,
	ErrDbWorkerCrashed,
	ErrDbMigration,
	ErrDbInvalidSavePoint,
	ErrDbBeginFailed,
	ErrDbUnknownError,
	ErrDbPoolExhausted,
	ErrServiceUnavailable,
	ErrUpstreamCall,
	ErrUnmarshalJSON,
}

var byName = func() map[Name]Condition {
	m := make(map[Name]Condition, len(table))
	for _, c := range table {
		if _, dup := m[c.Name]; dup {
			panic("errs: duplicate condition name " + string(c.Name))
		}
		m[c.Name] = c
	}
	return m
}()

// Lookup returns the registry entry for name.
//
// Lookup is total: a name that is not part of the registry resolves to
// ErrDbUnknownError rather than a zero value.
func Lookup(name Name) Condition {
	if c, ok := byName[name]; ok {
		return c
	}
	return ErrDbUnknownError
}

// All returns a copy of the registry in code order.
func All() []Condition {
	out := make([]Condition, len(table))
	copy(out, table)
	return out
}
