package sqlerr

import (
	"bytes"
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replyError mimics a Redis server error reply.
type replyError string

func (e replyError) Error() string { return string(e) }
func (replyError) RedisError()     {}

func pgError(code string) error {
	return &pgconn.PgError{
		Severity: "ERROR",
		Code:     code,
		Message:  "duplicate key value violates unique constraint \"users_nick_name_key\"",
	}
}

func testContext(buf *bytes.Buffer) context.Context {
	logger := zerolog.New(buf)
	return logger.WithContext(context.Background())
}

func TestVendorCodeTable(t *testing.T) {
	tests := []struct {
		code string
		want errs.Condition
	}{
		{"23000", errs.ErrDbDataConflict},
		{"23505", errs.ErrDbDataConflict},
		{"22001", errs.ErrDbDataLengthExceeded},
		{"22003", errs.ErrDbNumericRange},
		{"23502", errs.ErrDbRequiredField},
		{"23503", errs.ErrDbForeignKeyConstraint},
		{"42S02", errs.ErrDbTableNotFound},
		{"40001", errs.ErrDbGeneric},
		{"XX000", errs.ErrDbGeneric},
		{"", errs.ErrDbUnknown},
	}
	for _, tt := range tests {
		t.Run("code "+tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionForVendorCode(tt.code))
			assert.Equal(t, tt.want, Translate(context.Background(), pgError(tt.code)))
		})
	}
}

func TestVendorCodeClasses(t *testing.T) {
	assert.Equal(t, errs.Conflict, Translate(context.Background(), pgError("23000")).Class)
	assert.Equal(t, errs.Conflict, Translate(context.Background(), pgError("23505")).Class)
	assert.Equal(t, errs.Internal, Translate(context.Background(), pgError("42S02")).Class)
	assert.Equal(t, errs.Internal, Translate(context.Background(), pgError("99999")).Class)
	assert.Equal(t, errs.BadRequest, Translate(context.Background(), pgError("23503")).Class)
}

func TestTranslateShapes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Condition
	}{
		{"config error", &ConfigError{Pool: "relational", Field: "dsn", Reason: "is required"}, errs.ErrDbConfiguration},
		{"pgx no rows", pgx.ErrNoRows, errs.ErrDbRowNotFound},
		{"wrapped no rows", fmt.Errorf("users by id: %w", pgx.ErrNoRows), errs.ErrDbRowNotFound},
		{"sql no rows", sql.ErrNoRows, errs.ErrDbRowNotFound},
		{"redis nil", redis.Nil, errs.ErrDbRowNotFound},
		{"deadline", context.DeadlineExceeded, errs.ErrDbPoolTimeout},
		{"canceled", context.Canceled, errs.ErrDbPoolTimeout},
		{"redis pool timeout", errors.New(redisPoolTimeout), errs.ErrDbPoolTimeout},
		{"redis pool exhausted", errors.New(redisPoolExhausted), errs.ErrDbPoolExhausted},
		{"puddle not available", puddle.ErrNotAvailable, errs.ErrDbPoolExhausted},
		{"puddle closed", puddle.ErrClosedPool, errs.ErrDbPoolClosed},
		{"redis closed", redis.ErrClosed, errs.ErrDbPoolClosed},
		{"tx closed", pgx.ErrTxClosed, errs.ErrDbDriver},
		{"scan arg", pgx.ScanArgError{ColumnIndex: 2, Err: errors.New("cannot scan text into int")}, errs.ErrDbColumnDecode},
		{"tls", &tls.CertificateVerificationError{Err: errors.New("expired")}, errs.ErrDbTls},
		{"net op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, errs.ErrDbIo},
		{"unexpected eof", io.ErrUnexpectedEOF, errs.ErrDbIo},
		{"redis wrongtype", replyError("WRONGTYPE Operation against a key holding the wrong kind of value"), errs.ErrRedisClient},
		{"unclassified", errors.New("something odd"), errs.ErrDbUnknownError},
		{"marked begin", Mark(KindBeginFailed, errors.New("conn busy")), errs.ErrDbBeginFailed},
		{"marked migration", Mark(KindMigration, pgError("42P07")), errs.ErrDbMigration},
		{"marked encode", Mark(KindEncode, errors.New("msgpack: unsupported type")), errs.ErrDbEncode},
		{"marked decode", Mark(KindDecode, errors.New("msgpack: invalid code")), errs.ErrDbDecode},
		{"marked save point", Mark(KindInvalidSavePoint, errors.New("bad savepoint")), errs.ErrDbInvalidSavePoint},
		{"marked worker", Mark(KindWorkerCrashed, errors.New("panic")), errs.ErrDbWorkerCrashed},
		{"marked protocol", Mark(KindProtocol, errors.New("unexpected message")), errs.ErrDbProtocol},
		{"marked column", Mark(KindColumnNotFound, errors.New("no column nick")), errs.ErrDbColumnNotFound},
		{"marked index", Mark(KindColumnIndexOutOfBounds, errors.New("index 7 len 3")), errs.ErrDbColumnIndexOutOfBounds},
		{"marked type", Mark(KindTypeNotFound, errors.New("type citext")), errs.ErrDbTypeNotFound},
		{"marked argument", Mark(KindInvalidArgument, errors.New("bad arg")), errs.ErrDbInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(context.Background(), tt.err))
		})
	}
}

func TestClassifyPgxRowShapes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Condition
	}{
		{"struct field missing from row", errors.New("cannot find field Phone in returned row"), errs.ErrDbColumnNotFound},
		{"row column missing from struct", errors.New("struct doesn't have corresponding row field email"), errs.ErrDbColumnNotFound},
		{"scan destination count", errors.New("number of field descriptions must equal number of destinations, got 9 and 8"), errs.ErrDbColumnIndexOutOfBounds},
		{"positional struct too small", errors.New("got 9 values, but dst struct has only 8 fields"), errs.ErrDbColumnIndexOutOfBounds},
		{
			"unknown type inside scan error",
			pgx.ScanArgError{ColumnIndex: 2, Err: errors.New("cannot scan unknown type (OID 16385) in binary format into *string")},
			errs.ErrDbTypeNotFound,
		},
		{
			"other scan error",
			pgx.ScanArgError{ColumnIndex: 0, Err: errors.New("cannot scan NULL into *string")},
			errs.ErrDbColumnDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(context.Background(), tt.err))
		})
	}
}

func TestTranslateIsDeterministic(t *testing.T) {
	inputs := []error{pgError("23505"), pgx.ErrNoRows, context.DeadlineExceeded, errors.New("x"), replyError("ERR boom")}
	for _, err := range inputs {
		first := Translate(context.Background(), err)
		for range 10 {
			assert.Equal(t, first, Translate(context.Background(), err))
		}
	}
}

func TestTranslatePassesConditionsThrough(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)

	err := fmt.Errorf("repository: %w", errs.ErrDbRowNotFound)
	assert.Equal(t, errs.ErrDbRowNotFound, Translate(ctx, err))
	assert.Empty(t, buf.String(), "an already translated condition must not be logged twice")
}

func TestTranslateLogsDetailButReturnsFixedMessage(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)

	cond := Translate(ctx, pgError("23000"))

	require.Equal(t, errs.ErrDbDataConflict, cond)
	assert.NotContains(t, cond.Message, "duplicate key")
	assert.Contains(t, buf.String(), "duplicate key value violates unique constraint")
	assert.Contains(t, buf.String(), `"vendor_code":"23000"`)
	assert.Contains(t, buf.String(), `"condition":"db_data_conflict"`)
}

func TestTranslateNil(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, errs.ErrDbUnknownError, Translate(testContext(&buf), nil))
	assert.NotEmpty(t, buf.String())
	assert.NoError(t, TranslateErr(context.Background(), nil))
}

func TestTranslateErr(t *testing.T) {
	err := TranslateErr(context.Background(), pgx.ErrNoRows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrDbRowNotFound))
	assert.False(t, errors.Is(err, pgx.ErrNoRows), "native error must not survive translation")
}

func TestMark(t *testing.T) {
	assert.Nil(t, Mark(KindEncode, nil))

	inner := errors.New("boom")
	marked := Mark(KindMigration, inner)
	assert.True(t, errors.Is(marked, inner))
	assert.Equal(t, KindMigration, Classify(marked).Kind)
}

func TestClassifyKeepsVendorCodeOfMarkedEngineError(t *testing.T) {
	f := Classify(Mark(KindMigration, pgError("42P07")))
	assert.Equal(t, KindMigration, f.Kind)
	assert.Equal(t, "42P07", f.VendorCode)
}

func TestRedisReplyCode(t *testing.T) {
	assert.Equal(t, "WRONGTYPE", redisReplyCode("WRONGTYPE Operation against a key"))
	assert.Equal(t, "", redisReplyCode(""))
	f := Classify(replyError("NOSCRIPT No matching script"))
	assert.Equal(t, KindCacheReply, f.Kind)
	assert.Equal(t, "NOSCRIPT", f.VendorCode)
}

func TestEveryKindResolves(t *testing.T) {
	for kind := range kindNames {
		cond := Failure{Kind: kind, VendorCode: "23505"}.Condition()
		assert.False(t, cond.IsZero(), kind.String())
	}
	assert.Equal(t, errs.ErrDbUnknownError, Failure{Kind: Kind(999)}.Condition())
	assert.Equal(t, "unknown", Kind(999).String())
}

func TestConfigErrorOmitsValues(t *testing.T) {
	err := &ConfigError{Pool: "relational", Field: "dsn", Reason: "is not a valid connection string"}
	assert.Equal(t, "invalid relational pool configuration: dsn is not a valid connection string", err.Error())
}
