package sqlerr

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
	"github.com/redis/go-redis/v9"
)

// go-redis keeps its pool errors in an internal package, so they can only be
// recognised by text.
const (
	redisPoolTimeout   = "redis: connection pool timeout"
	redisPoolExhausted = "redis: connection pool exhausted"
)

// pgx reports row/struct mismatches and unregistered types as plain
// fmt errors. Checked with Contains because pgx wraps them in ScanArgError.
var pgxRowShapes = []struct {
	text string
	kind Kind
}{
	{"cannot find field ", KindColumnNotFound},
	{"struct doesn't have corresponding row field ", KindColumnNotFound},
	{"number of field descriptions must equal number of ", KindColumnIndexOutOfBounds},
	{" values, but dst struct has only ", KindColumnIndexOutOfBounds},
	{"unknown type (OID ", KindTypeNotFound},
}

// Classify reduces a native error to a Failure.
//
// Precedence: explicit Mark tags, configuration errors, "no row", context
// expiry, pool state, engine errors (SQLSTATE or Redis reply), pgx row shape
// errors, decode errors, TLS, transport I/O. Anything else is KindUnknown.
func Classify(err error) Failure {
	if err == nil {
		return Failure{Kind: KindUnknown}
	}

	var pgErr *pgconn.PgError
	hasPgErr := errors.As(err, &pgErr)

	var marked *markedError
	if errors.As(err, &marked) {
		f := Failure{Kind: marked.kind}
		if hasPgErr {
			f.VendorCode = pgErr.Code
		}
		return f
	}

	var cfgErr *ConfigError
	var parseErr *pgconn.ParseConfigError
	if errors.As(err, &cfgErr) || errors.As(err, &parseErr) {
		return Failure{Kind: KindConfiguration}
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows), errors.Is(err, redis.Nil):
		return Failure{Kind: KindRowNotFound}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Failure{Kind: KindPoolTimeout}
	case errors.Is(err, puddle.ErrClosedPool), errors.Is(err, redis.ErrClosed):
		return Failure{Kind: KindPoolClosed}
	case errors.Is(err, puddle.ErrNotAvailable):
		return Failure{Kind: KindPoolExhausted}
	case errors.Is(err, pgx.ErrTxClosed), errors.Is(err, pgx.ErrTxCommitRollback):
		return Failure{Kind: KindDriver}
	}

	switch err.Error() {
	case redisPoolTimeout:
		return Failure{Kind: KindPoolTimeout}
	case redisPoolExhausted:
		return Failure{Kind: KindPoolExhausted}
	}

	if hasPgErr {
		return Failure{Kind: KindDatabase, VendorCode: pgErr.Code}
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return Failure{Kind: KindCacheReply, VendorCode: redisReplyCode(redisErr.Error())}
	}

	msg := err.Error()
	for _, shape := range pgxRowShapes {
		if strings.Contains(msg, shape.text) {
			return Failure{Kind: shape.kind}
		}
	}

	var scanErr pgx.ScanArgError
	if errors.As(err, &scanErr) {
		return Failure{Kind: KindColumnDecode}
	}

	if isTLSError(err) {
		return Failure{Kind: KindTls}
	}

	if isIOError(err) {
		return Failure{Kind: KindIo}
	}

	return Failure{Kind: KindUnknown}
}

// redisReplyCode extracts the error prefix of a Redis reply, e.g. "WRONGTYPE"
// from "WRONGTYPE Operation against a key holding the wrong kind of value".
func redisReplyCode(msg string) string {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var authorityErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &certErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}

func isIOError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	return errors.As(err, &connectErr) || errors.As(err, &netErr)
}
