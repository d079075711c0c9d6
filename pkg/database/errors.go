package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind classifies a failure. Callers test for it with errors.Is against the
// matching sentinel.
type Kind uint8

const (
	KindExecution Kind = iota
	KindConnectivity
	KindConstraint
	KindNotFound
	KindPartial
	KindInvalidFilter
)

var (
	ErrExecution     = errors.New("statement execution failed")
	ErrConnectivity  = errors.New("database connectivity failure")
	ErrConstraint    = errors.New("constraint violation")
	ErrNotFound      = errors.New("not found")
	ErrPartial       = errors.New("partial multi-step failure")
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrUnsupported is returned for operations the dialect cannot perform.
	ErrUnsupported = errors.New("not supported by database dialect")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConnectivity:
		return ErrConnectivity
	case KindConstraint:
		return ErrConstraint
	case KindNotFound:
		return ErrNotFound
	case KindPartial:
		return ErrPartial
	case KindInvalidFilter:
		return ErrInvalidFilter
	default:
		return ErrExecution
	}
}

func (k Kind) String() string { return k.sentinel().Error() }

// Error is a tagged data-access failure carrying the entity and operation it
// happened in and the underlying driver error.
type Error struct {
	Kind   Kind
	Entity string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Entity != "" {
		b.WriteString(e.Entity)
		b.WriteByte(' ')
	}
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil && e.Err != e.Kind.sentinel() {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind's sentinel. A constraint violation is also a statement
// execution failure.
func (e *Error) Is(target error) bool {
	if target == ErrExecution && e.Kind == KindConstraint {
		return true
	}
	return target == e.Kind.sentinel()
}

// Wrap tags err with the entity and operation. An existing *Error keeps its
// kind; anything else is classified from the driver error.
func Wrap(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		cp := *de
		cp.Entity, cp.Op = entity, op
		return &cp
	}
	return &Error{Kind: classify(err), Entity: entity, Op: op, Err: err}
}

// NotFound builds the error services return when a keyed lookup matched no row.
func NotFound(entity, op string) error {
	return &Error{Kind: KindNotFound, Entity: entity, Op: op, Err: ErrNotFound}
}

func asError(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return kindForSQLState(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return kindForSQLState(pgErr.Code)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// extended result codes keep the primary code in the low byte
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return KindConstraint
		}
		return KindExecution
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return KindConnectivity
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnectivity
	}
	return KindExecution
}

func kindForSQLState(code string) Kind {
	switch {
	case strings.HasPrefix(code, "23"):
		return KindConstraint
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "28"), code == "57P01":
		return KindConnectivity
	default:
		return KindExecution
	}
}
