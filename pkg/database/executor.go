package database

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"reflect"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Conn is the connection an Executor runs on. *sqlx.Conn and *sqlx.DB both
// satisfy it.
type Conn interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ErrNoID is returned when an INSERT ... RETURNING statement produced no row.
var ErrNoID = errors.New("no id returned")

// Executor is the single path every statement takes. Statements use named
// parameters (:name) bound from a map or a db-tagged struct; a nil params
// value runs the statement verbatim.
//
// Reads run directly on the connection. Each mutating call runs in its own
// transaction unless the Executor is bound to one by InTx.
type Executor struct {
	conn     Conn
	tx       *sqlx.Tx
	bindType int
	logger   *zap.SugaredLogger
}

func NewExecutor(conn Conn, driverName string, logger *zap.SugaredLogger) *Executor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Executor{conn: conn, bindType: sqlx.BindType(driverName), logger: logger}
}

func (e *Executor) runner() queryer {
	if e.tx != nil {
		return e.tx
	}
	return e.conn
}

func (e *Executor) compile(stmt string, params any) (string, []any, error) {
	if params == nil {
		return stmt, nil, nil
	}
	q, args, err := sqlx.Named(stmt, params)
	if err != nil {
		return "", nil, &Error{Kind: KindExecution, Op: "bind", Err: err}
	}
	return sqlx.Rebind(e.bindType, q), args, nil
}

func (e *Executor) query(ctx context.Context, stmt string, params any) (*sqlx.Rows, error) {
	q, args, err := e.compile(stmt, params)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := e.runner().QueryxContext(ctx, q, args...)
	e.logger.Debugw("sql query", "stmt", q, "duration_ms", msSince(start), "err", err)
	if err != nil {
		return nil, asError(err)
	}
	return rows, nil
}

// Rows lazily maps the result of a read statement.
func (e *Executor) Rows(ctx context.Context, stmt string, params any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := e.query(ctx, stmt, params)
		if err != nil {
			yield(nil, err)
			return
		}
		for row, err := range MapRows(rows) {
			if !yield(row, asError(err)) {
				return
			}
		}
	}
}

// FetchAll returns every row of a read statement. Zero rows is an empty slice.
func (e *Executor) FetchAll(ctx context.Context, stmt string, params any) ([]Row, error) {
	out := []Row{}
	for row, err := range e.Rows(ctx, stmt, params) {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// FetchOne returns the first row, or nil and no error when nothing matched.
func (e *Executor) FetchOne(ctx context.Context, stmt string, params any) (Row, error) {
	for row, err := range e.Rows(ctx, stmt, params) {
		return row, err
	}
	return nil, nil
}

// Execute runs a mutating statement and returns the affected row count.
func (e *Executor) Execute(ctx context.Context, stmt string, params any) (int64, error) {
	var n int64
	err := e.InTx(ctx, func(tx *Executor) error {
		q, args, err := tx.compile(stmt, params)
		if err != nil {
			return err
		}
		start := time.Now()
		res, err := tx.tx.ExecContext(ctx, q, args...)
		if err != nil {
			e.logger.Debugw("sql exec", "stmt", q, "duration_ms", msSince(start), "err", err)
			return asError(err)
		}
		n, err = res.RowsAffected()
		e.logger.Debugw("sql exec", "stmt", q, "duration_ms", msSince(start), "rows", n)
		return asError(err)
	})
	return n, err
}

// ExecuteReturning runs an INSERT ... RETURNING statement and returns the
// generated identifier from its first column.
func (e *Executor) ExecuteReturning(ctx context.Context, stmt string, params any) (int64, error) {
	var id int64
	err := e.InTx(ctx, func(tx *Executor) error {
		rows, err := tx.query(ctx, stmt, params)
		if err != nil {
			return err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return asError(err)
			}
			return &Error{Kind: KindExecution, Err: ErrNoID}
		}
		if err := rows.Scan(&id); err != nil {
			return asError(err)
		}
		return asError(rows.Close())
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ExecuteMany runs one statement per batch inside a single transaction and
// returns the total affected row count. Any failure rolls back every batch.
func (e *Executor) ExecuteMany(ctx context.Context, stmt string, batches []any) (int64, error) {
	if len(batches) == 0 {
		return 0, nil
	}
	var total int64
	err := e.InTx(ctx, func(tx *Executor) error {
		q, _, err := tx.compile(stmt, batches[0])
		if err != nil {
			return err
		}
		prepared, err := tx.tx.PreparexContext(ctx, q)
		if err != nil {
			return asError(err)
		}
		defer prepared.Close()

		start := time.Now()
		for _, params := range batches {
			_, args, err := tx.compile(stmt, params)
			if err != nil {
				return err
			}
			res, err := prepared.ExecContext(ctx, args...)
			if err != nil {
				return asError(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return asError(err)
			}
			total += n
		}
		e.logger.Debugw("sql exec many", "stmt", q, "batches", len(batches), "rows", total, "duration_ms", msSince(start))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// InTx runs fn with an Executor bound to one transaction: commit when fn
// returns nil, rollback otherwise. An Executor already inside a transaction
// passes itself through, so nested calls join the outer transaction.
func (e *Executor) InTx(ctx context.Context, fn func(tx *Executor) error) error {
	if e.tx != nil {
		return fn(e)
	}
	tx, err := e.conn.BeginTxx(ctx, nil)
	if err != nil {
		return asError(err)
	}
	bound := &Executor{conn: e.conn, tx: tx, bindType: e.bindType, logger: e.logger}
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Warnw("rollback failed", "err", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return asError(err)
	}
	return nil
}

// Select decodes every row into T. T's db tags are the accepted columns,
// matched case-insensitively: a result column with no matching field is an
// error.
func Select[T any](ctx context.Context, e *Executor, stmt string, params any) ([]T, error) {
	rows, err := e.query(ctx, stmt, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	var dec *decoder
	for rows.Next() {
		if dec == nil {
			if dec, err = newDecoder(rows, reflect.TypeFor[T]()); err != nil {
				return nil, asError(err)
			}
		}
		var v T
		if err := dec.decode(rows, &v); err != nil {
			return nil, asError(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, asError(err)
	}
	return out, nil
}

// Get decodes the first row into T, or returns nil and no error when nothing
// matched.
func Get[T any](ctx context.Context, e *Executor, stmt string, params any) (*T, error) {
	rows, err := e.query(ctx, stmt, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, asError(rows.Err())
	}
	dec, err := newDecoder(rows, reflect.TypeFor[T]())
	if err != nil {
		return nil, asError(err)
	}
	var v T
	if err := dec.decode(rows, &v); err != nil {
		return nil, asError(err)
	}
	return &v, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
