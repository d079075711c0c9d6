package database

import (
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

// fieldMapper names struct fields by their lower-cased db tag, or the
// lower-cased field name when untagged.
var fieldMapper = reflectx.NewMapperTagFunc("db", strings.ToLower, strings.ToLower)

// Row is one result row keyed by lower-cased column name. Values are whatever
// the driver returned.
type Row map[string]any

// MapRows yields one Row per result row and closes rows once iteration stops,
// including when the consumer breaks early.
func MapRows(rows *sqlx.Rows) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		defer rows.Close()
		for rows.Next() {
			row, err := scanRow(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func scanRow(rows *sqlx.Rows) (Row, error) {
	raw := make(map[string]any)
	if err := rows.MapScan(raw); err != nil {
		return nil, err
	}
	row := make(Row, len(raw))
	for k, v := range raw {
		row[strings.ToLower(k)] = v
	}
	return row, nil
}

// decoder scans rows into a struct type. Result columns are lower-cased
// before they are matched against the struct's fields, so decoding does not
// depend on the mapper of the connection the rows came from.
type decoder struct {
	columns []string
	fields  [][]int
	values  []any
}

func newDecoder(rows *sqlx.Rows, t reflect.Type) (*decoder, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for i, c := range columns {
		columns[i] = strings.ToLower(c)
	}
	fields := fieldMapper.TraversalsByName(t, columns)
	for i, f := range fields {
		if len(f) == 0 {
			return nil, fmt.Errorf("missing destination name %s in %s", columns[i], t)
		}
	}
	return &decoder{columns: columns, fields: fields, values: make([]any, len(columns))}, nil
}

func (d *decoder) decode(rows *sqlx.Rows, dest any) error {
	v := reflect.ValueOf(dest).Elem()
	for i, index := range d.fields {
		d.values[i] = reflectx.FieldByIndexes(v, index).Addr().Interface()
	}
	return rows.Scan(d.values...)
}
