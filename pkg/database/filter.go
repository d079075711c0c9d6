package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is the column a named filter resolves to. Numeric fields match by
// equality on a parsed integer; the rest match a case-insensitive substring.
type Field struct {
	Column  string
	Numeric bool
}

// Filters is the allow-list of field selectors a listing accepts. Only its
// column values are ever placed in statement text.
type Filters map[string]Field

// Field looks up a selector by name.
func (f Filters) Field(name string) (Field, error) {
	field, ok := f[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Field{}, &Error{Kind: KindInvalidFilter, Err: fmt.Errorf("unknown field %q", name)}
	}
	return field, nil
}

// Predicate builds the WHERE predicate for selector name with the keyword bound
// as :keyword.
func (f Filters) Predicate(name, keyword string) (string, map[string]any, error) {
	field, err := f.Field(name)
	if err != nil {
		return "", nil, err
	}
	if field.Numeric {
		n, err := strconv.ParseInt(strings.TrimSpace(keyword), 10, 64)
		if err != nil {
			return "", nil, &Error{Kind: KindInvalidFilter, Err: fmt.Errorf("field %q expects an integer, got %q", name, keyword)}
		}
		return field.Column + " = :keyword", map[string]any{"keyword": n}, nil
	}
	return "LOWER(" + field.Column + ") LIKE :keyword", map[string]any{"keyword": Contains(keyword)}, nil
}

// Contains returns the lower-cased LIKE pattern matching keyword anywhere.
func Contains(keyword string) string {
	return "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
}
