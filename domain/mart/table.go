package mart

import (
	"strconv"
	"strings"

	"ga4dash/domain/core"
)

// Record is one mart row keyed by column name
type Record map[string]string

// Table is a fully materialized mart table
type Table struct {
	Name    core.MartKey `json:"name"`
	Source  string       `json:"source"`
	Columns []string     `json:"columns"`
	Records []Record     `json:"records"`
}

// HasColumn reports whether the table carries column
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// RequireColumns returns ErrColumnNotFound for the first missing column
func (t *Table) RequireColumns(columns ...string) error {
	for _, c := range columns {
		if c == "" {
			continue
		}
		if !t.HasColumn(c) {
			return core.NewColumnNotFoundError(t.Name.String() + "." + c)
		}
	}
	return nil
}

// Find returns the first record whose column contains substr, case-insensitively
func (t *Table) Find(column, substr string) (Record, bool) {
	needle := strings.ToLower(substr)
	for _, r := range t.Records {
		if strings.Contains(strings.ToLower(r[column]), needle) {
			return r, true
		}
	}
	return nil, false
}

// String returns the trimmed value of column
func (r Record) String(column string) (string, error) {
	v, ok := r[column]
	if !ok {
		return "", core.NewColumnNotFoundError(column)
	}
	return strings.TrimSpace(v), nil
}

// Float parses column as a float. Thousands separators and a trailing
// percent sign are tolerated.
func (r Record) Float(column string) (float64, error) {
	raw, err := r.String(column)
	if err != nil {
		return 0, err
	}
	clean := strings.TrimSuffix(strings.ReplaceAll(raw, ",", ""), "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return 0, core.NewValueError(column, raw, err)
	}
	return f, nil
}

// Int parses column as an integer; integral floats such as "1200.0" are accepted
func (r Record) Int(column string) (int, error) {
	f, err := r.Float(column)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, core.NewValueError(column, r[column], strconv.ErrSyntax)
	}
	return int(f), nil
}
