package normalization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"churn-feature-lab/internal/table"
)

// DateLayout is the only accepted calendar text form (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ErrSchema is matched by every *SchemaError via errors.Is.
var ErrSchema = errors.New("schema error")

// SchemaError reports a missing column or a cell that does not match
// the expected type. Row is 1-based and zero when the error is column-level.
type SchemaError struct {
	Column string
	Row    int
	Value  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema error: column %q row %d value %q: %s", e.Column, e.Row, e.Value, e.Reason)
	}
	return fmt.Sprintf("schema error: column %q: %s", e.Column, e.Reason)
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// RequireColumns fails with a *SchemaError naming every absent column.
func RequireColumns(t *table.Table, columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{
			Column: strings.Join(missing, ", "),
			Reason: "required column absent",
		}
	}
	return nil
}

// DatedTable is a raw table plus parsed calendar columns.
// Dates[column][i] is the parsed value of row i.
type DatedTable struct {
	*table.Table
	Dates map[string][]time.Time
}

// Date returns the parsed calendar value of (row, column).
func (d *DatedTable) Date(row int, column string) (time.Time, bool) {
	values, ok := d.Dates[column]
	if !ok || row < 0 || row >= len(values) {
		return time.Time{}, false
	}
	return values[row], true
}

// ParseDateColumns parses each named column as YYYY-MM-DD.
// The source table is left untouched. Any absent column or malformed
// value fails the whole table; no partial result is returned.
func ParseDateColumns(t *table.Table, columns []string) (*DatedTable, error) {
	if err := RequireColumns(t, columns...); err != nil {
		return nil, err
	}

	dates := make(map[string][]time.Time, len(columns))
	for _, column := range columns {
		idx := t.ColumnIndex(column)
		values := make([]time.Time, len(t.Rows))
		for i, row := range t.Rows {
			parsed, err := ParseDate(row[idx])
			if err != nil {
				return nil, &SchemaError{
					Column: column,
					Row:    i + 1,
					Value:  row[idx],
					Reason: "expected date in YYYY-MM-DD form",
				}
			}
			values[i] = parsed
		}
		dates[column] = values
	}

	return &DatedTable{Table: t, Dates: dates}, nil
}

// ParseDate parses one YYYY-MM-DD value as a UTC calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}
