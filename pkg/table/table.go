// Package table reads the rows that cards are generated from.
//
// Two formats are supported: comma-separated text (.csv) and Excel
// workbooks (.xlsx, .xlsm), of which the first sheet is read. The first
// record holds the column names. Every cell is kept as its display text.
package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/cardforge/pkg/errors"
)

// Row maps column names to cell text.
type Row map[string]string

// Get returns the cell for column, or "" when the row has no such column.
func (r Row) Get(column string) string {
	return r[column]
}

// Table is a header plus its data rows in file order.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

type format int

const (
	formatCSV format = iota
	formatXLSX
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return formatXLSX, nil
	}
	return 0, errors.New(errors.ErrCodeDataUnreadable, "unsupported data file %q (want .csv or .xlsx)", filepath.Base(path))
}

// Open reads every row of the file at path.
func Open(path string) (*Table, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	var records [][]string
	switch f {
	case formatXLSX:
		records, err = readXLSX(path, -1)
	default:
		records, err = readCSV(path, -1)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataUnreadable, err, "read %s", path)
	}
	return build(records), nil
}

// Columns returns the column names of the file at path without reading
// its data rows.
func Columns(path string) ([]string, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	var records [][]string
	switch f {
	case formatXLSX:
		records, err = readXLSX(path, 1)
	default:
		records, err = readCSV(path, 1)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataUnreadable, err, "read %s", path)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return headerNames(records[0]), nil
}

func build(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}
	t := &Table{Columns: headerNames(records[0])}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(t.Columns))
		for i, name := range t.Columns {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// headerNames trims the header cells, names empty ones "Unnamed: <index>"
// and suffixes repeated names with ".1", ".2" and so on.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
