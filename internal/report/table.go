// Package report turns target range evaluations into plain tables that the
// terminal renderer and the file writers in iamio consume.
package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

var (
	// ErrNoWriter is returned by NoWriter.
	ErrNoWriter = errors.New("no output writer configured")
	// ErrColumnMismatch is returned when tables that are combined do not
	// share the requested column.
	ErrColumnMismatch = errors.New("table column mismatch")
	// ErrIndexMismatch is returned when tables that are combined have
	// different index levels.
	ErrIndexMismatch = errors.New("table index mismatch")
)

// Row is one table row: index labels followed by cells. A cell is a bool,
// a float64 or nil when the value is missing.
type Row struct {
	Keys  []string `json:"keys" yaml:"keys"`
	Cells []any    `json:"cells" yaml:"cells"`
}

// Table is an indexed table with named columns.
type Table struct {
	Name    string        `json:"name" yaml:"name"`
	Index   []dataset.Dim `json:"index" yaml:"index"`
	Columns []string      `json:"columns" yaml:"columns"`
	Rows    []Row         `json:"rows" yaml:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the column titled title, or -1.
func (t *Table) ColumnIndex(title string) int { return slices.Index(t.Columns, title) }

// Cell returns the cell in row i under the column titled title.
func (t *Table) Cell(i int, title string) (any, bool) {
	c := t.ColumnIndex(title)
	if c < 0 || i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[i].Cells[c], true
}

// Header returns index level names followed by column titles.
func (t *Table) Header() []string {
	out := make([]string, 0, len(t.Index)+len(t.Columns))
	for _, d := range t.Index {
		out = append(out, d.String())
	}
	return append(out, t.Columns...)
}

// DropLevels returns a copy of t without the given index levels. Rows that
// become indistinguishable are reported as an error.
func DropLevels(t *Table, dims ...dataset.Dim) (*Table, error) {
	keep := make([]int, 0, len(t.Index))
	out := &Table{Name: t.Name, Columns: slices.Clone(t.Columns)}
	for i, d := range t.Index {
		if slices.Contains(dims, d) {
			continue
		}
		keep = append(keep, i)
		out.Index = append(out.Index, d)
	}
	for _, d := range dims {
		if !slices.Contains(t.Index, d) {
			return nil, fmt.Errorf("%w: %s", dataset.ErrMissingLevel, d)
		}
	}
	seen := make(map[string]bool, len(t.Rows))
	for _, r := range t.Rows {
		keys := make([]string, len(keep))
		for j, i := range keep {
			keys[j] = r.Keys[i]
		}
		k := strings.Join(keys, "\x1f")
		if seen[k] {
			return nil, fmt.Errorf("%w: dropping levels leaves duplicate row %v", dataset.ErrDuplicateKey, keys)
		}
		seen[k] = true
		out.Rows = append(out.Rows, Row{Keys: keys, Cells: slices.Clone(r.Cells)})
	}
	return out, nil
}

// Unstack pivots the level d of s into columns. Column order follows the
// sorted distinct labels of d, years sorted numerically. Combinations
// absent from s are nil cells.
func Unstack(name string, s *dataset.Series, d dataset.Dim) (*Table, error) {
	pos := s.Level(d)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingLevel, d)
	}
	cols := s.Distinct(d)
	if d == dataset.Year {
		dataset.SortYears(cols)
	} else {
		slices.Sort(cols)
	}
	colPos := make(map[string]int, len(cols))
	for i, c := range cols {
		colPos[c] = i
	}

	out := &Table{Name: name, Columns: cols}
	for _, l := range s.Levels() {
		if l != d {
			out.Index = append(out.Index, l)
		}
	}
	rowPos := map[string]int{}
	for i := 0; i < s.Len(); i++ {
		labels := s.Labels(i)
		keys := append(slices.Clone(labels[:pos]), labels[pos+1:]...)
		k := strings.Join(keys, "\x1f")
		r, ok := rowPos[k]
		if !ok {
			r = len(out.Rows)
			rowPos[k] = r
			out.Rows = append(out.Rows, Row{Keys: keys, Cells: make([]any, len(cols))})
		}
		out.Rows[r].Cells[colPos[labels[pos]]] = s.Value(i)
	}
	return out, nil
}

// Writer writes a set of tables to some destination.
type Writer interface {
	WriteTables(tables []*Table) error
}

// NoWriter is the Writer used when no output destination is configured.
type NoWriter struct{}

// WriteTables implements Writer.
func (NoWriter) WriteTables([]*Table) error { return ErrNoWriter }

// MaxSheetNameLength is the longest worksheet name spreadsheet
// applications accept.
const MaxSheetNameLength = 31

var sheetNameReplacer = strings.NewReplacer(
	"'", "`",
	"*", "x",
	"/", "-",
	`\`, "_",
	":", ";",
	"?", "¿",
	"[", "|",
	"]", "|",
)

// SheetName makes name usable as a worksheet or file name: characters that
// spreadsheets reject are substituted and the result is truncated to
// MaxSheetNameLength characters.
func SheetName(name string) string {
	name = sheetNameReplacer.Replace(name)
	if r := []rune(name); len(r) > MaxSheetNameLength {
		name = string(r[:MaxSheetNameLength])
	}
	return name
}
