package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/criterion"
	"github.com/iamcompact/iamvet-cli/internal/dataset"
	"github.com/iamcompact/iamvet-cli/internal/target"
)

// Column identifies one of the per-key outputs of a target range.
type Column int

const (
	InRange Column = iota
	Distance
	Value
)

// Columns lists every Column in table order.
var Columns = []Column{InRange, Distance, Value}

func (c Column) String() string {
	switch c {
	case InRange:
		return "in_range"
	case Distance:
		return "distance"
	case Value:
		return "value"
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// Title returns the column heading used in tables.
func (c Column) Title() string {
	switch c {
	case InRange:
		return "Is in target range"
	case Distance:
		return "Rel. distance from target"
	case Value:
		return "Value"
	}
	return c.String()
}

// ParseColumn accepts a column name ("in_range", "distance", "value") or
// its title.
func ParseColumn(s string) (Column, error) {
	n := strings.TrimSpace(s)
	for _, c := range Columns {
		if strings.EqualFold(n, c.String()) || strings.EqualFold(n, c.Title()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown report column %q (expected in_range, distance or value)", s)
}

// FromEvaluation builds a table from ev with the given columns, all three
// when none are given. Without a range the in-range cells are nil.
func FromEvaluation(ev *target.Evaluation, cols ...Column) *Table {
	if len(cols) == 0 {
		cols = Columns
	}
	t := &Table{Name: ev.Name, Index: ev.Values.Levels()}
	for _, c := range cols {
		t.Columns = append(t.Columns, c.Title())
	}
	for i := 0; i < ev.Values.Len(); i++ {
		row := Row{Keys: ev.Values.Labels(i), Cells: make([]any, len(cols))}
		for j, c := range cols {
			switch c {
			case InRange:
				if ev.InRange != nil {
					row.Cells[j] = ev.InRange.Value(i)
				}
			case Distance:
				row.Cells[j] = ev.Distance.Value(i)
			case Value:
				row.Cells[j] = ev.Values.Value(i)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// TargetRangeTable evaluates tr on subject and tabulates the result.
func TargetRangeTable(tr *target.TargetRange, subject *dataset.Dataset, cols ...Column) (*Table, error) {
	ev, err := tr.Evaluate(subject)
	if err != nil {
		return nil, err
	}
	return FromEvaluation(ev, cols...), nil
}

// FullComparison tabulates the comparison behind a timeseries criterion
// before aggregation, with years as columns.
func FullComparison(c *criterion.TimeseriesRef, subject *dataset.Dataset) (*Table, error) {
	s, err := c.Compare(subject)
	if err != nil {
		return nil, err
	}
	return Unstack(c.Name(), s, dataset.Year)
}

// NameSource selects what names the columns of a summary table.
type NameSource int

const (
	// DictKeys names summary columns by the keys tables were added under.
	DictKeys NameSource = iota
	// CriteriaNames names summary columns by the criterion names.
	CriteriaNames
)

type entry struct {
	key       string
	criterion string
	table     *Table
}

// Multi is an ordered collection of target range tables keyed by name.
type Multi struct {
	entries []entry
}

// NewMulti returns an empty collection.
func NewMulti() *Multi { return &Multi{} }

// Add appends table under key. criterionName is used by CriteriaNames
// summaries and defaults to the table name.
func (m *Multi) Add(key, criterionName string, t *Table) error {
	if m.index(key) >= 0 {
		return fmt.Errorf("%w: table %q added twice", dataset.ErrDuplicateKey, key)
	}
	if criterionName == "" {
		criterionName = t.Name
	}
	m.entries = append(m.entries, entry{key: key, criterion: criterionName, table: t})
	return nil
}

func (m *Multi) index(key string) int {
	return slices.IndexFunc(m.entries, func(e entry) bool { return e.key == key })
}

// Len returns the number of tables.
func (m *Multi) Len() int { return len(m.entries) }

// Keys returns the keys in insertion order.
func (m *Multi) Keys() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key
	}
	return out
}

// Table returns the table stored under key.
func (m *Multi) Table(key string) (*Table, bool) {
	i := m.index(key)
	if i < 0 {
		return nil, false
	}
	return m.entries[i].table, true
}

// Tables returns the tables in insertion order.
func (m *Multi) Tables() []*Table {
	out := make([]*Table, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.table
	}
	return out
}

// MultiTargetRange evaluates every target range on subject. Keys are the
// target range names.
func MultiTargetRange(subject *dataset.Dataset, trs []*target.TargetRange, cols ...Column) (*Multi, error) {
	m := NewMulti()
	for _, tr := range trs {
		t, err := TargetRangeTable(tr, subject, cols...)
		if err != nil {
			return nil, fmt.Errorf("target range %q: %w", tr.Name(), err)
		}
		if err := m.Add(tr.Name(), tr.Criterion().Name(), t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Summary pivots col across all tables into one table with a column per
// table. Rows are the union of all table rows in first-seen order; a key
// missing from a table gives a nil cell. All tables must share their index
// levels.
func (m *Multi) Summary(col Column, names NameSource) (*Table, error) {
	out := &Table{Name: "Summary: " + col.Title()}
	if len(m.entries) == 0 {
		return out, nil
	}
	out.Index = slices.Clone(m.entries[0].table.Index)

	colPos := make([]int, len(m.entries))
	for i, e := range m.entries {
		if !slices.Equal(e.table.Index, out.Index) {
			return nil, fmt.Errorf("%w: %q is indexed by %v, %q by %v",
				ErrIndexMismatch, m.entries[0].key, out.Index, e.key, e.table.Index)
		}
		colPos[i] = e.table.ColumnIndex(col.Title())
		if colPos[i] < 0 {
			return nil, fmt.Errorf("%w: %q has no %q column", ErrColumnMismatch, e.key, col.Title())
		}
		name := e.key
		if names == CriteriaNames {
			name = e.criterion
		}
		if slices.Contains(out.Columns, name) {
			return nil, fmt.Errorf("%w: summary column %q appears twice", dataset.ErrDuplicateKey, name)
		}
		out.Columns = append(out.Columns, name)
	}

	rowPos := map[string]int{}
	for i, e := range m.entries {
		for _, r := range e.table.Rows {
			k := strings.Join(r.Keys, "\x1f")
			p, ok := rowPos[k]
			if !ok {
				p = len(out.Rows)
				rowPos[k] = p
				out.Rows = append(out.Rows, Row{Keys: slices.Clone(r.Keys), Cells: make([]any, len(m.entries))})
			}
			out.Rows[p].Cells[i] = r.Cells[colPos[i]]
		}
	}
	return out, nil
}
