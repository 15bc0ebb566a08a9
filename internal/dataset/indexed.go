package dataset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Indexed is an ordered collection of values keyed by a tuple of labels,
// one label per level. Keys are unique. Row order is insertion order.
//
// Indexed values are not safe for concurrent mutation; every derived
// operation returns a new value and leaves its receiver untouched.
type Indexed[T any] struct {
	levels []Dim
	labels [][]string
	values []T
	pos    map[string]int
}

// Series is an Indexed of numbers. Mask is an Indexed of flags.
type (
	Series = Indexed[float64]
	Mask   = Indexed[bool]
)

// NewIndexed returns an empty container with the given levels.
func NewIndexed[T any](levels ...Dim) *Indexed[T] {
	return &Indexed[T]{
		levels: slices.Clone(levels),
		pos:    make(map[string]int),
	}
}

// NewSeries returns an empty Series with the given levels.
func NewSeries(levels ...Dim) *Series { return NewIndexed[float64](levels...) }

// NewMask returns an empty Mask with the given levels.
func NewMask(levels ...Dim) *Mask { return NewIndexed[bool](levels...) }

func rowKey(labels []string) string { return strings.Join(labels, "\x1f") }

// Append adds a row. It fails with ErrDuplicateKey when the key exists.
func (s *Indexed[T]) Append(labels []string, v T) error {
	if len(labels) != len(s.levels) {
		return fmt.Errorf("got %d labels for %d levels (%s)", len(labels), len(s.levels), joinDims(s.levels))
	}
	k := rowKey(labels)
	if _, dup := s.pos[k]; dup {
		return fmt.Errorf("%w: (%s)", ErrDuplicateKey, strings.Join(labels, ", "))
	}
	s.pos[k] = len(s.values)
	s.labels = append(s.labels, slices.Clone(labels))
	s.values = append(s.values, v)
	return nil
}

// MustAppend is Append for construction code whose keys are known to be unique.
func (s *Indexed[T]) MustAppend(labels []string, v T) {
	if err := s.Append(labels, v); err != nil {
		panic(err)
	}
}

// Len returns the number of rows.
func (s *Indexed[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Levels returns a copy of the level names.
func (s *Indexed[T]) Levels() []Dim { return slices.Clone(s.levels) }

// Level returns the position of d among the levels, or -1.
func (s *Indexed[T]) Level(d Dim) int { return slices.Index(s.levels, d) }

// HasLevel reports whether d is one of the levels.
func (s *Indexed[T]) HasLevel(d Dim) bool { return s.Level(d) >= 0 }

// Labels returns a copy of the key of row i.
func (s *Indexed[T]) Labels(i int) []string { return slices.Clone(s.labels[i]) }

// Label returns the label of row i on level d, or "" when d is not a level.
func (s *Indexed[T]) Label(i int, d Dim) string {
	l := s.Level(d)
	if l < 0 {
		return ""
	}
	return s.labels[i][l]
}

// Value returns the value of row i.
func (s *Indexed[T]) Value(i int) T { return s.values[i] }

// Values returns a copy of all values in row order.
func (s *Indexed[T]) Values() []T { return slices.Clone(s.values) }

// Lookup returns the value stored under labels.
func (s *Indexed[T]) Lookup(labels []string) (T, bool) {
	i, ok := s.pos[rowKey(labels)]
	if !ok {
		var zero T
		return zero, false
	}
	return s.values[i], true
}

// Clone returns a deep copy.
func (s *Indexed[T]) Clone() *Indexed[T] {
	out := NewIndexed[T](s.levels...)
	out.labels = make([][]string, len(s.labels))
	for i, l := range s.labels {
		out.labels[i] = slices.Clone(l)
	}
	out.values = slices.Clone(s.values)
	for k, v := range s.pos {
		out.pos[k] = v
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (s *Indexed[T]) Filter(keep func(labels []string, v T) bool) *Indexed[T] {
	out := NewIndexed[T](s.levels...)
	for i := range s.values {
		if keep(s.labels[i], s.values[i]) {
			out.MustAppend(s.labels[i], s.values[i])
		}
	}
	return out
}

// Distinct returns the labels on level d in first-seen order.
func (s *Indexed[T]) Distinct(d Dim) []string {
	l := s.Level(d)
	if l < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, lab := range s.labels {
		if !seen[lab[l]] {
			seen[lab[l]] = true
			out = append(out, lab[l])
		}
	}
	return out
}

// Relabel rewrites the labels on level d. Collisions fail with ErrDuplicateKey.
func (s *Indexed[T]) Relabel(d Dim, fn func(string) string) (*Indexed[T], error) {
	l := s.Level(d)
	if l < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingLevel, d)
	}
	out := NewIndexed[T](s.levels...)
	for i := range s.values {
		lab := slices.Clone(s.labels[i])
		lab[l] = fn(lab[l])
		if err := out.Append(lab, s.values[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Drop removes level d. Rows that collapse onto the same key fail with
// ErrDuplicateKey.
func (s *Indexed[T]) Drop(d Dim) (*Indexed[T], error) {
	l := s.Level(d)
	if l < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingLevel, d)
	}
	levels := slices.Delete(slices.Clone(s.levels), l, l+1)
	out := NewIndexed[T](levels...)
	for i := range s.values {
		lab := slices.Delete(slices.Clone(s.labels[i]), l, l+1)
		if err := out.Append(lab, s.values[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reorder permutes the levels. levels must name every existing level once.
func (s *Indexed[T]) Reorder(levels ...Dim) (*Indexed[T], error) {
	if len(levels) != len(s.levels) {
		return nil, fmt.Errorf("reorder: got %d levels, series has %d", len(levels), len(s.levels))
	}
	idx := make([]int, len(levels))
	for i, d := range levels {
		idx[i] = s.Level(d)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingLevel, d)
		}
		if slices.Index(levels[:i], d) >= 0 {
			return nil, fmt.Errorf("reorder: level %s listed twice", d)
		}
	}
	out := NewIndexed[T](levels...)
	for i := range s.values {
		lab := make([]string, len(idx))
		for j, k := range idx {
			lab[j] = s.labels[i][k]
		}
		out.MustAppend(lab, s.values[i])
	}
	return out, nil
}

// Group is a set of rows sharing every label except the grouped-over level.
type Group struct {
	// Labels is the shared key, with the grouped-over level removed.
	Labels []string
	// Rows are row positions in the source, in source order.
	Rows []int
}

// GroupBy groups rows by all levels except d, in first-seen order.
func (s *Indexed[T]) GroupBy(d Dim) ([]Group, error) {
	l := s.Level(d)
	if l < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingLevel, d)
	}
	index := make(map[string]int)
	var groups []Group
	for i, lab := range s.labels {
		key := slices.Delete(slices.Clone(lab), l, l+1)
		k := rowKey(key)
		g, ok := index[k]
		if !ok {
			g = len(groups)
			index[k] = g
			groups = append(groups, Group{Labels: key})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, nil
}

// Map applies fn to every row and returns a container of the results with
// the same index.
func Map[T, U any](s *Indexed[T], fn func(labels []string, v T) U) *Indexed[U] {
	out := NewIndexed[U](s.levels...)
	for i := range s.values {
		out.MustAppend(s.labels[i], fn(s.labels[i], s.values[i]))
	}
	return out
}

// SortYears sorts year labels numerically; labels that do not parse sort
// after the numeric ones, lexically.
func SortYears(years []string) {
	slices.SortFunc(years, compareYear)
}

func compareYear(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai - bi
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
