package dataset

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/units"
)

// Point is one observation of a scenario variable.
type Point struct {
	Model    string  `json:"model" yaml:"model"`
	Scenario string  `json:"scenario" yaml:"scenario"`
	Region   string  `json:"region" yaml:"region"`
	Variable string  `json:"variable" yaml:"variable"`
	Unit     string  `json:"unit" yaml:"unit"`
	Year     int     `json:"year" yaml:"year"`
	Value    float64 `json:"value" yaml:"value"`
}

func (p Point) labels() []string {
	return []string{p.Model, p.Scenario, p.Region, p.Variable, p.Unit, strconv.Itoa(p.Year)}
}

// Dataset is an immutable set of scenario observations indexed by the six
// IAMC dimensions. Rows are kept sorted by model, scenario, region,
// variable, unit and year.
type Dataset struct {
	s *Series
}

// New builds a Dataset. Two points with the same key fail with ErrDuplicateKey.
func New(points []Point) (*Dataset, error) {
	s := NewSeries(IAMC...)
	for _, p := range points {
		if err := s.Append(p.labels(), p.Value); err != nil {
			return nil, err
		}
	}
	return &Dataset{s: sortIAMC(s)}, nil
}

// MustNew is New for literals in tests and examples.
func MustNew(points []Point) *Dataset {
	d, err := New(points)
	if err != nil {
		panic(err)
	}
	return d
}

// FromSeries builds a Dataset from a Series carrying all six IAMC levels,
// in any order. Year labels must be integers.
func FromSeries(s *Series) (*Dataset, error) {
	for _, d := range IAMC {
		if !s.HasLevel(d) {
			return nil, fmt.Errorf("%w: %s", ErrMissingLevel, d)
		}
	}
	if len(s.levels) != len(IAMC) {
		return nil, fmt.Errorf("series has %d levels, a dataset needs exactly %s", len(s.levels), joinDims(IAMC))
	}
	r, err := s.Reorder(IAMC...)
	if err != nil {
		return nil, err
	}
	yl := r.Level(Year)
	for i := range r.labels {
		if _, err := strconv.Atoi(r.labels[i][yl]); err != nil {
			return nil, fmt.Errorf("year label %q is not an integer", r.labels[i][yl])
		}
	}
	return &Dataset{s: sortIAMC(r)}, nil
}

func sortIAMC(s *Series) *Series {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	yl := s.Level(Year)
	sort.SliceStable(idx, func(a, b int) bool {
		la, lb := s.labels[idx[a]], s.labels[idx[b]]
		for l := range la {
			if l == yl {
				if c := compareYear(la[l], lb[l]); c != 0 {
					return c < 0
				}
				continue
			}
			if c := strings.Compare(la[l], lb[l]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	out := NewSeries(s.levels...)
	for _, i := range idx {
		out.MustAppend(s.labels[i], s.values[i])
	}
	return out
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return d.s.Len() }

// Empty reports whether the dataset holds no observations.
func (d *Dataset) Empty() bool { return d == nil || d.s.Len() == 0 }

// Series exposes the data as a Series with the IAMC levels. With copy set
// the caller owns the result; otherwise the returned Series is shared with
// the dataset and must be treated as read-only.
func (d *Dataset) Series(copy bool) *Series {
	if copy {
		return d.s.Clone()
	}
	return d.s
}

// Points returns all observations in index order.
func (d *Dataset) Points() []Point {
	out := make([]Point, d.s.Len())
	for i, lab := range d.s.labels {
		y, _ := strconv.Atoi(lab[5])
		out[i] = Point{
			Model: lab[0], Scenario: lab[1], Region: lab[2],
			Variable: lab[3], Unit: lab[4], Year: y,
			Value: d.s.values[i],
		}
	}
	return out
}

// Values returns the distinct labels present on dimension dim, sorted.
func (d *Dataset) Values(dim Dim) []string {
	out := d.s.Distinct(dim)
	if dim == Year {
		SortYears(out)
	} else {
		sort.Strings(out)
	}
	return out
}

// Years returns the distinct years, ascending.
func (d *Dataset) Years() []int {
	labels := d.Values(Year)
	out := make([]int, 0, len(labels))
	for _, l := range labels {
		y, _ := strconv.Atoi(l)
		out = append(out, y)
	}
	return out
}

// Filter keeps the rows matching f.
func (d *Dataset) Filter(f Filter) *Dataset {
	return &Dataset{s: d.s.Filter(func(labels []string, _ float64) bool { return f.Match(labels) })}
}

// Exclude drops the rows matching f.
func (d *Dataset) Exclude(f Filter) *Dataset {
	return &Dataset{s: d.s.Filter(func(labels []string, _ float64) bool { return !f.Match(labels) })}
}

// Rename maps labels on dimension dim. Labels missing from mapping are kept.
// A rename that merges two rows fails with ErrDuplicateKey.
func (d *Dataset) Rename(dim Dim, mapping map[string]string) (*Dataset, error) {
	if err := CheckDims(dim); err != nil {
		return nil, err
	}
	if dim == Year {
		for from, to := range mapping {
			if _, err := strconv.Atoi(to); err != nil {
				return nil, fmt.Errorf("rename %s %q: target %q is not a year", dim, from, to)
			}
		}
	}
	r, err := d.s.Relabel(dim, func(l string) string {
		if to, ok := mapping[l]; ok {
			return to
		}
		return l
	})
	if err != nil {
		return nil, fmt.Errorf("rename %s: %w", dim, err)
	}
	return &Dataset{s: sortIAMC(r)}, nil
}

// Concat joins datasets. Overlapping keys fail with ErrDuplicateKey.
func Concat(ds ...*Dataset) (*Dataset, error) {
	s := NewSeries(IAMC...)
	for _, d := range ds {
		if d == nil {
			continue
		}
		for i := range d.s.values {
			if err := s.Append(d.s.labels[i], d.s.values[i]); err != nil {
				return nil, fmt.Errorf("concat: %w", err)
			}
		}
	}
	return &Dataset{s: sortIAMC(s)}, nil
}

// UnitMapping returns the units used by each variable, sorted.
func (d *Dataset) UnitMapping() map[string][]string {
	out := make(map[string][]string)
	for _, lab := range d.s.labels {
		v, u := lab[3], lab[4]
		if !slices.Contains(out[v], u) {
			out[v] = append(out[v], u)
		}
	}
	for v := range out {
		sort.Strings(out[v])
	}
	return out
}

// ConvertUnit converts the rows of variable recorded in unit from into unit
// to. An empty variable converts every variable recorded in from.
func (d *Dataset) ConvertUnit(variable, from, to string) (*Dataset, error) {
	factor, err := units.Factor(from, to)
	if err != nil {
		return nil, err
	}
	from = units.Normalize(from)
	s := NewSeries(IAMC...)
	for i, lab := range d.s.labels {
		v := d.s.values[i]
		if (variable == "" || lab[3] == variable) && units.Normalize(lab[4]) == from {
			lab = slices.Clone(lab)
			lab[4] = to
			v *= factor
		}
		if err := s.Append(lab, v); err != nil {
			return nil, fmt.Errorf("convert %s to %s: %w", from, to, err)
		}
	}
	return &Dataset{s: sortIAMC(s)}, nil
}

// ConvertAll converts every row into unit to.
func (d *Dataset) ConvertAll(to string) (*Dataset, error) {
	out := d
	for _, u := range d.Values(Unit) {
		if u == to {
			continue
		}
		next, err := out.ConvertUnit("", u, to)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// MatchUnits converts the rows of df into the unit match uses for the same
// key on dims (variable when dims is empty). Keys match does not carry are
// left alone. A key for which match holds more than one unit fails with
// ErrAmbiguousUnit, but only when df has rows under that key.
func MatchUnits(df, match *Dataset, dims ...Dim) (*Dataset, error) {
	if len(dims) == 0 {
		dims = []Dim{Variable}
	}
	if err := CheckDims(dims...); err != nil {
		return nil, err
	}
	if slices.Contains(dims, Unit) {
		return nil, fmt.Errorf("match units: %s cannot be a match dimension", Unit)
	}
	pos := make([]int, len(dims))
	for i, dim := range dims {
		pos[i] = df.s.Level(dim)
	}
	keyOf := func(lab []string) string {
		k := make([]string, len(pos))
		for i, p := range pos {
			k[i] = lab[p]
		}
		return rowKey(k)
	}

	target := make(map[string][]string)
	for _, lab := range match.s.labels {
		k := keyOf(lab)
		if !slices.Contains(target[k], lab[4]) {
			target[k] = append(target[k], lab[4])
		}
	}

	s := NewSeries(IAMC...)
	for i, lab := range df.s.labels {
		v := df.s.values[i]
		want, ok := target[keyOf(lab)]
		switch {
		case !ok:
		case len(want) > 1:
			return nil, fmt.Errorf("%w: %s has units %s in the reference", ErrAmbiguousUnit,
				strings.ReplaceAll(keyOf(lab), "\x1f", "/"), strings.Join(want, ", "))
		case lab[4] != want[0]:
			factor, err := units.Factor(lab[4], want[0])
			if err != nil {
				return nil, fmt.Errorf("match units for %s: %w", lab[3], err)
			}
			lab = slices.Clone(lab)
			lab[4] = want[0]
			v *= factor
		}
		if err := s.Append(lab, v); err != nil {
			return nil, fmt.Errorf("match units: %w", err)
		}
	}
	return &Dataset{s: sortIAMC(s)}, nil
}
