// Package target classifies criterion values against a target value and an
// optional acceptable range, and measures how far each value lies from the
// target.
package target

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/iamcompact/iamvet-cli/internal/criterion"
	"github.com/iamcompact/iamvet-cli/internal/dataset"
	"github.com/iamcompact/iamvet-cli/internal/units"
)

var (
	// ErrInvalidRange is returned when a range is inverted or does not
	// contain the target.
	ErrInvalidRange = errors.New("invalid target range")
	// ErrUnitNotSpecified is returned when a unit conversion is requested
	// without the units it needs.
	ErrUnitNotSpecified = errors.New("unit not specified")
	// ErrNoRange is returned by range queries on a target without a range.
	ErrNoRange = errors.New("target has no range")
)

// Bounds is an absolute acceptable interval, both ends inclusive.
type Bounds struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Contains reports whether lower <= v <= upper.
func (b Bounds) Contains(v float64) bool { return b.Lower <= v && v <= b.Upper }

// RelativeRange is an acceptable interval given as factors of the target,
// so that RelativeRange{0.8, 1.2} around 100 is [80, 120].
type RelativeRange struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Bounds resolves the factors against target. For negative targets the
// products are swapped so that Lower <= Upper holds.
func (r RelativeRange) Bounds(target float64) Bounds {
	l, u := target*r.Lower, target*r.Upper
	if l > u {
		l, u = u, l
	}
	return Bounds{Lower: l, Upper: u}
}

// DistanceFunc measures how far value lies from target. bounds is nil when
// no range is set.
type DistanceFunc func(value, target float64, bounds *Bounds) float64

// Config is the complete configuration of a TargetRange.
type Config struct {
	// Name defaults to the criterion name.
	Name   string
	Target float64
	// At most one of Range and Relative may be set.
	Range    *Bounds
	Relative *RelativeRange
	// Unit is the unit target and range are expressed in.
	Unit string
	// ValueUnit overrides the criterion's unit as the source of value
	// conversion.
	ValueUnit string
	// ConvertValueUnits converts criterion values into Unit. When nil it is
	// inferred: true when both Unit and a value unit are known.
	ConvertValueUnits *bool
	// ConvertInputUnits converts subject rows whose unit is compatible with
	// Unit before the criterion runs.
	ConvertInputUnits bool
	// Distance defaults to DefaultDistance.
	Distance DistanceFunc
}

// state is a validated Config with derived fields.
type state struct {
	cfg           Config
	name          string
	bounds        *Bounds
	convertValues bool
	valueUnit     string
	valueFactor   float64
}

// TargetRange pairs a criterion with a target and optional range.
//
// Configuration changes go through Update, which validates the complete
// candidate configuration before swapping it in. Queries read a consistent
// snapshot, so a TargetRange may be queried from several goroutines.
type TargetRange struct {
	crit criterion.Criterion

	mu sync.RWMutex
	st state
}

// New validates cfg against crit and returns a TargetRange.
func New(crit criterion.Criterion, cfg Config) (*TargetRange, error) {
	if crit == nil {
		return nil, fmt.Errorf("target range: criterion is nil")
	}
	st, err := resolve(crit, cfg)
	if err != nil {
		return nil, err
	}
	return &TargetRange{crit: crit, st: st}, nil
}

func resolve(crit criterion.Criterion, cfg Config) (state, error) {
	st := state{cfg: cfg, name: cfg.Name, valueFactor: 1}
	if cfg.Range != nil {
		r := *cfg.Range
		st.cfg.Range = &r
	}
	if cfg.Relative != nil {
		r := *cfg.Relative
		st.cfg.Relative = &r
	}
	if cfg.ConvertValueUnits != nil {
		v := *cfg.ConvertValueUnits
		st.cfg.ConvertValueUnits = &v
	}
	if st.name == "" {
		st.name = crit.Name()
	}

	if math.IsNaN(cfg.Target) {
		return state{}, fmt.Errorf("%w: target is NaN", ErrInvalidRange)
	}
	if cfg.Range != nil && cfg.Relative != nil {
		return state{}, fmt.Errorf("%w: absolute and relative range are both set", ErrInvalidRange)
	}
	var b *Bounds
	switch {
	case cfg.Range != nil:
		x := *cfg.Range
		b = &x
	case cfg.Relative != nil:
		if cfg.Relative.Lower > cfg.Relative.Upper {
			return state{}, fmt.Errorf("%w: relative lower factor %g exceeds upper factor %g",
				ErrInvalidRange, cfg.Relative.Lower, cfg.Relative.Upper)
		}
		x := cfg.Relative.Bounds(cfg.Target)
		b = &x
	}
	if b != nil {
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
			return state{}, fmt.Errorf("%w: range bound is NaN", ErrInvalidRange)
		}
		if b.Lower > b.Upper {
			return state{}, fmt.Errorf("%w: lower bound %g exceeds upper bound %g", ErrInvalidRange, b.Lower, b.Upper)
		}
		if !b.Contains(cfg.Target) {
			return state{}, fmt.Errorf("%w: target %g outside [%g, %g]", ErrInvalidRange, cfg.Target, b.Lower, b.Upper)
		}
	}
	st.bounds = b

	st.valueUnit = cfg.ValueUnit
	if st.valueUnit == "" {
		st.valueUnit = crit.Unit()
	}
	if cfg.ConvertValueUnits != nil {
		st.convertValues = *cfg.ConvertValueUnits
	} else {
		st.convertValues = cfg.Unit != "" && st.valueUnit != ""
	}
	if st.convertValues {
		if cfg.Unit == "" {
			return state{}, fmt.Errorf("%w: value conversion needs a target unit", ErrUnitNotSpecified)
		}
		if st.valueUnit == "" {
			return state{}, fmt.Errorf("%w: value conversion needs a value unit or a criterion unit", ErrUnitNotSpecified)
		}
		f, err := units.Factor(st.valueUnit, cfg.Unit)
		if err != nil {
			return state{}, fmt.Errorf("target range %q: %w", st.name, err)
		}
		st.valueFactor = f
	}
	if cfg.ConvertInputUnits {
		if cfg.Unit == "" {
			return state{}, fmt.Errorf("%w: input conversion needs a target unit", ErrUnitNotSpecified)
		}
		if _, err := units.FamilyOf(cfg.Unit); err != nil {
			return state{}, fmt.Errorf("target range %q: %w", st.name, err)
		}
	}
	return st, nil
}

func (t *TargetRange) snapshot() state {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st
}

// Update applies fn to a copy of the current configuration, validates the
// result and commits it. On error the TargetRange is unchanged.
func (t *TargetRange) Update(fn func(*Config)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cfg := t.st.cfg
	fn(&cfg)
	st, err := resolve(t.crit, cfg)
	if err != nil {
		return err
	}
	t.st = st
	return nil
}

// SetTarget changes the target. A relative range follows the new target.
func (t *TargetRange) SetTarget(v float64) error {
	return t.Update(func(c *Config) { c.Target = v })
}

// SetRange replaces the range with absolute bounds, or removes it when b is nil.
func (t *TargetRange) SetRange(b *Bounds) error {
	return t.Update(func(c *Config) {
		c.Range = b
		c.Relative = nil
	})
}

// SetRelativeRange replaces the range with factors of the target.
func (t *TargetRange) SetRelativeRange(r RelativeRange) error {
	return t.Update(func(c *Config) {
		c.Range = nil
		c.Relative = &r
	})
}

// Criterion returns the wrapped criterion.
func (t *TargetRange) Criterion() criterion.Criterion { return t.crit }

// Name returns the configured name or the criterion name.
func (t *TargetRange) Name() string { return t.snapshot().name }

// Target returns the target value.
func (t *TargetRange) Target() float64 { return t.snapshot().cfg.Target }

// Range returns the absolute bounds, if a range is set.
func (t *TargetRange) Range() (Bounds, bool) {
	st := t.snapshot()
	if st.bounds == nil {
		return Bounds{}, false
	}
	return *st.bounds, true
}

// Unit returns the unit of target and range.
func (t *TargetRange) Unit() string { return t.snapshot().cfg.Unit }

// Config returns a copy of the configuration.
func (t *TargetRange) Config() Config { return t.snapshot().cfg }

// ConvertsValues reports whether criterion values are converted into Unit.
func (t *TargetRange) ConvertsValues() bool { return t.snapshot().convertValues }

// InRange reports whether v lies within the range.
func (t *TargetRange) InRange(v float64) (bool, error) {
	st := t.snapshot()
	if st.bounds == nil {
		return false, fmt.Errorf("%w: %s", ErrNoRange, st.name)
	}
	return st.bounds.Contains(v), nil
}

// Distance returns the distance of v from the target.
func (t *TargetRange) Distance(v float64) float64 {
	st := t.snapshot()
	return st.distance(v)
}

func (st state) distance(v float64) float64 {
	fn := st.cfg.Distance
	if fn == nil {
		fn = DefaultDistance
	}
	return fn(v, st.cfg.Target, st.bounds)
}

// DefaultDistance is value - target without a range. With a range it is
// normalised so that the target maps to 0, the upper bound to +1 and the
// lower bound to -1; values beyond the bounds exceed 1 in magnitude. A
// zero-width half range yields ±Inf for values on that side.
func DefaultDistance(v, target float64, b *Bounds) float64 {
	if b == nil {
		return v - target
	}
	switch {
	case v == target:
		return 0
	case v > target:
		if b.Upper == target {
			return math.Inf(1)
		}
		return (v - target) / (b.Upper - target)
	default:
		if b.Lower == target {
			return math.Inf(-1)
		}
		return (v - target) / (target - b.Lower)
	}
}

// AbsoluteDistance is value - target regardless of any range.
func AbsoluteDistance(v, target float64, _ *Bounds) float64 { return v - target }

// LogRatioDistance measures orders of magnitude between value and target:
// |log10(value / target)|.
func LogRatioDistance(v, target float64, _ *Bounds) float64 {
	return math.Abs(math.Log10(v / target))
}

// Values returns the criterion values for subject, converted into Unit when
// value conversion is enabled.
func (t *TargetRange) Values(subject *dataset.Dataset) (*dataset.Series, error) {
	return t.values(t.snapshot(), subject)
}

func (t *TargetRange) values(st state, subject *dataset.Dataset) (*dataset.Series, error) {
	if st.cfg.ConvertInputUnits {
		conv, err := convertCompatible(subject, st.cfg.Unit)
		if err != nil {
			return nil, fmt.Errorf("target range %q: %w", st.name, err)
		}
		subject = conv
	}
	vals, err := t.crit.Values(subject)
	if err != nil {
		return nil, err
	}
	if !st.convertValues {
		return vals, nil
	}
	out := dataset.Map(vals, func(_ []string, v float64) float64 { return v * st.valueFactor })
	if out.HasLevel(dataset.Unit) {
		return out.Relabel(dataset.Unit, func(string) string { return st.cfg.Unit })
	}
	return out, nil
}

// convertCompatible converts the rows whose unit shares a family with to.
func convertCompatible(subject *dataset.Dataset, to string) (*dataset.Dataset, error) {
	out := subject
	for _, u := range subject.Values(dataset.Unit) {
		if u == to || !units.Compatible(u, to) {
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

// InRangeMask evaluates the criterion and flags each value that lies
// within the range.
func (t *TargetRange) InRangeMask(subject *dataset.Dataset) (*dataset.Mask, error) {
	ev, err := t.Evaluate(subject)
	if err != nil {
		return nil, err
	}
	if ev.InRange == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRange, ev.Name)
	}
	return ev.InRange, nil
}

// Distances evaluates the criterion and returns each value's distance from
// the target.
func (t *TargetRange) Distances(subject *dataset.Dataset) (*dataset.Series, error) {
	ev, err := t.Evaluate(subject)
	if err != nil {
		return nil, err
	}
	return ev.Distance, nil
}

// Evaluation holds values, range flags and distances computed from a single
// criterion evaluation. InRange is nil when the target has no range.
type Evaluation struct {
	Name     string
	Unit     string
	Target   float64
	Bounds   *Bounds
	Values   *dataset.Series
	InRange  *dataset.Mask
	Distance *dataset.Series
}

// Evaluate runs the criterion once and derives flags and distances from the
// same values.
func (t *TargetRange) Evaluate(subject *dataset.Dataset) (*Evaluation, error) {
	st := t.snapshot()
	vals, err := t.values(st, subject)
	if err != nil {
		return nil, err
	}
	ev := &Evaluation{
		Name:     st.name,
		Unit:     st.cfg.Unit,
		Target:   st.cfg.Target,
		Values:   vals,
		Distance: dataset.Map(vals, func(_ []string, v float64) float64 { return st.distance(v) }),
	}
	if st.bounds != nil {
		b := *st.bounds
		ev.Bounds = &b
		ev.InRange = dataset.Map(vals, func(_ []string, v float64) bool { return b.Contains(v) })
	}
	return ev, nil
}
