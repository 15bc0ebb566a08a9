// Package aggregate reduces series over the region and time dimensions.
//
// An aggregation is described by a Spec, which can be built from a plain
// function, the name of a built-in reduction, or a function with extra
// positional and keyword arguments.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrUnknownAggregation is returned for an unknown built-in name or an
	// unsupported spec value.
	ErrUnknownAggregation = errors.New("unknown aggregation")
	// ErrMissingAggregation is returned when a required aggregation is not set.
	ErrMissingAggregation = errors.New("aggregation not configured")
)

// Func reduces a non-empty slice of values to one value.
type Func func(values []float64) float64

// ArgsFunc reduces values using extra positional and keyword arguments.
type ArgsFunc func(values []float64, args []any, kwargs map[string]any) (float64, error)

// Triple is a function together with the arguments it is called with.
type Triple struct {
	Func   ArgsFunc
	Args   []any
	Kwargs map[string]any
}

// Spec is a normalised aggregation. The zero Spec is unset.
type Spec struct {
	name   string
	fn     ArgsFunc
	args   []any
	kwargs map[string]any
	// zeroIfEmpty makes an input without numbers reduce to 0 (count, sum).
	zeroIfEmpty bool
}

// IsZero reports whether the spec is unset.
func (s Spec) IsZero() bool { return s.fn == nil }

// Name returns the built-in name or a descriptive label for custom functions.
func (s Spec) Name() string { return s.name }

// Apply reduces values. NaN values are skipped; an input with no numbers
// yields 0 for count and sum and NaN otherwise.
func (s Spec) Apply(values []float64) (float64, error) {
	if s.fn == nil {
		return 0, ErrMissingAggregation
	}
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		if s.zeroIfEmpty {
			return 0, nil
		}
		return math.NaN(), nil
	}
	return s.fn(clean, s.args, s.kwargs)
}

// FromFunc wraps a plain reduction.
func FromFunc(name string, f Func) Spec {
	if name == "" {
		name = "custom"
	}
	return Spec{name: name, fn: func(v []float64, _ []any, _ map[string]any) (float64, error) { return f(v), nil }}
}

// WithArgs wraps a reduction that takes extra arguments.
func WithArgs(name string, f ArgsFunc, args []any, kwargs map[string]any) Spec {
	if name == "" {
		name = "custom"
	}
	return Spec{name: name, fn: f, args: args, kwargs: kwargs}
}

// Named resolves a built-in reduction. Extra args are passed to built-ins
// that take them, such as quantile.
func Named(name string, args ...any) (Spec, error) {
	return NamedArgs(name, args, nil)
}

// NamedArgs resolves a built-in reduction with positional and keyword
// arguments. Arguments are checked here rather than on first use.
func NamedArgs(name string, args []any, kwargs map[string]any) (Spec, error) {
	b, err := ParseBuiltin(name)
	if err != nil {
		return Spec{}, err
	}
	if b == Quantile {
		if _, err := quantile([]float64{0}, args, kwargs); err != nil {
			return Spec{}, err
		}
	}
	return Spec{
		name:        b.String(),
		fn:          builtins[b].fn,
		args:        args,
		kwargs:      kwargs,
		zeroIfEmpty: b == Count || b == Sum,
	}, nil
}

// MustNamed is Named for package-level defaults.
func MustNamed(name string, args ...any) Spec {
	s, err := Named(name, args...)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse normalises any accepted spec form: a Spec, a built-in name, a Func
// or plain func([]float64) float64, an ArgsFunc, or a Triple.
func Parse(v any) (Spec, error) {
	switch x := v.(type) {
	case Spec:
		if x.IsZero() {
			return Spec{}, ErrMissingAggregation
		}
		return x, nil
	case string:
		return Named(x)
	case Builtin:
		return Named(x.String())
	case Func:
		return FromFunc("", x), nil
	case func([]float64) float64:
		return FromFunc("", x), nil
	case ArgsFunc:
		return WithArgs("", x, nil, nil), nil
	case Triple:
		if x.Func == nil {
			return Spec{}, fmt.Errorf("%w: triple without a function", ErrUnknownAggregation)
		}
		return WithArgs("", x.Func, x.Args, x.Kwargs), nil
	case nil:
		return Spec{}, ErrMissingAggregation
	}
	return Spec{}, fmt.Errorf("%w: unsupported spec of type %T", ErrUnknownAggregation, v)
}

// Builtin enumerates the built-in reductions.
type Builtin int

const (
	Max Builtin = iota
	Min
	Mean
	Median
	Sum
	Prod
	First
	Last
	Count
	Std
	Var
	AbsMax
	AbsMin
	Quantile
)

type builtin struct {
	name string
	fn   ArgsFunc
}

func plain(f func([]float64) float64) ArgsFunc {
	return func(v []float64, _ []any, _ map[string]any) (float64, error) { return f(v), nil }
}

var builtins = map[Builtin]builtin{
	Max:      {"max", plain(floats.Max)},
	Min:      {"min", plain(floats.Min)},
	Mean:     {"mean", plain(func(v []float64) float64 { return stat.Mean(v, nil) })},
	Median:   {"median", plain(median)},
	Sum:      {"sum", plain(floats.Sum)},
	Prod:     {"prod", plain(floats.Prod)},
	First:    {"first", plain(func(v []float64) float64 { return v[0] })},
	Last:     {"last", plain(func(v []float64) float64 { return v[len(v)-1] })},
	Count:    {"count", plain(func(v []float64) float64 { return float64(len(v)) })},
	Std:      {"std", plain(sampleStd)},
	Var:      {"var", plain(sampleVar)},
	AbsMax:   {"absmax", plain(func(v []float64) float64 { return absReduce(v, floats.Max) })},
	AbsMin:   {"absmin", plain(func(v []float64) float64 { return absReduce(v, floats.Min) })},
	Quantile: {"quantile", quantile},
}

func (b Builtin) String() string {
	if x, ok := builtins[b]; ok {
		return x.name
	}
	return fmt.Sprintf("Builtin(%d)", int(b))
}

// ParseBuiltin resolves a built-in name case-insensitively.
func ParseBuiltin(name string) (Builtin, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for b, x := range builtins {
		if x.name == n {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownAggregation, name, strings.Join(BuiltinNames(), ", "))
}

// BuiltinNames lists the built-in reduction names, sorted.
func BuiltinNames() []string {
	out := make([]string, 0, len(builtins))
	for _, x := range builtins {
		out = append(out, x.name)
	}
	sort.Strings(out)
	return out
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// sampleStd and sampleVar use one delta degree of freedom; a single value
// has no spread and yields NaN.
func sampleStd(v []float64) float64 {
	if len(v) < 2 {
		return math.NaN()
	}
	return stat.StdDev(v, nil)
}

func sampleVar(v []float64) float64 {
	if len(v) < 2 {
		return math.NaN()
	}
	return stat.Variance(v, nil)
}

func absReduce(v []float64, f func([]float64) float64) float64 {
	a := make([]float64, len(v))
	for i, x := range v {
		a[i] = math.Abs(x)
	}
	return f(a)
}

// quantile takes the probability as the first positional argument or as the
// "q" keyword and interpolates linearly between the two closest ranks.
func quantile(v []float64, args []any, kwargs map[string]any) (float64, error) {
	var raw any
	switch {
	case len(args) > 0:
		raw = args[0]
	case kwargs["q"] != nil:
		raw = kwargs["q"]
	default:
		return 0, fmt.Errorf("quantile: missing probability argument")
	}
	p, ok := toFloat(raw)
	if !ok || p < 0 || p > 1 {
		return 0, fmt.Errorf("quantile: probability %v must be a number in [0, 1]", raw)
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	h := float64(len(s)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(s)-1 {
		return s[len(s)-1], nil
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo]), nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
