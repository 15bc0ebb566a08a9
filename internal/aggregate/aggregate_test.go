package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

const tol = 1e-9

func TestNamedBuiltins(t *testing.T) {
	values := []float64{3, -7, 1, 5}
	tests := []struct {
		name string
		args []any
		want float64
	}{
		{"max", nil, 5},
		{"MIN", nil, -7},
		{"mean", nil, 0.5},
		{"median", nil, 2},
		{"sum", nil, 2},
		{"prod", nil, -105},
		{"first", nil, 3},
		{"last", nil, 5},
		{"count", nil, 4},
		{"absmax", nil, 7},
		{"absmin", nil, 1},
		{"var", nil, 83.0 / 3},
		{"std", nil, math.Sqrt(83.0 / 3)},
		{"quantile", []any{0.5}, 2},
		{"quantile", []any{0.25}, -1},
		{"quantile", []any{0.9}, 4.4},
		{"quantile", []any{0}, -7},
		{"quantile", []any{1}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Named(tt.name, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Apply(values)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > tol {
				t.Fatalf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestApply_SkipsNaN(t *testing.T) {
	s := MustNamed("mean")
	got, _ := s.Apply([]float64{1, math.NaN(), 3})
	if got != 2 {
		t.Fatalf("mean = %v, want 2", got)
	}
	got, _ = s.Apply([]float64{math.NaN()})
	if !math.IsNaN(got) {
		t.Fatalf("all-NaN input should give NaN, got %v", got)
	}
}

func TestApply_AllNaN(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"count", 0},
		{"sum", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MustNamed(tt.name).Apply([]float64{math.NaN(), math.NaN()})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("%s over all-NaN = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
	for _, name := range []string{"max", "mean", "median", "prod"} {
		if got, _ := MustNamed(name).Apply([]float64{math.NaN()}); !math.IsNaN(got) {
			t.Errorf("%s over all-NaN = %v, want NaN", name, got)
		}
	}
}

func TestQuantile_MatchesMedian(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	q, _ := MustNamed("quantile", 0.5).Apply(values)
	m, _ := MustNamed("median").Apply(values)
	if q != m || q != 2.5 {
		t.Fatalf("quantile(0.5) = %v, median = %v, want 2.5", q, m)
	}
	if got, _ := MustNamed("quantile", 0.9).Apply([]float64{0, 10}); math.Abs(got-9) > tol {
		t.Fatalf("quantile(0.9) of [0 10] = %v, want 9", got)
	}
}

func TestParse_Forms(t *testing.T) {
	double := func(v []float64) float64 { return 2 * v[0] }
	scaled := ArgsFunc(func(v []float64, args []any, kw map[string]any) (float64, error) {
		return v[0] * args[0].(float64) * kw["k"].(float64), nil
	})

	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"name", "max", 4},
		{"builtin", Min, 2},
		{"plain func", double, 4},
		{"Func", Func(double), 4},
		{"triple", Triple{Func: scaled, Args: []any{3.0}, Kwargs: map[string]any{"k": 10.0}}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Apply([]float64{2, 4})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse("geometric-mean"); !errors.Is(err, ErrUnknownAggregation) {
		t.Fatalf("expected ErrUnknownAggregation, got %v", err)
	}
	if _, err := Parse(42); !errors.Is(err, ErrUnknownAggregation) {
		t.Fatalf("expected ErrUnknownAggregation for int, got %v", err)
	}
	if _, err := Parse(nil); !errors.Is(err, ErrMissingAggregation) {
		t.Fatalf("expected ErrMissingAggregation, got %v", err)
	}
	if _, err := Named("quantile"); err == nil {
		t.Fatalf("quantile without probability should fail at construction")
	}
	if _, err := NamedArgs("quantile", nil, map[string]any{"q": 2.0}); err == nil {
		t.Fatalf("quantile with probability 2 should fail")
	}
}

// grid holds [[1, 9], [9, 1]] over regions A, B and years 2020, 2030.
func grid() *dataset.Series {
	s := dataset.NewSeries(dataset.Model, dataset.Region, dataset.Year)
	s.MustAppend([]string{"M", "A", "2020"}, 1)
	s.MustAppend([]string{"M", "A", "2030"}, 9)
	s.MustAppend([]string{"M", "B", "2020"}, 9)
	s.MustAppend([]string{"M", "B", "2030"}, 1)
	return s
}

func TestDualAggregator_OrderMatters(t *testing.T) {
	regionFirst, err := NewDual("max", "mean", RegionFirst, Both)
	if err != nil {
		t.Fatal(err)
	}
	timeFirst, err := NewDual("max", "mean", TimeFirst, Both)
	if err != nil {
		t.Fatal(err)
	}

	a, err := regionFirst.Aggregate(grid())
	if err != nil {
		t.Fatal(err)
	}
	b, err := timeFirst.Aggregate(grid())
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("expected one value per model, got %d and %d", a.Len(), b.Len())
	}
	if a.Value(0) != 9 {
		t.Fatalf("region max then time mean = %v, want 9", a.Value(0))
	}
	if b.Value(0) != 5 {
		t.Fatalf("time mean then region max = %v, want 5", b.Value(0))
	}
	if levels := a.Levels(); len(levels) != 1 || levels[0] != dataset.Model {
		t.Fatalf("levels = %v, want [model]", levels)
	}
}

func TestDualAggregator_PartialDims(t *testing.T) {
	timeOnly, err := NewDual(nil, "max", RegionFirst, TimeOnly)
	if err != nil {
		t.Fatal(err)
	}
	got, err := timeOnly.Aggregate(grid())
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 || got.Value(0) != 9 || got.Value(1) != 9 {
		t.Fatalf("time-only max = %v", got.Values())
	}

	if _, err := NewDual(nil, "max", RegionFirst, Both); !errors.Is(err, ErrMissingAggregation) {
		t.Fatalf("missing region aggregation must fail, got %v", err)
	}
}

func TestOver_MissingLevel(t *testing.T) {
	if _, err := Over(grid(), dataset.Variable, MustNamed("max")); !errors.Is(err, dataset.ErrMissingLevel) {
		t.Fatalf("expected ErrMissingLevel, got %v", err)
	}
}

func TestParseOrderAndDims(t *testing.T) {
	if o, err := ParseOrder("time"); err != nil || o != TimeFirst {
		t.Fatalf("ParseOrder(time) = %v, %v", o, err)
	}
	if _, err := ParseOrder("sideways"); err == nil {
		t.Fatalf("expected error")
	}
	if d, err := ParseDims("region"); err != nil || d != RegionOnly {
		t.Fatalf("ParseDims(region) = %v, %v", d, err)
	}
}
