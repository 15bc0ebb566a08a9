package compare

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

const tol = 1e-9

func series(t *testing.T, rows map[string]float64) *dataset.Series {
	t.Helper()
	s := dataset.NewSeries(dataset.Region, dataset.Unit, dataset.Year)
	for r, v := range rows {
		if err := s.Append([]string{r, "Mt CO2/yr", "2020"}, v); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestDifference(t *testing.T) {
	subj := series(t, map[string]float64{"World": 35000, "EU": 10})
	ref := series(t, map[string]float64{"World": 44251})

	got, err := Difference(false)(subj, ref)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 {
		t.Fatalf("keys missing from the reference must be dropped, got %d rows", got.Len())
	}
	if v, _ := got.Lookup([]string{"World", "Mt CO2/yr", "2020"}); math.Abs(v+9251) > tol {
		t.Fatalf("difference = %v, want -9251", v)
	}

	abs, err := Difference(true)(subj, ref)
	if err != nil {
		t.Fatal(err)
	}
	if abs.Value(0) != 9251 {
		t.Fatalf("absolute difference = %v, want 9251", abs.Value(0))
	}
}

func TestRatio_ZeroHandling(t *testing.T) {
	subj := series(t, map[string]float64{"A": 0, "B": 5, "C": 6, "D": -4, "E": 0})
	ref := series(t, map[string]float64{"A": 0, "B": 0, "C": 3, "D": 0, "E": 5})

	tests := []struct {
		name string
		fn   SeriesFunc
		want map[string]float64
	}{
		{"defaults", Ratio(), map[string]float64{"A": 1, "B": math.Inf(1), "C": 2, "D": math.Inf(1), "E": 0}},
		{"custom", Ratio(WithDivByZero(999), WithZeroByZero(0)), map[string]float64{"A": 0, "B": 999, "C": 2, "D": 999, "E": 0}},
		{"zero subject keeps plain ratio", Ratio(WithDivByZero(-1), WithZeroByZero(7)), map[string]float64{"A": 7, "B": -1, "E": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(subj, ref)
			if err != nil {
				t.Fatal(err)
			}
			for region, want := range tt.want {
				v, ok := got.Lookup([]string{region, "", "2020"})
				if !ok {
					t.Fatalf("%s: missing row, ratio results must carry the dimensionless unit", region)
				}
				if v != want {
					t.Errorf("%s: ratio = %v, want %v", region, v, want)
				}
			}
		})
	}
}

func TestRatio_ReordersReferenceLevels(t *testing.T) {
	subj := dataset.NewSeries(dataset.Region, dataset.Year)
	subj.MustAppend([]string{"World", "2020"}, 4)
	ref := dataset.NewSeries(dataset.Year, dataset.Region)
	ref.MustAppend([]string{"2020", "World"}, 2)

	got, err := Ratio()(subj, ref)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 || got.Value(0) != 2 {
		t.Fatalf("ratio = %v", got.Values())
	}
}

func TestSeriesComparison_ReconcilesUnits(t *testing.T) {
	subject := dataset.MustNew([]dataset.Point{
		{Model: "M", Scenario: "S", Region: "World", Variable: "Primary Energy", Unit: "TWh/yr", Year: 2020, Value: 1000},
	})
	ref := dataset.MustNew([]dataset.Point{
		{Model: "M", Scenario: "S", Region: "World", Variable: "Primary Energy", Unit: "EJ/yr", Year: 2020, Value: 3.6},
	})

	got, err := Reconciled(Difference(false)).Compare(subject, ref)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 || math.Abs(got.Value(0)) > tol {
		t.Fatalf("difference after unit reconciliation = %v, want [0]", got.Values())
	}

	raw, err := Raw(Difference(false)).Compare(subject, ref)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Len() != 0 {
		t.Fatalf("without reconciliation rows with differing units must not align, got %v", raw.Values())
	}
}

func TestSeriesComparison_AmbiguousUnit(t *testing.T) {
	subject := dataset.MustNew([]dataset.Point{
		{Model: "M", Scenario: "S", Region: "World", Variable: "PE", Unit: "EJ/yr", Year: 2020, Value: 1},
	})
	ref := dataset.MustNew([]dataset.Point{
		{Model: "M", Scenario: "S", Region: "World", Variable: "PE", Unit: "EJ/yr", Year: 2020, Value: 1},
		{Model: "M", Scenario: "S", Region: "EU", Variable: "PE", Unit: "PJ/yr", Year: 2020, Value: 1},
	})
	if _, err := Reconciled(Ratio()).Compare(subject, ref); !errors.Is(err, dataset.ErrAmbiguousUnit) {
		t.Fatalf("expected ErrAmbiguousUnit, got %v", err)
	}
}

func TestBroadcast_OnlyPresentCombinations(t *testing.T) {
	subject := dataset.MustNew([]dataset.Point{
		{Model: "M1", Scenario: "S1", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 1},
		{Model: "M1", Scenario: "S2", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 1},
		{Model: "M2", Scenario: "S1", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 1},
	})
	ref := dataset.MustNew([]dataset.Point{
		{Model: "Hist", Scenario: "Hist", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 7},
	})

	got, err := Broadcast(ref, subject, DefaultBroadcastDims)
	if err != nil {
		t.Fatal(err)
	}
	var pairs [][2]string
	for _, p := range got.Points() {
		pairs = append(pairs, [2]string{p.Model, p.Scenario})
		if p.Value != 7 {
			t.Fatalf("broadcast value = %v, want 7", p.Value)
		}
	}
	want := [][2]string{{"M1", "S1"}, {"M1", "S2"}, {"M2", "S1"}}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Fatalf("broadcast pairs (-want +got):\n%s", diff)
	}
}

func TestBroadcast_Ambiguous(t *testing.T) {
	ref := dataset.MustNew([]dataset.Point{
		{Model: "H1", Scenario: "Hist", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 1},
		{Model: "H2", Scenario: "Hist", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 1},
	})
	if _, err := Broadcast(ref, ref, DefaultBroadcastDims); !errors.Is(err, ErrAmbiguousBroadcast) {
		t.Fatalf("expected ErrAmbiguousBroadcast, got %v", err)
	}
	if _, err := NewComparator(ref, Raw(Difference(false))); !errors.Is(err, ErrAmbiguousBroadcast) {
		t.Fatalf("construction must reject an ambiguous reference, got %v", err)
	}
}

func TestNewComparator_Validation(t *testing.T) {
	ref := dataset.MustNew([]dataset.Point{
		{Model: "H", Scenario: "H", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 1},
	})
	tests := []struct {
		name string
		opts []ComparatorOption
		want error
	}{
		{"unknown broadcast dim", []ComparatorOption{BroadcastDims("colour")}, dataset.ErrUnknownDimension},
		{"unknown match dim", []ComparatorOption{MatchDims("colour")}, dataset.ErrUnknownDimension},
		{"overlap", []ComparatorOption{BroadcastDims(dataset.Model, dataset.Region)}, ErrDimensionOverlap},
		{"year broadcast while matched", []ComparatorOption{BroadcastDims(dataset.Year)}, ErrDimensionOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComparator(ref, Raw(Difference(false)), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	c, err := NewComparator(ref, Raw(Difference(false)))
	if err != nil {
		t.Fatal(err)
	}
	want := []dataset.Dim{dataset.Region, dataset.Variable, dataset.Year}
	if diff := cmp.Diff(want, c.MatchDims()); diff != "" {
		t.Fatalf("match dims (-want +got):\n%s", diff)
	}
}

func TestComparator_Compare(t *testing.T) {
	ref := dataset.MustNew([]dataset.Point{
		{Model: "Hist", Scenario: "Hist", Region: "World", Variable: "Emissions|CO2", Unit: "Mt CO2/yr", Year: 2020, Value: 44251},
	})
	subject := dataset.MustNew([]dataset.Point{
		{Model: "M1", Scenario: "S1", Region: "World", Variable: "Emissions|CO2", Unit: "Gt CO2/yr", Year: 2020, Value: 35},
		{Model: "M2", Scenario: "S1", Region: "World", Variable: "Emissions|CO2", Unit: "Mt CO2/yr", Year: 2020, Value: 44251},
		{Model: "M2", Scenario: "S1", Region: "World", Variable: "Emissions|CO2", Unit: "Mt CO2/yr", Year: 2030, Value: 1},
		{Model: "M2", Scenario: "S1", Region: "EU", Variable: "Emissions|CO2", Unit: "Mt CO2/yr", Year: 2020, Value: 1},
	})

	c, err := NewComparator(ref, Reconciled(Difference(false)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Compare(subject)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (years and regions not in the reference are dropped)", got.Len())
	}
	vals := map[string]float64{}
	for i := 0; i < got.Len(); i++ {
		vals[got.Label(i, dataset.Model)] = got.Value(i)
	}
	want := map[string]float64{"M1": -9251, "M2": 0}
	if diff := cmp.Diff(want, vals, cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestComparator_UnmatchedTimeBroadcastsYear(t *testing.T) {
	ref := dataset.MustNew([]dataset.Point{
		{Model: "Hist", Scenario: "Hist", Region: "World", Variable: "V", Unit: "U", Year: 2015, Value: 10},
	})
	subject := dataset.MustNew([]dataset.Point{
		{Model: "M", Scenario: "S", Region: "World", Variable: "V", Unit: "U", Year: 2020, Value: 20},
		{Model: "M", Scenario: "S", Region: "World", Variable: "V", Unit: "U", Year: 2030, Value: 30},
	})
	c, err := NewComparator(ref, Raw(Ratio()), MatchTime(false))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Compare(subject)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2, 3}, got.Values()); diff != "" {
		t.Fatalf("ratios (-want +got):\n%s", diff)
	}
}
