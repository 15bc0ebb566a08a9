package dataset

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	d, err := New([]Point{
		{"M1", "S1", "World", "Emissions|CO2", "Mt CO2/yr", 2020, 40000},
		{"M1", "S1", "World", "Emissions|CO2", "Mt CO2/yr", 2010, 35000},
		{"M1", "S2", "World", "Emissions|CO2", "Mt CO2/yr", 2010, 36000},
		{"M1", "S1", "EU", "Primary Energy", "EJ/yr", 2010, 70},
		{"M2", "S1", "World", "Primary Energy", "TWh/yr", 2010, 150000},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNew_SortsAndRejectsDuplicates(t *testing.T) {
	d := sample(t)
	got := d.Points()
	if got[0].Region != "EU" || got[1].Year != 2010 || got[2].Year != 2020 {
		t.Fatalf("unexpected order: %+v", got)
	}

	_, err := New([]Point{
		{"M", "S", "R", "V", "U", 2020, 1},
		{"M", "S", "R", "V", "U", 2020, 2},
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestYearOrderIsNumeric(t *testing.T) {
	years := []string{"2100", "990", "2020"}
	SortYears(years)
	if diff := cmp.Diff([]string{"990", "2020", "2100"}, years); diff != "" {
		t.Fatalf("SortYears mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAndExclude(t *testing.T) {
	d := sample(t)

	got := d.Filter(Filter{Variable: {"Emissions|*"}, Year: Years(2010)})
	if got.Len() != 2 {
		t.Fatalf("filter len = %d, want 2", got.Len())
	}

	got = d.Filter(Filter{Model: {"M2", "M1"}, Region: {"World"}})
	if got.Len() != 4 {
		t.Fatalf("OR within dim: len = %d, want 4", got.Len())
	}

	ex := d.Exclude(Filter{Region: {"World"}})
	if ex.Len() != 1 || ex.Points()[0].Region != "EU" {
		t.Fatalf("exclude = %+v", ex.Points())
	}

	if all := d.Filter(Filter{}); all.Len() != d.Len() {
		t.Fatalf("empty filter should keep everything")
	}
}

func TestWildcard(t *testing.T) {
	tests := []struct {
		p, s string
		want bool
	}{
		{"*", "anything", true},
		{"Emissions|*", "Emissions|CO2|Energy", true},
		{"*|CO2", "Emissions|CO2", true},
		{"E*|*2", "Emissions|CO2", true},
		{"E*|*4", "Emissions|CO2", false},
		{"Emissions", "Emissions|CO2", false},
		{"a*a", "a", false},
	}
	for _, tt := range tests {
		if got := wildcard(tt.p, tt.s); got != tt.want {
			t.Errorf("wildcard(%q, %q) = %v, want %v", tt.p, tt.s, got, tt.want)
		}
	}
}

func TestRename(t *testing.T) {
	d := sample(t)
	r, err := d.Rename(Scenario, map[string]string{"S2": "S3"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"S1", "S3"}, r.Values(Scenario)); diff != "" {
		t.Fatalf("scenarios (-want +got):\n%s", diff)
	}

	_, err = d.Rename(Scenario, map[string]string{"S2": "S1"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on collision, got %v", err)
	}

	if _, err := d.Rename(Dim("colour"), nil); !errors.Is(err, ErrUnknownDimension) {
		t.Fatalf("expected ErrUnknownDimension, got %v", err)
	}
}

func TestConcat(t *testing.T) {
	a := MustNew([]Point{{"M", "S", "R", "V", "U", 2020, 1}})
	b := MustNew([]Point{{"M", "S", "R", "V", "U", 2030, 2}})
	c, err := Concat(a, b)
	if err != nil || c.Len() != 2 {
		t.Fatalf("Concat = %v, %v", c, err)
	}
	if _, err := Concat(a, a); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSeriesCopyIsIndependent(t *testing.T) {
	d := sample(t)
	cp := d.Series(true)
	cp.values[0] = -1
	if d.Series(false).Value(0) == -1 {
		t.Fatalf("copy shares storage with the dataset")
	}
	if d.Series(false) != d.Series(false) {
		t.Fatalf("view should be shared")
	}
}

func TestUnitMappingAndConvert(t *testing.T) {
	d := sample(t)
	um := d.UnitMapping()
	if diff := cmp.Diff([]string{"EJ/yr", "TWh/yr"}, um["Primary Energy"]); diff != "" {
		t.Fatalf("unit mapping (-want +got):\n%s", diff)
	}

	c, err := d.ConvertUnit("Primary Energy", "TWh/yr", "EJ/yr")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.UnitMapping()["Primary Energy"]; len(got) != 1 || got[0] != "EJ/yr" {
		t.Fatalf("after conversion: %v", got)
	}
	v, ok := c.Series(false).Lookup([]string{"M2", "S1", "World", "Primary Energy", "EJ/yr", "2010"})
	if !ok || math.Abs(v-540) > 1e-9 {
		t.Fatalf("converted value = %v (found %v), want 540", v, ok)
	}

	if _, err := d.ConvertUnit("", "EJ/yr", "Mt CO2/yr"); err == nil {
		t.Fatalf("expected incompatible unit error")
	}
}

func TestMatchUnits(t *testing.T) {
	subject := MustNew([]Point{
		{"M", "S", "World", "Primary Energy", "TWh/yr", 2020, 1000},
		{"M", "S", "World", "Population", "million", 2020, 7800},
	})
	ref := MustNew([]Point{
		{"Hist", "Hist", "World", "Primary Energy", "EJ/yr", 2020, 3.6},
	})
	got, err := MatchUnits(subject, ref)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := got.Series(false).Lookup([]string{"M", "S", "World", "Primary Energy", "EJ/yr", "2020"})
	if !ok || math.Abs(v-3.6) > 1e-9 {
		t.Fatalf("converted = %v (%v), want 3.6", v, ok)
	}
	if _, ok := got.Series(false).Lookup([]string{"M", "S", "World", "Population", "million", "2020"}); !ok {
		t.Fatalf("variables missing from the reference must pass through")
	}

	ambiguous := MustNew([]Point{
		{"Hist", "Hist", "World", "Primary Energy", "EJ/yr", 2020, 3.6},
		{"Hist", "Hist", "World", "Primary Energy", "PJ/yr", 2020, 3600},
	})
	if _, err := MatchUnits(subject, ambiguous); !errors.Is(err, ErrAmbiguousUnit) {
		t.Fatalf("expected ErrAmbiguousUnit, got %v", err)
	}
}

func TestMatchUnits_NoMismatchLeavesValues(t *testing.T) {
	d := sample(t)
	got, err := MatchUnits(d, d)
	if err == nil {
		t.Fatalf("sample has two units for Primary Energy, expected ErrAmbiguousUnit")
	}
	clean := d.Filter(Filter{Variable: {"Emissions|CO2"}})
	got, err = MatchUnits(clean, clean)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(clean.Points(), got.Points()); diff != "" {
		t.Fatalf("values changed (-want +got):\n%s", diff)
	}
}

func TestFromSeries(t *testing.T) {
	s := NewSeries(Year, Model, Scenario, Region, Variable, Unit)
	s.MustAppend([]string{"2020", "M", "S", "R", "V", "U"}, 1)
	d, err := FromSeries(s)
	if err != nil {
		t.Fatal(err)
	}
	if p := d.Points()[0]; p.Year != 2020 || p.Model != "M" {
		t.Fatalf("unexpected point %+v", p)
	}

	bad := NewSeries(Model, Scenario)
	if _, err := FromSeries(bad); !errors.Is(err, ErrMissingLevel) {
		t.Fatalf("expected ErrMissingLevel, got %v", err)
	}
}
