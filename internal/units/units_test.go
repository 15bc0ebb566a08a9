package units

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-12

func TestFactor(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     float64
	}{
		{"same unit", "EJ/yr", "EJ/yr", 1},
		{"unregistered identical", "widgets", "widgets", 1},
		{"whitespace", "EJ / yr", "EJ/yr", 1},
		{"twh to ej", "TWh/yr", "EJ/yr", 3.6e-3},
		{"ej to pj", "EJ/yr", "PJ/yr", 1e3},
		{"gt to mt", "Gt CO2/yr", "Mt CO2/yr", 1e3},
		{"percent", "%", "dimensionless", 0.01},
		{"alias", "billion USD_2010/yr", "trillion US$2010/yr", 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Factor(tt.from, tt.to)
			if err != nil {
				t.Fatalf("Factor(%q, %q) error: %v", tt.from, tt.to, err)
			}
			if math.Abs(got-tt.want) > tol*math.Max(1, tt.want) {
				t.Fatalf("Factor(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestFactor_Errors(t *testing.T) {
	if _, err := Factor("EJ/yr", "Mt CO2/yr"); !errors.Is(err, ErrIncompatibleUnits) {
		t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
	}
	if _, err := Factor("furlong", "EJ/yr"); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	v, err := Convert(100, "TWh/yr", "EJ/yr")
	if err != nil {
		t.Fatal(err)
	}
	back, err := Convert(v, "EJ/yr", "TWh/yr")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back-100) > 1e-9 {
		t.Fatalf("round trip = %v, want 100", back)
	}
}

func TestCompatibleAndFamily(t *testing.T) {
	if !Compatible("Mt CO2/yr", "kt CO2/yr") {
		t.Fatalf("expected Mt and kt CO2/yr to be compatible")
	}
	if Compatible("million", "EJ/yr") {
		t.Fatalf("population and energy should not be compatible")
	}
	f, err := FamilyOf("GW")
	if err != nil || f != Power {
		t.Fatalf("FamilyOf(GW) = %v, %v", f, err)
	}
	if len(Known()) == 0 {
		t.Fatalf("expected registered units")
	}
}
