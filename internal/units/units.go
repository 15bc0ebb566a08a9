// Package units converts between the unit strings used in IAMC-style
// scenario data ("EJ/yr", "Mt CO2/yr", "billion US$2010/yr", ...).
//
// Every known unit belongs to a family and carries a factor to the family's
// base unit. Two units convert into each other only when they share a family.
package units

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownUnit is returned when a unit string is not registered.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrIncompatibleUnits is returned when two units measure different quantities.
	ErrIncompatibleUnits = errors.New("incompatible units")
)

// Family groups units that measure the same quantity.
type Family string

const (
	Energy        Family = "energy"
	EnergyRate    Family = "energy-rate"
	Power         Family = "power"
	CO2Rate       Family = "co2-rate"
	CO2           Family = "co2"
	CH4Rate       Family = "ch4-rate"
	N2ORate       Family = "n2o-rate"
	Population    Family = "population"
	Currency      Family = "currency"
	CurrencyRate  Family = "currency-rate"
	Area          Family = "area"
	Temperature   Family = "temperature-delta"
	Dimensionless Family = "dimensionless"
)

type unitDef struct {
	family Family
	factor float64 // multiply by factor to reach the family base unit
}

// Base units: EJ, EJ/yr, GW, Mt CO2/yr, Mt CO2, Mt CH4/yr, kt N2O/yr,
// million, billion US$2010, billion US$2010/yr, million ha, K, 1.
var registry = map[string]unitDef{
	"EJ":  {Energy, 1},
	"PJ":  {Energy, 1e-3},
	"TJ":  {Energy, 1e-6},
	"GJ":  {Energy, 1e-9},
	"TWh": {Energy, 3.6e-3},
	"GWh": {Energy, 3.6e-6},

	"EJ/yr":   {EnergyRate, 1},
	"PJ/yr":   {EnergyRate, 1e-3},
	"TJ/yr":   {EnergyRate, 1e-6},
	"GJ/yr":   {EnergyRate, 1e-9},
	"TWh/yr":  {EnergyRate, 3.6e-3},
	"GWh/yr":  {EnergyRate, 3.6e-6},
	"Mtoe/yr": {EnergyRate, 41.868e-3},

	"TW": {Power, 1e3},
	"GW": {Power, 1},
	"MW": {Power, 1e-3},
	"kW": {Power, 1e-6},

	"Gt CO2/yr": {CO2Rate, 1e3},
	"Mt CO2/yr": {CO2Rate, 1},
	"kt CO2/yr": {CO2Rate, 1e-3},
	"t CO2/yr":  {CO2Rate, 1e-6},
	"Mt C/yr":   {CO2Rate, 44.0 / 12.0},
	"Gt C/yr":   {CO2Rate, 44.0 / 12.0 * 1e3},

	"Gt CO2": {CO2, 1e3},
	"Mt CO2": {CO2, 1},
	"kt CO2": {CO2, 1e-3},

	"Mt CH4/yr": {CH4Rate, 1},
	"kt CH4/yr": {CH4Rate, 1e-3},

	"Mt N2O/yr": {N2ORate, 1e3},
	"kt N2O/yr": {N2ORate, 1},

	"billion":  {Population, 1e3},
	"million":  {Population, 1},
	"thousand": {Population, 1e-3},

	"trillion US$2010": {Currency, 1e3},
	"billion US$2010":  {Currency, 1},
	"million US$2010":  {Currency, 1e-3},

	"trillion US$2010/yr": {CurrencyRate, 1e3},
	"billion US$2010/yr":  {CurrencyRate, 1},
	"million US$2010/yr":  {CurrencyRate, 1e-3},

	"million ha":  {Area, 1},
	"thousand ha": {Area, 1e-3},
	"ha":          {Area, 1e-6},
	"km2":         {Area, 1e-4},

	"K":    {Temperature, 1},
	"°C":   {Temperature, 1},
	"degC": {Temperature, 1},

	"":              {Dimensionless, 1},
	"1":             {Dimensionless, 1},
	"dimensionless": {Dimensionless, 1},
	"%":             {Dimensionless, 1e-2},
}

// aliases map spellings seen in IAMC submissions onto registry keys.
var aliases = map[string]string{
	"billion USD_2010/yr": "billion US$2010/yr",
	"billion USD2010/yr":  "billion US$2010/yr",
	"billion USD_2010":    "billion US$2010",
	"Mt CO2-equiv/yr":     "Mt CO2/yr",
	"Mt CO2e/yr":          "Mt CO2/yr",
	"Gt CO2e/yr":          "Gt CO2/yr",
	"EJ/a":                "EJ/yr",
	"Mt CO2/a":            "Mt CO2/yr",
	"percent":             "%",
}

// Normalize collapses whitespace around operators so that "EJ / yr" and
// "EJ/yr" compare equal, and resolves known aliases.
func Normalize(u string) string {
	u = strings.Join(strings.Fields(u), " ")
	u = strings.ReplaceAll(u, " / ", "/")
	u = strings.ReplaceAll(u, " /", "/")
	u = strings.ReplaceAll(u, "/ ", "/")
	if a, ok := aliases[u]; ok {
		return a
	}
	return u
}

func lookup(u string) (unitDef, error) {
	d, ok := registry[Normalize(u)]
	if !ok {
		return unitDef{}, fmt.Errorf("%w: %q", ErrUnknownUnit, u)
	}
	return d, nil
}

// Factor returns the multiplier that converts a value in unit from into unit to.
// Identical unit strings always yield 1, registered or not.
func Factor(from, to string) (float64, error) {
	if Normalize(from) == Normalize(to) {
		return 1, nil
	}
	f, err := lookup(from)
	if err != nil {
		return 0, err
	}
	t, err := lookup(to)
	if err != nil {
		return 0, err
	}
	if f.family != t.family {
		return 0, fmt.Errorf("%w: %q (%s) and %q (%s)", ErrIncompatibleUnits, from, f.family, to, t.family)
	}
	return f.factor / t.factor, nil
}

// Convert converts v from one unit into another.
func Convert(v float64, from, to string) (float64, error) {
	k, err := Factor(from, to)
	if err != nil {
		return 0, err
	}
	return v * k, nil
}

// Compatible reports whether a value in unit a can be converted into unit b.
func Compatible(a, b string) bool {
	_, err := Factor(a, b)
	return err == nil
}

// FamilyOf returns the family a unit belongs to.
func FamilyOf(u string) (Family, error) {
	d, err := lookup(u)
	if err != nil {
		return "", err
	}
	return d.family, nil
}

// Known lists all registered unit strings in sorted order.
func Known() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
