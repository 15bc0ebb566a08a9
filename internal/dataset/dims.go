// Package dataset holds scenario data indexed by the IAMC dimensions
// (model, scenario, region, variable, unit, year) and the generic
// multi-level indexed container used for everything derived from it.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDimension is returned for a dimension name outside the IAMC set.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrDuplicateKey is returned when an operation would produce two rows
	// with the same full index key.
	ErrDuplicateKey = errors.New("duplicate index key")
	// ErrMissingLevel is returned when an operation names a level the series
	// does not carry.
	ErrMissingLevel = errors.New("missing index level")
	// ErrAmbiguousUnit is returned when unit reconciliation finds more than
	// one target unit for the same key.
	ErrAmbiguousUnit = errors.New("ambiguous target unit")
)

// Dim names one index dimension.
type Dim string

const (
	Model    Dim = "model"
	Scenario Dim = "scenario"
	Region   Dim = "region"
	Variable Dim = "variable"
	Unit     Dim = "unit"
	Year     Dim = "year"
)

// IAMC lists the dimensions of a Dataset in index order.
var IAMC = []Dim{Model, Scenario, Region, Variable, Unit, Year}

func (d Dim) String() string { return string(d) }

// Valid reports whether d is one of the IAMC dimensions.
func (d Dim) Valid() bool {
	for _, x := range IAMC {
		if x == d {
			return true
		}
	}
	return false
}

// ParseDim resolves a dimension name case-insensitively. "time" is accepted
// as an alias for year.
func ParseDim(s string) (Dim, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	if n == "time" {
		return Year, nil
	}
	d := Dim(n)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownDimension, s, joinDims(IAMC))
	}
	return d, nil
}

// ParseDims resolves a list of dimension names.
func ParseDims(names []string) ([]Dim, error) {
	out := make([]Dim, 0, len(names))
	for _, n := range names {
		d, err := ParseDim(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// CheckDims returns ErrUnknownDimension if any of dims is not an IAMC dimension.
func CheckDims(dims ...Dim) error {
	for _, d := range dims {
		if !d.Valid() {
			return fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownDimension, string(d), joinDims(IAMC))
		}
	}
	return nil
}

func containsDim(dims []Dim, d Dim) bool {
	for _, x := range dims {
		if x == d {
			return true
		}
	}
	return false
}

func joinDims(dims []Dim) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}
