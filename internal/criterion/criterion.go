// Package criterion defines vetting criteria: named rules that turn a
// subject dataset into one number per model and scenario.
package criterion

import (
	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// Criterion computes the values a target range is checked against.
//
// Implementations are configured once and hold no mutable state, so a
// Criterion is safe for concurrent use.
type Criterion interface {
	// Name identifies the criterion in reports.
	Name() string
	// Unit is the unit of the values returned by Values, or "" if unknown.
	Unit() string
	// Values returns one value per model and scenario, possibly with
	// further index levels the criterion does not reduce.
	Values(subject *dataset.Dataset) (*dataset.Series, error)
}

// Comparing is a Criterion that compares the subject against reference
// data and exposes the comparison before aggregation.
type Comparing interface {
	Criterion
	Compare(subject *dataset.Dataset) (*dataset.Series, error)
}
