package compare

import (
	"fmt"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// Comparison compares a subject dataset with a reference dataset.
type Comparison interface {
	Compare(subject, reference *dataset.Dataset) (*dataset.Series, error)
}

// ComparisonFunc adapts a plain function to Comparison.
type ComparisonFunc func(subject, reference *dataset.Dataset) (*dataset.Series, error)

// Compare calls f.
func (f ComparisonFunc) Compare(subject, reference *dataset.Dataset) (*dataset.Series, error) {
	return f(subject, reference)
}

// SeriesComparison runs a SeriesFunc on dataset inputs. With MatchUnits set,
// subject rows are first converted into the unit the reference uses for the
// same key on UnitDims (variable by default).
type SeriesComparison struct {
	Func       SeriesFunc
	MatchUnits bool
	UnitDims   []dataset.Dim
}

// Compare implements Comparison.
func (c SeriesComparison) Compare(subject, reference *dataset.Dataset) (*dataset.Series, error) {
	if c.Func == nil {
		return nil, fmt.Errorf("series comparison has no function")
	}
	if c.MatchUnits {
		converted, err := dataset.MatchUnits(subject, reference, c.UnitDims...)
		if err != nil {
			return nil, err
		}
		subject = converted
	}
	return c.Func(subject.Series(false), reference.Series(false))
}

// Reconciled wraps fn so that units are reconciled before it runs.
func Reconciled(fn SeriesFunc) SeriesComparison {
	return SeriesComparison{Func: fn, MatchUnits: true}
}

// Raw wraps fn without unit reconciliation. Rows whose units differ from the
// reference do not align and are dropped.
func Raw(fn SeriesFunc) SeriesComparison {
	return SeriesComparison{Func: fn}
}
