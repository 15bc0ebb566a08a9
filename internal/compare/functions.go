// Package compare holds the functions that compare a subject dataset with a
// reference dataset and the comparator that broadcasts a reference across
// the models and scenarios of a subject before comparing.
package compare

import (
	"fmt"
	"math"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// SeriesFunc compares two aligned series and returns one value per key
// present in both. Keys present in only one input are dropped.
type SeriesFunc func(subject, reference *dataset.Series) (*dataset.Series, error)

// Difference returns subject minus reference, or its absolute value.
// The subject's unit label is kept.
func Difference(absolute bool) SeriesFunc {
	return func(subject, reference *dataset.Series) (*dataset.Series, error) {
		return align(subject, reference, func(s, r float64) float64 {
			d := s - r
			if absolute {
				return math.Abs(d)
			}
			return d
		}, nil)
	}
}

// RatioOption configures Ratio.
type RatioOption func(*ratioConfig)

type ratioConfig struct {
	divByZero  float64
	zeroByZero float64
	unit       string
}

// WithDivByZero sets the value returned for a non-zero subject over a zero
// reference. The default is +Inf.
func WithDivByZero(v float64) RatioOption {
	return func(c *ratioConfig) { c.divByZero = v }
}

// WithZeroByZero sets the value returned when subject and reference are both
// zero. The default is 1.
func WithZeroByZero(v float64) RatioOption {
	return func(c *ratioConfig) { c.zeroByZero = v }
}

// WithUnit sets the unit label written on ratio results. The default is
// the empty, dimensionless unit.
func WithUnit(u string) RatioOption {
	return func(c *ratioConfig) { c.unit = u }
}

// Ratio returns subject divided by reference. Results are labelled with a
// dimensionless unit.
func Ratio(opts ...RatioOption) SeriesFunc {
	cfg := ratioConfig{divByZero: math.Inf(1), zeroByZero: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	unit := cfg.unit
	return func(subject, reference *dataset.Series) (*dataset.Series, error) {
		return align(subject, reference, func(s, r float64) float64 {
			switch {
			case r == 0 && s == 0:
				return cfg.zeroByZero
			case r == 0:
				return cfg.divByZero
			}
			return s / r
		}, &unit)
	}
}

// align joins subject and reference on their full key and applies op.
// When unit is set, the result's unit level is relabelled.
func align(subject, reference *dataset.Series, op func(s, r float64) float64, unit *string) (*dataset.Series, error) {
	levels := subject.Levels()
	ref := reference
	if !sameLevels(levels, reference.Levels()) {
		r, err := reference.Reorder(levels...)
		if err != nil {
			return nil, fmt.Errorf("align reference with subject: %w", err)
		}
		ref = r
	}
	ul := subject.Level(dataset.Unit)
	out := dataset.NewSeries(levels...)
	for i := 0; i < subject.Len(); i++ {
		labels := subject.Labels(i)
		r, ok := ref.Lookup(labels)
		if !ok {
			continue
		}
		if unit != nil && ul >= 0 {
			labels[ul] = *unit
		}
		if err := out.Append(labels, op(subject.Value(i), r)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sameLevels(a, b []dataset.Dim) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
