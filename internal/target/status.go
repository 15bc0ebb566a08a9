package target

import (
	"github.com/iamcompact/iamvet-cli/internal/criterion"
	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// Status is a pass/fail verdict for one value.
type Status int

const (
	Fail Status = iota
	Pass
)

func (s Status) String() string {
	if s == Pass {
		return "pass"
	}
	return "fail"
}

// PassFail maps in-range values to Pass.
func PassFail(_ float64, inRange bool, _ float64) Status {
	if inRange {
		return Pass
	}
	return Fail
}

// Classify maps every evaluated value to a caller-defined status. The
// evaluation must carry range flags.
func Classify[S any](ev *Evaluation, fn func(value float64, inRange bool, distance float64) S) (*dataset.Indexed[S], error) {
	if ev.InRange == nil {
		return nil, ErrNoRange
	}
	out := dataset.NewIndexed[S](ev.Values.Levels()...)
	for i := 0; i < ev.Values.Len(); i++ {
		if err := out.Append(ev.Values.Labels(i), fn(ev.Values.Value(i), ev.InRange.Value(i), ev.Distance.Value(i))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// HarmonizationTolerance is the default relative tolerance around a
// harmonised reference.
const HarmonizationTolerance = 0.02

// NewHarmonization wraps a ratio criterion with target 1, a relative range
// of ±HarmonizationTolerance and distance value - 1.
func NewHarmonization(crit criterion.Criterion) (*TargetRange, error) {
	return New(crit, Config{
		Target:   1,
		Relative: &RelativeRange{Lower: 1 - HarmonizationTolerance, Upper: 1 + HarmonizationTolerance},
		Distance: AbsoluteDistance,
	})
}
