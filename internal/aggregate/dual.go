package aggregate

import (
	"fmt"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// Order selects which dimension is reduced first.
type Order int

const (
	RegionFirst Order = iota
	TimeFirst
)

func (o Order) String() string {
	if o == TimeFirst {
		return "time-first"
	}
	return "region-first"
}

// ParseOrder accepts "region-first" / "region" and "time-first" / "time".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "region-first", "region":
		return RegionFirst, nil
	case "time-first", "time":
		return TimeFirst, nil
	}
	return 0, fmt.Errorf("invalid aggregation order %q (expected region-first|time-first)", s)
}

// Dims selects which dimensions are reduced.
type Dims int

const (
	Both Dims = iota
	RegionOnly
	TimeOnly
)

func (d Dims) String() string {
	switch d {
	case RegionOnly:
		return "region"
	case TimeOnly:
		return "time"
	}
	return "both"
}

// ParseDims accepts "both", "region" and "time".
func ParseDims(s string) (Dims, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return Both, nil
	case "region":
		return RegionOnly, nil
	case "time", "year":
		return TimeOnly, nil
	}
	return 0, fmt.Errorf("invalid aggregation dims %q (expected both|region|time)", s)
}

// Over reduces s over level d, grouping by every other level. Groups keep
// the order in which they first appear.
func Over(s *dataset.Series, d dataset.Dim, spec Spec) (*dataset.Series, error) {
	groups, err := s.GroupBy(d)
	if err != nil {
		return nil, err
	}
	levels := make([]dataset.Dim, 0, len(s.Levels())-1)
	for _, l := range s.Levels() {
		if l != d {
			levels = append(levels, l)
		}
	}
	out := dataset.NewSeries(levels...)
	buf := make([]float64, 0, 16)
	for _, g := range groups {
		buf = buf[:0]
		for _, i := range g.Rows {
			buf = append(buf, s.Value(i))
		}
		v, err := spec.Apply(buf)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s over %s: %w", spec.Name(), d, err)
		}
		out.MustAppend(g.Labels, v)
	}
	return out, nil
}

// DualAggregator reduces a series over region and time in a configured
// order. Order matters for non-commuting reductions such as max over
// regions combined with mean over time.
type DualAggregator struct {
	Region Spec
	Time   Spec
	Order  Order
	Dims   Dims
}

// NewDual normalises the region and time specs. A spec may be omitted only
// when Dims excludes its dimension.
func NewDual(region, time any, order Order, dims Dims) (*DualAggregator, error) {
	a := &DualAggregator{Order: order, Dims: dims}
	if dims != TimeOnly {
		s, err := Parse(region)
		if err != nil {
			return nil, fmt.Errorf("region aggregation: %w", err)
		}
		a.Region = s
	}
	if dims != RegionOnly {
		s, err := Parse(time)
		if err != nil {
			return nil, fmt.Errorf("time aggregation: %w", err)
		}
		a.Time = s
	}
	return a, nil
}

// Aggregate reduces s. The result drops the reduced levels and keeps all
// others.
func (a *DualAggregator) Aggregate(s *dataset.Series) (*dataset.Series, error) {
	type step struct {
		dim  dataset.Dim
		spec Spec
	}
	var steps []step
	region := step{dataset.Region, a.Region}
	time := step{dataset.Year, a.Time}
	switch a.Dims {
	case RegionOnly:
		steps = []step{region}
	case TimeOnly:
		steps = []step{time}
	default:
		if a.Order == TimeFirst {
			steps = []step{time, region}
		} else {
			steps = []step{region, time}
		}
	}

	out := s
	for _, st := range steps {
		if st.spec.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrMissingAggregation, st.dim)
		}
		next, err := Over(out, st.dim, st.spec)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
