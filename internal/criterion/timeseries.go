package criterion

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/aggregate"
	"github.com/iamcompact/iamvet-cli/internal/compare"
	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// TimeseriesRef compares subject timeseries against a reference dataset and
// reduces the comparison to one value per model and scenario.
type TimeseriesRef struct {
	name       string
	unit       string
	comparator *compare.Comparator
	agg        *aggregate.DualAggregator
	filter     dataset.Filter
}

// Option configures a TimeseriesRef.
type Option func(*config)

type config struct {
	broadcast []dataset.Dim
	match     []dataset.Dim
	matchTime bool
	regionAgg any
	timeAgg   any
	order     aggregate.Order
	dims      aggregate.Dims
	unit      string
	filter    dataset.Filter
}

// WithBroadcastDims sets the dimensions the reference is replicated over.
// The default is model and scenario.
func WithBroadcastDims(dims ...dataset.Dim) Option {
	return func(c *config) { c.broadcast = slices.Clone(dims) }
}

// WithMatchDims sets the dimensions subject and reference are joined on.
// The default is region and variable.
func WithMatchDims(dims ...dataset.Dim) Option {
	return func(c *config) { c.match = slices.Clone(dims) }
}

// WithMatchTime controls whether years are matched. Default true.
func WithMatchTime(v bool) Option {
	return func(c *config) { c.matchTime = v }
}

// WithRegionAgg sets the region aggregation. Accepts anything aggregate.Parse does.
func WithRegionAgg(spec any) Option {
	return func(c *config) { c.regionAgg = spec }
}

// WithTimeAgg sets the time aggregation. Accepts anything aggregate.Parse does.
func WithTimeAgg(spec any) Option {
	return func(c *config) { c.timeAgg = spec }
}

// WithOrder sets which dimension is aggregated first.
func WithOrder(o aggregate.Order) Option {
	return func(c *config) { c.order = o }
}

// WithAggDims limits aggregation to region or time only.
func WithAggDims(d aggregate.Dims) Option {
	return func(c *config) { c.dims = d }
}

// WithUnit declares the unit of the criterion's values.
func WithUnit(u string) Option {
	return func(c *config) { c.unit = u }
}

// WithSubjectFilter restricts the subject before it is compared.
func WithSubjectFilter(f dataset.Filter) Option {
	return func(c *config) { c.filter = f }
}

// NewTimeseriesRef builds a criterion comparing against reference with cmp.
// Region and time aggregations are required unless excluded via WithAggDims.
func NewTimeseriesRef(name string, reference *dataset.Dataset, cmp compare.Comparison, opts ...Option) (*TimeseriesRef, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("criterion name is required")
	}
	cfg := config{matchTime: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.filter.Check(); err != nil {
		return nil, fmt.Errorf("criterion %q: %w", name, err)
	}

	var copts []compare.ComparatorOption
	if cfg.broadcast != nil {
		copts = append(copts, compare.BroadcastDims(cfg.broadcast...))
	}
	if cfg.match != nil {
		copts = append(copts, compare.MatchDims(cfg.match...))
	}
	copts = append(copts, compare.MatchTime(cfg.matchTime))
	comparator, err := compare.NewComparator(reference, cmp, copts...)
	if err != nil {
		return nil, fmt.Errorf("criterion %q: %w", name, err)
	}

	agg, err := aggregate.NewDual(cfg.regionAgg, cfg.timeAgg, cfg.order, cfg.dims)
	if err != nil {
		return nil, fmt.Errorf("criterion %q: %w", name, err)
	}

	return &TimeseriesRef{
		name:       name,
		unit:       cfg.unit,
		comparator: comparator,
		agg:        agg,
		filter:     cfg.filter,
	}, nil
}

// Name implements Criterion.
func (c *TimeseriesRef) Name() string { return c.name }

// Unit implements Criterion.
func (c *TimeseriesRef) Unit() string { return c.unit }

// Comparator returns the underlying comparator.
func (c *TimeseriesRef) Comparator() *compare.Comparator { return c.comparator }

// Aggregator returns the aggregation settings.
func (c *TimeseriesRef) Aggregator() aggregate.DualAggregator { return *c.agg }

// Compare returns the comparison values before aggregation, indexed by all
// IAMC dimensions.
func (c *TimeseriesRef) Compare(subject *dataset.Dataset) (*dataset.Series, error) {
	if len(c.filter) > 0 {
		subject = subject.Filter(c.filter)
	}
	s, err := c.comparator.Compare(subject)
	if err != nil {
		return nil, fmt.Errorf("criterion %q: %w", c.name, err)
	}
	return s, nil
}

// Values implements Criterion: the comparison aggregated over region and
// time.
func (c *TimeseriesRef) Values(subject *dataset.Dataset) (*dataset.Series, error) {
	s, err := c.Compare(subject)
	if err != nil {
		return nil, err
	}
	out, err := c.agg.Aggregate(s)
	if err != nil {
		return nil, fmt.Errorf("criterion %q: %w", c.name, err)
	}
	return out, nil
}

// NewHarmonizationRatio builds the criterion used to check harmonisation
// against a reference: the ratio of subject to reference values, with +Inf
// for a zero reference and 1 when both are zero, reduced by the maximum
// over time only, so that one value per region remains.
func NewHarmonizationRatio(name string, reference *dataset.Dataset, opts ...Option) (*TimeseriesRef, error) {
	base := []Option{
		WithRegionAgg("max"),
		WithTimeAgg("max"),
		WithAggDims(aggregate.TimeOnly),
	}
	return NewTimeseriesRef(name, reference,
		compare.Reconciled(compare.Ratio()),
		append(base, opts...)...)
}
