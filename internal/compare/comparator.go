package compare

import (
	"errors"
	"fmt"
	"slices"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// ErrDimensionOverlap is returned when a dimension is configured both as a
// broadcast dimension and as a match dimension.
var ErrDimensionOverlap = errors.New("dimension is both broadcast and matched")

var (
	// DefaultBroadcastDims are the dimensions a reference is replicated over.
	DefaultBroadcastDims = []dataset.Dim{dataset.Model, dataset.Scenario}
	// DefaultMatchDims are the dimensions subject and reference are joined on,
	// in addition to year when time is matched.
	DefaultMatchDims = []dataset.Dim{dataset.Region, dataset.Variable}
)

// Comparator compares subjects against a fixed reference dataset.
//
// Before comparing, the subject is restricted to the reference's labels on
// the match dimensions and the reference is broadcast across the subject's
// broadcast-dimension combinations. A Comparator is immutable and safe for
// concurrent use.
type Comparator struct {
	reference *dataset.Dataset
	cmp       Comparison
	broadcast []dataset.Dim
	match     []dataset.Dim
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*comparatorConfig)

type comparatorConfig struct {
	broadcast []dataset.Dim
	match     []dataset.Dim
	matchTime bool
}

// BroadcastDims sets the dimensions the reference is replicated over.
func BroadcastDims(dims ...dataset.Dim) ComparatorOption {
	return func(c *comparatorConfig) { c.broadcast = slices.Clone(dims) }
}

// MatchDims sets the dimensions subject and reference are joined on.
func MatchDims(dims ...dataset.Dim) ComparatorOption {
	return func(c *comparatorConfig) { c.match = slices.Clone(dims) }
}

// MatchTime controls whether year is a match dimension. When false, year is
// broadcast instead, so the reference must hold a single year.
func MatchTime(v bool) ComparatorOption {
	return func(c *comparatorConfig) { c.matchTime = v }
}

// NewComparator validates the configuration against the reference and
// returns a Comparator.
func NewComparator(reference *dataset.Dataset, cmp Comparison, opts ...ComparatorOption) (*Comparator, error) {
	if reference == nil {
		return nil, fmt.Errorf("comparator: reference dataset is nil")
	}
	if cmp == nil {
		return nil, fmt.Errorf("comparator: comparison is nil")
	}
	cfg := comparatorConfig{
		broadcast: slices.Clone(DefaultBroadcastDims),
		match:     slices.Clone(DefaultMatchDims),
		matchTime: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := dataset.CheckDims(cfg.broadcast...); err != nil {
		return nil, err
	}
	if err := dataset.CheckDims(cfg.match...); err != nil {
		return nil, err
	}
	if slices.Contains(cfg.broadcast, dataset.Unit) {
		return nil, fmt.Errorf("comparator: %s cannot be broadcast", dataset.Unit)
	}

	if cfg.matchTime {
		if !slices.Contains(cfg.match, dataset.Year) {
			cfg.match = append(cfg.match, dataset.Year)
		}
	} else if !slices.Contains(cfg.broadcast, dataset.Year) {
		cfg.broadcast = append(cfg.broadcast, dataset.Year)
	}
	for _, d := range cfg.broadcast {
		if slices.Contains(cfg.match, d) {
			return nil, fmt.Errorf("%w: %s", ErrDimensionOverlap, d)
		}
	}

	if err := CheckBroadcastable(reference, cfg.broadcast); err != nil {
		return nil, err
	}

	return &Comparator{
		reference: reference,
		cmp:       cmp,
		broadcast: cfg.broadcast,
		match:     cfg.match,
	}, nil
}

// Reference returns the reference dataset.
func (c *Comparator) Reference() *dataset.Dataset { return c.reference }

// BroadcastDims returns the effective broadcast dimensions.
func (c *Comparator) BroadcastDims() []dataset.Dim { return slices.Clone(c.broadcast) }

// MatchDims returns the effective match dimensions.
func (c *Comparator) MatchDims() []dataset.Dim { return slices.Clone(c.match) }

// Compare restricts subject to the reference's match-dimension labels,
// broadcasts the reference and applies the comparison.
func (c *Comparator) Compare(subject *dataset.Dataset) (*dataset.Series, error) {
	f := dataset.Filter{}
	for _, d := range c.match {
		if d == dataset.Unit {
			continue
		}
		f[d] = c.reference.Values(d)
	}
	subject = subject.Filter(f)

	ref, err := Broadcast(c.reference, subject, c.broadcast)
	if err != nil {
		return nil, err
	}
	return c.cmp.Compare(subject, ref)
}
