// Package catalog loads named vetting criteria and their target ranges
// from YAML files.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/iamcompact/iamvet-cli/internal/aggregate"
	"github.com/iamcompact/iamvet-cli/internal/compare"
	"github.com/iamcompact/iamvet-cli/internal/criterion"
	"github.com/iamcompact/iamvet-cli/internal/dataset"
	"github.com/iamcompact/iamvet-cli/internal/iamio"
	"github.com/iamcompact/iamvet-cli/internal/target"
)

// ErrInvalidCatalog wraps every catalog validation error.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Entry is one built target range with the spec it came from.
type Entry struct {
	Spec   CriterionSpec
	Target *target.TargetRange
}

// Catalog is a loaded set of target ranges.
type Catalog struct {
	Path       string
	References map[string]*dataset.Dataset
	Entries    []Entry
}

// Targets returns the target ranges in catalog order.
func (c *Catalog) Targets() []*target.TargetRange {
	out := make([]*target.TargetRange, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Target
	}
	return out
}

// Lookup returns the entry named name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i := slices.IndexFunc(c.Entries, func(e Entry) bool { return e.Target.Name() == name })
	if i < 0 {
		return Entry{}, false
	}
	return c.Entries[i], true
}

// Names returns the target range names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Target.Name()
	}
	return out
}

// Select returns the entries named in names, in the order given. An empty
// names selects every entry.
func (c *Catalog) Select(names []string) ([]Entry, error) {
	if len(names) == 0 {
		return slices.Clone(c.Entries), nil
	}
	out := make([]Entry, 0, len(names))
	for _, n := range names {
		e, ok := c.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown criterion %q (known: %s)", n, strings.Join(c.Names(), ", "))
		}
		if slices.ContainsFunc(out, func(x Entry) bool { return x.Target == e.Target }) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Describe summarises the target and range of e on one line.
func (e Entry) Describe() string {
	tr := e.Target
	num := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	s := "target " + num(tr.Target())
	if u := tr.Unit(); u != "" {
		s += " " + u
	}
	if b, ok := tr.Range(); ok {
		s += fmt.Sprintf(", range %s to %s", num(b.Lower), num(b.Upper))
	}
	return s
}

// Decode parses a catalog document. Unknown keys are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &doc, nil
}

// Load reads, validates and builds the catalog at path.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c, err := Build(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Build loads the references of doc, resolving relative paths against
// baseDir, and builds every criterion and target range.
func Build(doc *Document, baseDir string) (*Catalog, error) {
	refs := make(map[string]*dataset.Dataset, len(doc.References))
	names := make([]string, 0, len(doc.References))
	for name := range doc.References {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		spec := doc.References[name]
		if spec.Path == "" {
			return nil, fmt.Errorf("%w: reference %q has no path", ErrInvalidCatalog, name)
		}
		p := spec.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		ds, err := iamio.ReadDataset(p, spec.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: reference %q: %w", ErrInvalidCatalog, name, err)
		}
		if len(spec.Filter) > 0 {
			f, err := parseFilter(spec.Filter)
			if err != nil {
				return nil, fmt.Errorf("%w: reference %q: %w", ErrInvalidCatalog, name, err)
			}
			ds = ds.Filter(f)
		}
		if ds.Empty() {
			return nil, fmt.Errorf("%w: reference %q holds no data", ErrInvalidCatalog, name)
		}
		logf(name, "loaded reference: %d data points", ds.Len())
		refs[name] = ds
	}
	return BuildWith(doc, refs)
}

// BuildWith builds doc against already loaded references. Reference specs
// in doc are ignored.
func BuildWith(doc *Document, refs map[string]*dataset.Dataset) (*Catalog, error) {
	if len(doc.Criteria) == 0 {
		return nil, fmt.Errorf("%w: no criteria", ErrInvalidCatalog)
	}
	c := &Catalog{References: refs}
	seen := map[string]bool{}
	for i, spec := range doc.Criteria {
		tr, err := buildEntry(spec, refs)
		if err != nil {
			label := spec.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("%w: criterion %s: %w", ErrInvalidCatalog, label, err)
		}
		if seen[tr.Name()] {
			return nil, fmt.Errorf("%w: criterion name %q is used twice", ErrInvalidCatalog, tr.Name())
		}
		seen[tr.Name()] = true
		logf(tr.Name(), "built %s criterion", spec.Kind)
		c.Entries = append(c.Entries, Entry{Spec: spec, Target: tr})
	}
	return c, nil
}

func buildEntry(spec CriterionSpec, refs map[string]*dataset.Dataset) (*target.TargetRange, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	critName := spec.CriterionName
	if critName == "" {
		critName = spec.Name
	}

	var (
		crit criterion.Criterion
		err  error
	)
	switch spec.Kind {
	case KindSingleVariable:
		unit := spec.CriterionUnit
		if unit == "" {
			unit = spec.Unit
		}
		crit, err = criterion.NewSingleVariable(critName, spec.Variable, spec.Region, spec.Year, unit)
	case KindChangeOverTime:
		crit, err = criterion.NewChangeOverTime(critName, spec.Variable, spec.Region, spec.Year, spec.ReferenceYear)
	case KindTimeseriesRef, KindHarmonization:
		crit, err = buildTimeseries(critName, spec, refs)
	case "":
		return nil, fmt.Errorf("kind is required")
	default:
		return nil, fmt.Errorf("unknown kind %q (expected %s)", spec.Kind,
			strings.Join([]string{KindSingleVariable, KindChangeOverTime, KindTimeseriesRef, KindHarmonization}, "|"))
	}
	if err != nil {
		return nil, err
	}

	apply, err := targetOverrides(spec)
	if err != nil {
		return nil, err
	}
	if spec.Kind == KindHarmonization {
		tr, err := target.NewHarmonization(crit)
		if err != nil {
			return nil, err
		}
		if err := tr.Update(apply); err != nil {
			return nil, err
		}
		return tr, nil
	}
	if spec.Target == nil {
		return nil, fmt.Errorf("target is required")
	}
	var cfg target.Config
	apply(&cfg)
	return target.New(crit, cfg)
}

func buildTimeseries(name string, spec CriterionSpec, refs map[string]*dataset.Dataset) (*criterion.TimeseriesRef, error) {
	if spec.Reference == "" {
		return nil, fmt.Errorf("reference is required for kind %s", spec.Kind)
	}
	ref, ok := refs[spec.Reference]
	if !ok {
		return nil, fmt.Errorf("unknown reference %q", spec.Reference)
	}

	var opts []criterion.Option
	if spec.BroadcastDims != nil {
		dims, err := dataset.ParseDims(spec.BroadcastDims)
		if err != nil {
			return nil, err
		}
		opts = append(opts, criterion.WithBroadcastDims(dims...))
	}
	if spec.MatchDims != nil {
		dims, err := dataset.ParseDims(spec.MatchDims)
		if err != nil {
			return nil, err
		}
		opts = append(opts, criterion.WithMatchDims(dims...))
	}
	if spec.MatchTime != nil {
		opts = append(opts, criterion.WithMatchTime(*spec.MatchTime))
	}
	if spec.RegionAgg != nil {
		s, err := aggSpec(spec.RegionAgg)
		if err != nil {
			return nil, fmt.Errorf("region-agg: %w", err)
		}
		opts = append(opts, criterion.WithRegionAgg(s))
	}
	if spec.TimeAgg != nil {
		s, err := aggSpec(spec.TimeAgg)
		if err != nil {
			return nil, fmt.Errorf("time-agg: %w", err)
		}
		opts = append(opts, criterion.WithTimeAgg(s))
	}
	if spec.Order != "" {
		o, err := aggregate.ParseOrder(spec.Order)
		if err != nil {
			return nil, err
		}
		opts = append(opts, criterion.WithOrder(o))
	}
	if spec.AggDims != "" {
		d, err := aggregate.ParseDims(spec.AggDims)
		if err != nil {
			return nil, err
		}
		opts = append(opts, criterion.WithAggDims(d))
	}
	if len(spec.Filter) > 0 {
		f, err := parseFilter(spec.Filter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, criterion.WithSubjectFilter(f))
	}
	if spec.CriterionUnit != "" {
		opts = append(opts, criterion.WithUnit(spec.CriterionUnit))
	}

	if spec.Kind == KindHarmonization {
		if spec.Comparison != nil {
			return nil, fmt.Errorf("harmonization criteria always compare by ratio")
		}
		return criterion.NewHarmonizationRatio(name, ref, opts...)
	}
	if spec.Comparison == nil {
		return nil, fmt.Errorf("comparison is required for kind %s", spec.Kind)
	}
	cmp, err := comparison(spec.Comparison)
	if err != nil {
		return nil, err
	}
	return criterion.NewTimeseriesRef(name, ref, cmp, opts...)
}

func comparison(c *ComparisonSpec) (compare.Comparison, error) {
	var fn compare.SeriesFunc
	switch strings.ToLower(strings.TrimSpace(c.Func)) {
	case FuncDifference:
		fn = compare.Difference(c.Absolute)
	case FuncRatio:
		var ro []compare.RatioOption
		if c.DivByZero != nil {
			ro = append(ro, compare.WithDivByZero(*c.DivByZero))
		}
		if c.ZeroByZero != nil {
			ro = append(ro, compare.WithZeroByZero(*c.ZeroByZero))
		}
		if c.Unit != "" {
			ro = append(ro, compare.WithUnit(c.Unit))
		}
		fn = compare.Ratio(ro...)
	default:
		return nil, fmt.Errorf("unknown comparison func %q (expected %s|%s)", c.Func, FuncDifference, FuncRatio)
	}
	if c.MatchUnits != nil && !*c.MatchUnits {
		return compare.Raw(fn), nil
	}
	return compare.Reconciled(fn), nil
}

func aggSpec(a *AggSpec) (aggregate.Spec, error) {
	return aggregate.NamedArgs(a.Func, a.Args, a.Kwargs)
}

func parseFilter(m map[string][]string) (dataset.Filter, error) {
	f := dataset.Filter{}
	for k, v := range m {
		d, err := dataset.ParseDim(k)
		if err != nil {
			return nil, err
		}
		f[d] = v
	}
	if err := f.Check(); err != nil {
		return nil, err
	}
	return f, nil
}

// targetOverrides checks the target fields of spec and returns a function
// that writes the ones set onto a Config. Unset fields keep the value they
// already have, so harmonisation entries start from the preset.
func targetOverrides(spec CriterionSpec) (func(*target.Config), error) {
	var (
		bounds   *target.Bounds
		relative *target.RelativeRange
	)
	if spec.Range != nil {
		if len(spec.Range) != 2 {
			return nil, fmt.Errorf("range must be [lower, upper]")
		}
		bounds = &target.Bounds{Lower: spec.Range[0], Upper: spec.Range[1]}
	}
	if spec.Relative != nil {
		if len(spec.Relative) != 2 {
			return nil, fmt.Errorf("relative must be [lower, upper]")
		}
		relative = &target.RelativeRange{Lower: spec.Relative[0], Upper: spec.Relative[1]}
	}
	if spec.Tolerance != nil {
		if spec.Kind != KindHarmonization {
			return nil, fmt.Errorf("tolerance only applies to %s criteria", KindHarmonization)
		}
		if spec.Range != nil || spec.Relative != nil {
			return nil, fmt.Errorf("tolerance cannot be combined with range or relative")
		}
		tol := *spec.Tolerance
		relative = &target.RelativeRange{Lower: 1 - tol, Upper: 1 + tol}
	}

	var distance target.DistanceFunc
	if spec.Distance != "" || spec.Kind != KindHarmonization {
		d, err := distanceFunc(spec.Distance)
		if err != nil {
			return nil, err
		}
		distance = d
	}

	return func(c *target.Config) {
		c.Name = spec.Name
		c.Unit = spec.Unit
		c.ValueUnit = spec.ValueUnit
		c.ConvertValueUnits = spec.ConvertValueUnits
		c.ConvertInputUnits = spec.ConvertInputUnits
		if spec.Target != nil {
			c.Target = *spec.Target
		}
		if bounds != nil || relative != nil {
			c.Range, c.Relative = bounds, relative
		}
		if distance != nil {
			c.Distance = distance
		}
	}, nil
}

func distanceFunc(name string) (target.DistanceFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "relative":
		return target.DefaultDistance, nil
	case "absolute":
		return target.AbsoluteDistance, nil
	case "log-ratio":
		return target.LogRatioDistance, nil
	}
	return nil, fmt.Errorf("unknown distance %q (expected default|absolute|log-ratio)", name)
}
