package catalog

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Document is the YAML layout of a catalog file.
type Document struct {
	References map[string]ReferenceSpec `yaml:"references"`
	Criteria   []CriterionSpec          `yaml:"criteria"`
}

// ReferenceSpec names a reference data file. Relative paths are resolved
// against the catalog's directory.
type ReferenceSpec struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	// Filter restricts the reference after loading.
	Filter map[string][]string `yaml:"filter"`
}

// Kinds of criteria.
const (
	KindSingleVariable = "single-variable"
	KindChangeOverTime = "change-over-time"
	KindTimeseriesRef  = "timeseries-ref"
	KindHarmonization  = "harmonization"
)

// CriterionSpec describes one criterion and its target range.
type CriterionSpec struct {
	Name          string `yaml:"name"`
	CriterionName string `yaml:"criterion-name"`
	Kind          string `yaml:"kind"`

	// single-variable and change-over-time
	Variable      string `yaml:"variable"`
	Region        string `yaml:"region"`
	Year          int    `yaml:"year"`
	ReferenceYear int    `yaml:"reference-year"`

	// timeseries-ref and harmonization
	Reference     string              `yaml:"reference"`
	Comparison    *ComparisonSpec     `yaml:"comparison"`
	RegionAgg     *AggSpec            `yaml:"region-agg"`
	TimeAgg       *AggSpec            `yaml:"time-agg"`
	Order         string              `yaml:"order"`
	AggDims       string              `yaml:"agg-dims"`
	BroadcastDims []string            `yaml:"broadcast-dims"`
	MatchDims     []string            `yaml:"match-dims"`
	MatchTime     *bool               `yaml:"match-time"`
	Filter        map[string][]string `yaml:"filter"`
	CriterionUnit string              `yaml:"criterion-unit"`
	Tolerance     *float64            `yaml:"tolerance"`

	// target range
	Target            *float64  `yaml:"target"`
	Range             []float64 `yaml:"range"`
	Relative          []float64 `yaml:"relative"`
	Distance          string    `yaml:"distance"`
	Unit              string    `yaml:"unit"`
	ValueUnit         string    `yaml:"value-unit"`
	ConvertValueUnits *bool     `yaml:"convert-value-units"`
	ConvertInputUnits bool      `yaml:"convert-input-units"`
}

// Comparison functions.
const (
	FuncDifference = "difference"
	FuncRatio      = "ratio"
)

// ComparisonSpec selects a comparison function.
type ComparisonSpec struct {
	Func       string   `yaml:"func"`
	Absolute   bool     `yaml:"absolute"`
	DivByZero  *float64 `yaml:"div-by-zero"`
	ZeroByZero *float64 `yaml:"zero-by-zero"`
	Unit       string   `yaml:"unit"`
	// MatchUnits converts subject units into the reference's before
	// comparing. Default true.
	MatchUnits *bool `yaml:"match-units"`
}

// AggSpec is an aggregation written either as a function name or as a
// mapping with positional and keyword arguments:
//
//	time-agg: mean
//	time-agg: {func: quantile, args: [0.9]}
type AggSpec struct {
	Func   string         `yaml:"func"`
	Args   []any          `yaml:"args"`
	Kwargs map[string]any `yaml:"kwargs"`
}

// UnmarshalYAML accepts the scalar and mapping forms.
func (a *AggSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&a.Func)
	case yaml.MappingNode:
		type plain AggSpec
		var p plain
		if err := n.Decode(&p); err != nil {
			return err
		}
		*a = AggSpec(p)
		return nil
	}
	return fmt.Errorf("line %d: aggregation must be a name or a mapping", n.Line)
}

// MarshalYAML writes the scalar form when there are no arguments.
func (a AggSpec) MarshalYAML() (any, error) {
	if len(a.Args) == 0 && len(a.Kwargs) == 0 {
		return a.Func, nil
	}
	type plain AggSpec
	return plain(a), nil
}
