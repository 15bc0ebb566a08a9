package criterion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// SingleVariable reads one variable in one region and year, giving one
// value per model and scenario. When a unit is set, values are converted
// into it first.
type SingleVariable struct {
	name     string
	variable string
	region   string
	year     int
	unit     string
}

// NewSingleVariable returns a SingleVariable criterion.
func NewSingleVariable(name, variable, region string, year int, unit string) (*SingleVariable, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("criterion name is required")
	}
	if variable == "" || region == "" {
		return nil, fmt.Errorf("criterion %q: variable and region are required", name)
	}
	return &SingleVariable{name: name, variable: variable, region: region, year: year, unit: unit}, nil
}

// Name implements Criterion.
func (c *SingleVariable) Name() string { return c.name }

// Unit implements Criterion.
func (c *SingleVariable) Unit() string { return c.unit }

// Values implements Criterion.
func (c *SingleVariable) Values(subject *dataset.Dataset) (*dataset.Series, error) {
	sel, err := c.selectYear(subject, c.year)
	if err != nil {
		return nil, err
	}
	return byModelScenario(c.name, sel)
}

func (c *SingleVariable) selectYear(subject *dataset.Dataset, year int) (*dataset.Dataset, error) {
	sel := subject.Filter(dataset.Filter{
		dataset.Variable: {c.variable},
		dataset.Region:   {c.region},
		dataset.Year:     {strconv.Itoa(year)},
	})
	if c.unit == "" {
		return sel, nil
	}
	conv, err := sel.ConvertAll(c.unit)
	if err != nil {
		return nil, fmt.Errorf("criterion %q: %w", c.name, err)
	}
	return conv, nil
}

// byModelScenario reduces a selection that holds one row per model and
// scenario to a Series on those two levels.
func byModelScenario(name string, d *dataset.Dataset) (*dataset.Series, error) {
	out := dataset.NewSeries(dataset.Model, dataset.Scenario)
	for _, p := range d.Points() {
		if err := out.Append([]string{p.Model, p.Scenario}, p.Value); err != nil {
			return nil, fmt.Errorf("criterion %q: %w", name, err)
		}
	}
	return out, nil
}

// ChangeOverTime measures the relative change of a variable between a
// reference year and a later year: (v(year) - v(ref)) / v(ref). A zero
// reference value gives +Inf, or 0 when the later value is zero too.
type ChangeOverTime struct {
	base    SingleVariable
	refYear int
}

// NewChangeOverTime returns a ChangeOverTime criterion.
func NewChangeOverTime(name, variable, region string, year, referenceYear int) (*ChangeOverTime, error) {
	sv, err := NewSingleVariable(name, variable, region, year, "")
	if err != nil {
		return nil, err
	}
	if year == referenceYear {
		return nil, fmt.Errorf("criterion %q: year and reference year are both %d", name, year)
	}
	return &ChangeOverTime{base: *sv, refYear: referenceYear}, nil
}

// Name implements Criterion.
func (c *ChangeOverTime) Name() string { return c.base.name }

// Unit implements Criterion. Relative changes are dimensionless.
func (c *ChangeOverTime) Unit() string { return "" }

// Values implements Criterion. Models and scenarios lacking either year are
// dropped.
func (c *ChangeOverTime) Values(subject *dataset.Dataset) (*dataset.Series, error) {
	cur, err := c.base.selectYear(subject, c.base.year)
	if err != nil {
		return nil, err
	}
	ref, err := c.base.selectYear(subject, c.refYear)
	if err != nil {
		return nil, err
	}
	now, err := byModelScenario(c.base.name, cur)
	if err != nil {
		return nil, err
	}
	then, err := byModelScenario(c.base.name, ref)
	if err != nil {
		return nil, err
	}
	out := dataset.NewSeries(dataset.Model, dataset.Scenario)
	for i := 0; i < now.Len(); i++ {
		labels := now.Labels(i)
		r, ok := then.Lookup(labels)
		if !ok {
			continue
		}
		v := now.Value(i)
		var change float64
		switch {
		case r == 0 && v == 0:
			change = 0
		case r == 0:
			change = math.Inf(1)
		default:
			change = (v - r) / r
		}
		out.MustAppend(labels, change)
	}
	return out, nil
}
