// Package vetting runs a set of target ranges against one subject dataset
// and collects the resulting report tables.
package vetting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
	"github.com/iamcompact/iamvet-cli/internal/report"
	"github.com/iamcompact/iamvet-cli/internal/target"
)

// ErrNoTargets is returned when Run is given nothing to evaluate.
var ErrNoTargets = errors.New("no target ranges to evaluate")

// Stage is the state of one target range within a run.
type Stage int

const (
	Started Stage = iota
	Finished
	Failed
)

// Event reports progress on the target range at Index.
type Event struct {
	Index int
	Name  string
	Stage Stage
	// Total counts the values of a Finished target; Passed counts those
	// in range when Ranged.
	Passed, Total int
	Ranged        bool
	Err           error
}

// Options controls Run.
type Options struct {
	// Columns selects the table columns. All columns when empty.
	Columns []report.Column
	// FailFast aborts the run on the first failing target range.
	FailFast bool
	// Progress is called synchronously for every event.
	Progress func(Event)
}

// Failure records a target range that could not be evaluated.
type Failure struct {
	Name string
	Err  error
}

// Outcome summarises one evaluated target range.
type Outcome struct {
	Name      string
	Criterion string
	Unit      string
	Target    float64
	Bounds    *target.Bounds
	Passed    int
	Total     int
}

// HasRange reports whether pass counts are meaningful.
func (o Outcome) HasRange() bool { return o.Bounds != nil }

// Result is the outcome of a run.
type Result struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Tables   *report.Multi
	Outcomes []Outcome
	Failures []Failure
}

// Run evaluates every target range on subject in order. A target range
// that fails is recorded in Failures, and ends the run only when
// opts.FailFast is set. Cancelling ctx stops the run between target ranges.
func Run(ctx context.Context, subject *dataset.Dataset, targets []*target.TargetRange, opts Options) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	res := &Result{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Tables:  report.NewMulti(),
	}
	emit := func(e Event) {
		if opts.Progress != nil {
			opts.Progress(e)
		}
	}
	logf("", "run %s: %d target ranges, %d data points", res.RunID, len(targets), subject.Len())

	for i, tr := range targets {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(res.Started)
			return res, err
		}
		name := tr.Name()
		emit(Event{Index: i, Name: name, Stage: Started})

		ev, err := tr.Evaluate(subject)
		if err == nil {
			err = res.Tables.Add(name, tr.Criterion().Name(), report.FromEvaluation(ev, opts.Columns...))
		}
		if err != nil {
			logf(name, "failed: %v", err)
			res.Failures = append(res.Failures, Failure{Name: name, Err: err})
			emit(Event{Index: i, Name: name, Stage: Failed, Err: err})
			if opts.FailFast {
				res.Duration = time.Since(res.Started)
				return res, fmt.Errorf("target range %q: %w", name, err)
			}
			continue
		}

		o := outcome(tr, ev)
		res.Outcomes = append(res.Outcomes, o)
		logf(name, "%d values, %d in range", o.Total, o.Passed)
		emit(Event{Index: i, Name: name, Stage: Finished, Passed: o.Passed, Total: o.Total, Ranged: o.HasRange()})
	}
	res.Duration = time.Since(res.Started)
	return res, nil
}

func outcome(tr *target.TargetRange, ev *target.Evaluation) Outcome {
	o := Outcome{
		Name:      ev.Name,
		Criterion: tr.Criterion().Name(),
		Unit:      ev.Unit,
		Target:    ev.Target,
		Bounds:    ev.Bounds,
		Total:     ev.Values.Len(),
	}
	if ev.InRange != nil {
		for _, in := range ev.InRange.Values() {
			if in {
				o.Passed++
			}
		}
	}
	return o
}

// Summary pivots col across the result tables. Only tables indexed like
// the first one take part; the names of the others are returned as
// skipped.
func (r *Result) Summary(col report.Column, names report.NameSource) (*report.Table, []string, error) {
	keys := r.Tables.Keys()
	if len(keys) == 0 {
		return &report.Table{Name: "Summary: " + col.Title()}, nil, nil
	}
	first, _ := r.Tables.Table(keys[0])
	sub := report.NewMulti()
	var skipped []string
	for _, o := range r.Outcomes {
		t, ok := r.Tables.Table(o.Name)
		if !ok {
			continue
		}
		if !slices.Equal(t.Index, first.Index) {
			skipped = append(skipped, o.Name)
			continue
		}
		if err := sub.Add(o.Name, o.Criterion, t); err != nil {
			return nil, nil, err
		}
	}
	s, err := sub.Summary(col, names)
	if err != nil {
		return nil, nil, err
	}
	return s, skipped, nil
}

// AllTables returns the per-target tables followed by the summary of col,
// in the order they should be written.
func (r *Result) AllTables(col report.Column, names report.NameSource) ([]*report.Table, error) {
	out := r.Tables.Tables()
	if len(out) < 2 {
		return out, nil
	}
	s, skipped, err := r.Summary(col, names)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		logf("", "summary leaves out %d tables with a different index: %v", len(skipped), skipped)
	}
	return append([]*report.Table{s}, out...), nil
}

// Passed reports whether every evaluated value of every ranged target lies
// in range and nothing failed.
func (r *Result) Passed() bool {
	if len(r.Failures) > 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if o.HasRange() && o.Passed != o.Total {
			return false
		}
	}
	return true
}
