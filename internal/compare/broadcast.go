package compare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// ErrAmbiguousBroadcast is returned when a reference holds more than one
// value on a dimension it should be broadcast over.
var ErrAmbiguousBroadcast = errors.New("ambiguous broadcast")

// CheckBroadcastable reports ErrAmbiguousBroadcast when reference carries
// more than one label on any of dims.
func CheckBroadcastable(reference *dataset.Dataset, dims []dataset.Dim) error {
	for _, d := range dims {
		if vals := reference.Values(d); len(vals) > 1 {
			return fmt.Errorf("%w: reference has %d values on %s (%s)",
				ErrAmbiguousBroadcast, len(vals), d, strings.Join(vals, ", "))
		}
	}
	return nil
}

// Broadcast replicates every reference row across the combinations of
// dims that occur in subject. Only combinations present in the subject are
// produced, not the full cross product of their labels.
func Broadcast(reference, subject *dataset.Dataset, dims []dataset.Dim) (*dataset.Dataset, error) {
	if err := dataset.CheckDims(dims...); err != nil {
		return nil, err
	}
	if len(dims) == 0 {
		return reference, nil
	}
	if err := CheckBroadcastable(reference, dims); err != nil {
		return nil, err
	}

	ss := subject.Series(false)
	seen := make(map[string]bool)
	var combos [][]string
	for i := 0; i < ss.Len(); i++ {
		combo := make([]string, len(dims))
		for j, d := range dims {
			combo[j] = ss.Label(i, d)
		}
		k := strings.Join(combo, "\x1f")
		if !seen[k] {
			seen[k] = true
			combos = append(combos, combo)
		}
	}

	rs := reference.Series(false)
	out := dataset.NewSeries(dataset.IAMC...)
	for i := 0; i < rs.Len(); i++ {
		for _, combo := range combos {
			labels := rs.Labels(i)
			for j, d := range dims {
				labels[rs.Level(d)] = combo[j]
			}
			if err := out.Append(labels, rs.Value(i)); err != nil {
				return nil, fmt.Errorf("broadcast: %w", err)
			}
		}
	}
	return dataset.FromSeries(out)
}
