package dataset

import (
	"strconv"
	"strings"
)

// Filter selects rows by dimension. A row matches when, for every dimension
// listed, its label matches at least one of the patterns. Patterns may use
// '*' as a wildcard for any run of characters. An empty Filter matches
// every row.
type Filter map[Dim][]string

// Years is a helper for building year patterns.
func Years(years ...int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// Match reports whether a row of IAMC labels matches the filter.
func (f Filter) Match(labels []string) bool {
	for i, d := range IAMC {
		patterns, ok := f[d]
		if !ok {
			continue
		}
		if !matchAny(patterns, labels[i]) {
			return false
		}
	}
	return true
}

// Check returns ErrUnknownDimension for keys outside the IAMC set.
func (f Filter) Check() error {
	for d := range f {
		if err := CheckDims(d); err != nil {
			return err
		}
	}
	return nil
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if wildcard(p, s) {
			return true
		}
	}
	return false
}

// wildcard matches s against p where '*' matches any run of characters,
// including '|' and '/', which appear in variable and unit names.
func wildcard(p, s string) bool {
	if !strings.Contains(p, "*") {
		return p == s
	}
	parts := strings.Split(p, "*")
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return strings.HasSuffix(s, last) && len(s) >= len(last)
}
