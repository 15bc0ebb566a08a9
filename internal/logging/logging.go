package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/iamcompact/iamvet-cli/internal/ui"
)

// Logger is a tiny opt-in logger used across internal packages.
// When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> criterion=<name> <formattedMessage>\n
//
// where <name> is trimmed and defaults to "(none)".
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitCriterion controls whether the criterion field is written.
	// When false (default), output includes: "criterion=<name>".
	OmitCriterion bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Logf(criterion string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = ui.Color(prefix, l.PrefixColor)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitCriterion {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	c := strings.TrimSpace(criterion)
	if c == "" {
		c = "(none)"
	}
	if strings.ContainsAny(c, " \t") {
		c = fmt.Sprintf("%q", c)
	}
	fmt.Fprintf(l.Writer, "%s criterion=%s %s\n", prefix, c, msg)
}
