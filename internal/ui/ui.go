package ui

// Raw ANSI codes for log prefixes. The logging package writes to plain
// writers, so it cannot use lipgloss styles.
const (
	Reset   = "\033[0m"
	FgCyan  = "\033[36m"
	FgGreen = "\033[32m"
	FgRed   = "\033[31m"
	// FgYellow marks catalog loading.
	FgYellow = "\033[33m"
)

// Color wraps s in the given ANSI code.
func Color(s string, code string) string {
	return code + s + Reset
}
