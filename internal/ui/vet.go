package ui

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/iamcompact/iamvet-cli/internal/report"
)

// VetReport mirrors the structure from internal/vetting
// to avoid circular imports
type VetReport struct {
	RunID    string
	Subject  string
	Catalog  string
	Duration time.Duration
	Targets  []TargetOutcome
	Failures []TargetFailure
	// Output is empty when no report file was written.
	Output string
	Format string
}

// TargetOutcome mirrors one evaluated target range.
type TargetOutcome struct {
	Name     string
	Unit     string
	Target   float64
	Lower    float64
	Upper    float64
	HasRange bool
	Passed   int
	Total    int
}

// TargetFailure mirrors a target range that could not be evaluated.
type TargetFailure struct {
	Name  string
	Error string
}

// Score returns the share of in-range values over all ranged targets,
// and false when no target has a range.
func (r VetReport) Score() (float64, int, int, bool) {
	passed, total := 0, 0
	ranged := false
	for _, t := range r.Targets {
		if !t.HasRange {
			continue
		}
		ranged = true
		passed += t.Passed
		total += t.Total
	}
	if !ranged || total == 0 {
		return 0, passed, total, ranged
	}
	return float64(passed) / float64(total), passed, total, true
}

// VetUI provides a rich UI for the vet command
type VetUI struct {
	writer io.Writer
	quiet  bool
}

// NewVetUI creates a new UI handler for the vet command
func NewVetUI(w io.Writer, quiet bool) *VetUI {
	return &VetUI{writer: w, quiet: quiet}
}

// PrintReport renders the run summary in a box
func (v *VetUI) PrintReport(r VetReport) {
	if v.quiet {
		return
	}
	var out strings.Builder

	score, passed, total, ranged := r.Score()
	failed := len(r.Failures) > 0
	missed := ranged && passed != total
	switch {
	case failed:
		out.WriteString(Error.Bold(true).Render("✗ Vetting Failed"))
	case missed:
		out.WriteString(Warning.Bold(true).Render("⚠ Vetting Out of Range"))
	default:
		out.WriteString(Success.Bold(true).Render("✓ Vetting Passed"))
	}
	out.WriteString("\n\n")

	out.WriteString(FormatKeyValue("Run", Highlight.Render(r.RunID)))
	out.WriteString("\n")
	if r.Subject != "" {
		out.WriteString(FormatKeyValue("Scenarios", r.Subject))
		out.WriteString("\n")
	}
	if r.Catalog != "" {
		out.WriteString(FormatKeyValue("Catalog", r.Catalog))
		out.WriteString("\n")
	}
	if ranged {
		out.WriteString(FormatKeyValue("In range", v.renderBar(score, 40)+" "+v.renderPercentage(score)))
		out.WriteString("\n")
		out.WriteString(Dim.Render(fmt.Sprintf("(%d/%d values within their target range)", passed, total)))
		out.WriteString("\n")
	}

	if len(r.Targets) > 0 {
		out.WriteString("\n")
		out.WriteString(v.renderTargets(r.Targets))
	}
	if len(r.Failures) > 0 {
		out.WriteString("\n\n")
		out.WriteString(v.renderFailures(r.Failures))
	}

	out.WriteString("\n\n")
	if r.Output != "" {
		out.WriteString(FormatKeyValue("Report", fmt.Sprintf("%s (%s)", r.Output, r.Format)))
		out.WriteString("\n")
	}
	out.WriteString(FormatKeyValue("Duration", r.Duration.Round(time.Millisecond).String()))

	switch {
	case failed:
		fmt.Fprintln(v.writer, ErrorBox.Render(out.String()))
	case missed:
		fmt.Fprintln(v.writer, WarningBox.Render(out.String()))
	default:
		fmt.Fprintln(v.writer, SuccessBox.Render(out.String()))
	}
}

func (v *VetUI) renderTargets(targets []TargetOutcome) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Target Ranges"))
	sb.WriteString("\n")
	for _, t := range targets {
		icon := GetBullet()
		counts := Dim.Render(fmt.Sprintf("%d values", t.Total))
		if t.HasRange {
			counts = fmt.Sprintf("%d/%d in range", t.Passed, t.Total)
			if t.Passed == t.Total {
				icon = GetCheckMark()
				counts = Success.Render(counts)
			} else {
				icon = GetCrossMark()
				counts = Error.Render(counts)
			}
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %s\n", icon, t.Name, Dim.Render(describeTarget(t)), counts))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func describeTarget(t TargetOutcome) string {
	unit := ""
	if t.Unit != "" {
		unit = " " + t.Unit
	}
	if !t.HasRange {
		return fmt.Sprintf("(target %s%s)", FormatNumber(t.Target), unit)
	}
	return fmt.Sprintf("(target %s%s, range %s to %s)", FormatNumber(t.Target), unit, FormatNumber(t.Lower), FormatNumber(t.Upper))
}

func (v *VetUI) renderFailures(failures []TargetFailure) string {
	var sb strings.Builder
	sb.WriteString(Error.Render(fmt.Sprintf("▼ Errors (%d)", len(failures))))
	sb.WriteString("\n")
	for _, f := range failures {
		sb.WriteString("  ")
		sb.WriteString(GetCrossMark())
		sb.WriteString(" ")
		sb.WriteString(f.Name + ": " + Dim.Render(f.Error))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderBar draws the in-range share in green and the rest in red.
func (v *VetUI) renderBar(score float64, width int) string {
	filled := int(score * float64(width))
	if filled > width {
		filled = width
	}
	if score >= 1 {
		return BarFilled.Render(strings.Repeat("█", width))
	}
	return BarFilled.Render(strings.Repeat("█", filled)) + BarMissed.Render(strings.Repeat("░", width-filled))
}

func (v *VetUI) renderPercentage(score float64) string {
	s := fmt.Sprintf("%.1f%%", score*100)
	switch {
	case score >= 0.8:
		return Success.Render(s)
	case score >= 0.5:
		return Warning.Render(s)
	}
	return Error.Render(s)
}

// PrintSimpleReport prints a minimal text report
func (v *VetUI) PrintSimpleReport(r VetReport) {
	score, passed, total, ranged := r.Score()
	if len(r.Failures) == 0 && (!ranged || passed == total) {
		fmt.Fprintf(v.writer, "%s Vetting passed\n", GetCheckMark())
	} else {
		fmt.Fprintf(v.writer, "%s Vetting failed\n", GetCrossMark())
	}
	fmt.Fprintf(v.writer, "Run: %s\n", r.RunID)
	if ranged {
		fmt.Fprintf(v.writer, "In range: %.1f%% (%d/%d)\n", score*100, passed, total)
	}
	for _, t := range r.Targets {
		if t.HasRange {
			fmt.Fprintf(v.writer, "  %s: %d/%d in range\n", t.Name, t.Passed, t.Total)
		} else {
			fmt.Fprintf(v.writer, "  %s: %d values\n", t.Name, t.Total)
		}
	}
	for _, f := range r.Failures {
		fmt.Fprintf(v.writer, "  %s: error: %s\n", f.Name, f.Error)
	}
	if r.Output != "" {
		fmt.Fprintf(v.writer, "Report: %s\n", r.Output)
	}
}

// PrintTable renders a report table in the terminal
func (v *VetUI) PrintTable(t *report.Table) {
	if v.quiet || t == nil {
		return
	}
	fmt.Fprintln(v.writer, SectionHeader.Render(t.Name))
	fmt.Fprintln(v.writer, RenderTable(t))
}

// RenderTable draws t with a rounded border. In-range flags are coloured
// and missing cells show as a dash.
func RenderTable(t *report.Table) string {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := append([]string{}, r.Keys...)
		for _, c := range r.Cells {
			row = append(row, FormatCell(c))
		}
		rows[i] = row
	}
	keys := len(t.Index)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(t.Header()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case col < keys:
				return tableKey
			case row < len(t.Rows):
				if b, ok := t.Rows[row].Cells[col-keys].(bool); ok {
					if b {
						return tableInRange
					}
					return tableMissed
				}
			}
			return tableNumber
		})
	return tbl.String()
}

// FormatCell renders a report cell for the terminal.
func FormatCell(c any) string {
	switch v := c.(type) {
	case nil:
		return "–"
	case bool:
		if v {
			return "✓"
		}
		return "✗"
	case float64:
		return FormatNumber(v)
	}
	return fmt.Sprint(c)
}

// FormatNumber prints v with up to four significant decimals and without
// exponent for ordinary magnitudes.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	a := math.Abs(v)
	if a != 0 && (a < 1e-4 || a >= 1e9) {
		return strconv.FormatFloat(v, 'g', 4, 64)
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
