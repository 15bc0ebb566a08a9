package ui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
)

// Palette shared by every view and by the fang help screen.
var (
	ColorPrimary   = lipgloss.Color("#0E7C86") // Teal
	ColorSecondary = lipgloss.Color("#38BDF8") // Sky
	ColorSuccess   = lipgloss.Color("#22C55E") // In range
	ColorWarning   = lipgloss.Color("#EAB308") // Partially in range
	ColorError     = lipgloss.Color("#DC2626") // Out of range
	ColorMuted     = lipgloss.Color("#64748B") // Slate
	ColorHighlight = lipgloss.Color("#F97316") // Orange

	ColorText    = lipgloss.Color("#F8FAFC")
	ColorTextDim = lipgloss.Color("#94A3B8")
)

// styleWrapper wraps a lipgloss style
type styleWrapper struct {
	style lipgloss.Style
}

// Render renders the string with the style
func (s styleWrapper) Render(str string) string {
	return s.style.Render(str)
}

// Bold returns a new style with bold enabled
func (s styleWrapper) Bold(v bool) styleWrapper {
	return styleWrapper{s.style.Bold(v)}
}

func fg(c color.Color) styleWrapper {
	return styleWrapper{lipgloss.NewStyle().Foreground(c)}
}

// Text styles
var (
	Bold      = styleWrapper{lipgloss.NewStyle().Bold(true)}
	Dim       = fg(ColorTextDim)
	Muted     = fg(ColorMuted)
	Success   = fg(ColorSuccess)
	Warning   = fg(ColorWarning)
	Error     = fg(ColorError)
	Primary   = fg(ColorPrimary)
	Secondary = fg(ColorSecondary)
	Highlight = styleWrapper{lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)}
)

// GetCheckMark returns a styled check mark
func GetCheckMark() string { return Success.Render("✓") }

// GetCrossMark returns a styled cross mark
func GetCrossMark() string { return Error.Render("✗") }

// GetWarnMark returns a styled warning mark
func GetWarnMark() string { return Warning.Render("⚠") }

// GetInfoMark returns a styled info mark
func GetInfoMark() string { return Secondary.Render("ℹ") }

// GetBullet returns a styled bullet point
func GetBullet() string { return Muted.Render("•") }

type boxWrapper struct {
	style lipgloss.Style
}

func (b boxWrapper) Render(str string) string {
	return b.style.Render(str)
}

func box(c color.Color) boxWrapper {
	return boxWrapper{lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1)}
}

// Report boxes: every target range met, some missed, run or load failed.
var (
	SuccessBox = box(ColorSuccess)
	WarningBox = box(ColorWarning)
	ErrorBox   = box(ColorError)
)

// Header styles
var (
	Title         = styleWrapper{lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)}
	Subtitle      = styleWrapper{lipgloss.NewStyle().Foreground(ColorTextDim).Italic(true)}
	SectionHeader = styleWrapper{lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)}
)

// Pass-rate bar segments
var (
	BarFilled = fg(ColorSuccess)
	BarMissed = fg(ColorError)
)

// Step status styles for the progress view
var (
	StepPending  = fg(ColorMuted)
	StepRunning  = fg(ColorSecondary)
	StepComplete = fg(ColorSuccess)
	StepFailed   = fg(ColorError)
	StepSkipped  = fg(ColorWarning)
)

// Table cell styles. Padding is applied by the table renderer.
var (
	tableHeader  = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
	tableKey     = lipgloss.NewStyle().Foreground(ColorTextDim).Padding(0, 1)
	tableNumber  = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	tableInRange = lipgloss.NewStyle().Foreground(ColorSuccess).Padding(0, 1)
	tableMissed  = lipgloss.NewStyle().Foreground(ColorError).Padding(0, 1)
	tableBorder  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// FormatKeyValue formats a key-value pair with styling
func FormatKeyValue(key, value string) string {
	return Dim.Render(key+": ") + value
}

// FormatStatus formats a status message with an appropriate icon
func FormatStatus(status, message string) string {
	var icon string
	switch status {
	case "success":
		icon = GetCheckMark()
	case "error":
		icon = GetCrossMark()
	case "warning":
		icon = GetWarnMark()
	case "info":
		icon = GetInfoMark()
	default:
		icon = GetBullet()
	}
	return icon + " " + message
}

// FangColorScheme maps the palette onto fang's help and error screens.
func FangColorScheme(c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           c(lipgloss.Color("#0F172A"), ColorText),
		Title:          ColorPrimary,
		Description:    ColorTextDim,
		Codeblock:      c(lipgloss.Color("#E2E8F0"), lipgloss.Color("#1E293B")),
		Program:        ColorSecondary,
		DimmedArgument: ColorMuted,
		Comment:        ColorMuted,
		Flag:           ColorPrimary,
		FlagDefault:    ColorTextDim,
		Command:        ColorHighlight,
		QuotedString:   ColorSecondary,
		Argument:       c(lipgloss.Color("#0F172A"), ColorText),
		Help:           ColorTextDim,
		Dash:           ColorMuted,
		ErrorHeader:    [2]color.Color{ColorText, ColorError},
		ErrorDetails:   ColorError,
	}
}

// BannerASCII is the ASCII art banner for the application
const BannerASCII = `
 _                             _
(_) __ _ _ __ ___   __   _____| |_
| |/ _` + "`" + ` | '_ ` + "`" + ` _ \  \ \ / / _ \ __|
| | (_| | | | | | |  \ V /  __/ |_
|_|\__,_|_| |_| |_|   \_/ \___|\__|
`

// RenderGradientBanner colours the banner line by line from primary to
// secondary.
func RenderGradientBanner(banner string) string {
	lines := strings.Split(strings.Trim(banner, "\n"), "\n")
	colors := lipgloss.Blend1D(len(lines), ColorPrimary, ColorSecondary)
	for i, l := range lines {
		lines[i] = lipgloss.NewStyle().Foreground(colors[i]).Render(l)
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}
