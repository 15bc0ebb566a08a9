package ui

import (
	"fmt"
	"io"
	"strings"
)

// CatalogReport mirrors a catalog check from internal/catalog
// to avoid circular imports
type CatalogReport struct {
	Path       string
	Valid      bool
	References []string
	Criteria   []CriterionChoice
	Errors     []string
}

// CatalogUI provides a rich UI for the validate command
type CatalogUI struct {
	writer io.Writer
	quiet  bool
}

// NewCatalogUI creates a new UI handler for the validate command
func NewCatalogUI(w io.Writer, quiet bool) *CatalogUI {
	return &CatalogUI{writer: w, quiet: quiet}
}

// PrintReport renders the catalog check
func (c *CatalogUI) PrintReport(r CatalogReport) {
	if c.quiet {
		return
	}
	var out strings.Builder
	if r.Valid {
		out.WriteString(Success.Bold(true).Render("✓ Catalog Valid"))
	} else {
		out.WriteString(Error.Bold(true).Render("✗ Catalog Invalid"))
	}
	out.WriteString("\n\n")
	out.WriteString(FormatKeyValue("File", Highlight.Render(r.Path)))

	if len(r.References) > 0 {
		out.WriteString("\n")
		out.WriteString(FormatKeyValue("References", strings.Join(r.References, ", ")))
	}

	if len(r.Criteria) > 0 {
		out.WriteString("\n\n")
		out.WriteString(SectionHeader.Render(fmt.Sprintf("Criteria (%d)", len(r.Criteria))))
		for _, e := range r.Criteria {
			out.WriteString("\n")
			out.WriteString(fmt.Sprintf("%s %s %s", GetBullet(), e.Name, Dim.Render(e.Kind+" · "+e.Detail)))
		}
	}

	if len(r.Errors) > 0 {
		out.WriteString("\n\n")
		out.WriteString(Error.Render(fmt.Sprintf("▼ Errors (%d)", len(r.Errors))))
		for _, e := range r.Errors {
			out.WriteString("\n  ")
			out.WriteString(GetCrossMark())
			out.WriteString(" ")
			out.WriteString(e)
		}
	}

	if r.Valid {
		fmt.Fprintln(c.writer, SuccessBox.Render(out.String()))
	} else {
		fmt.Fprintln(c.writer, ErrorBox.Render(out.String()))
	}
}

// PrintSimpleReport prints a minimal text report
func (c *CatalogUI) PrintSimpleReport(r CatalogReport) {
	if r.Valid {
		fmt.Fprintf(c.writer, "%s Catalog valid: %s\n", GetCheckMark(), r.Path)
	} else {
		fmt.Fprintf(c.writer, "%s Catalog invalid: %s\n", GetCrossMark(), r.Path)
	}
	fmt.Fprintf(c.writer, "Criteria: %d, References: %d\n", len(r.Criteria), len(r.References))
	for _, e := range r.Errors {
		fmt.Fprintf(c.writer, "error: %s\n", e)
	}
}
