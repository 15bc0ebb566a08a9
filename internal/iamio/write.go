package iamio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/iamcompact/iamvet-cli/internal/report"
)

// Document is the JSON and YAML layout of written tables.
type Document struct {
	RunID  string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Tables []*report.Table `json:"tables" yaml:"tables"`
}

// WriteOptions controls WriteTables.
type WriteOptions struct {
	// Format is "csv", "xlsx", "json", "yaml", "html" or "auto" (default).
	Format string
	// RunID is recorded in formats that carry metadata.
	RunID string
}

// WriteTables writes tables to path.
//
// csv writes one file per table into the directory path, named after the
// table; a path ending in .csv takes exactly one table. xlsx writes one
// worksheet per table. json and yaml write a single Document. html writes a
// chart page with one chart per table that has a distance column.
func WriteTables(path string, tables []*report.Table, opts WriteOptions) error {
	actual, err := resolveFormat(path, opts.Format, FormatCSV, FormatXLSX, FormatJSON, FormatYAML, FormatHTML)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch actual {
	case FormatCSV:
		if ext != "" && ext != ".csv" {
			return fmt.Errorf("output path extension %q does not match format %q", ext, actual)
		}
	case FormatYAML:
		if ext != ".yaml" && ext != ".yml" {
			return fmt.Errorf("output path extension %q does not match format %q", ext, actual)
		}
	default:
		if ext != "."+actual {
			return fmt.Errorf("output path extension %q does not match format %q", ext, actual)
		}
	}

	switch actual {
	case FormatCSV:
		err = writeCSV(path, tables)
	case FormatXLSX:
		err = writeXLSX(path, tables, opts.RunID)
	case FormatJSON:
		err = writeJSON(path, tables, opts.RunID)
	case FormatYAML:
		err = writeYAML(path, tables, opts.RunID)
	case FormatHTML:
		err = writeHTML(path, tables, opts.RunID)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logf("", "wrote %d tables to %s (%s)", len(tables), path, actual)
	return nil
}

// FileWriter is a report.Writer that writes to a file or directory.
type FileWriter struct {
	Path string
	WriteOptions
}

// WriteTables implements report.Writer.
func (w FileWriter) WriteTables(tables []*report.Table) error {
	return WriteTables(w.Path, tables, w.WriteOptions)
}

// uniqueNames sanitises table names into sheet and file names, suffixing
// repeats.
func uniqueNames(tables []*report.Table) []string {
	out := make([]string, len(tables))
	seen := map[string]int{}
	for i, t := range tables {
		name := report.SheetName(t.Name)
		if name == "" {
			name = fmt.Sprintf("table %d", i+1)
		}
		key := strings.ToLower(name)
		if n := seen[key]; n > 0 {
			suffix := fmt.Sprintf(" (%d)", n+1)
			r := []rune(name)
			if len(r)+len(suffix) > report.MaxSheetNameLength {
				r = r[:report.MaxSheetNameLength-len(suffix)]
			}
			name = string(r) + suffix
		}
		seen[key]++
		out[i] = name
	}
	return out
}

func formatCell(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// finiteCells replaces non-finite floats with their string form, for
// encoders that cannot represent them.
func finiteCells(tables []*report.Table) []*report.Table {
	out := make([]*report.Table, len(tables))
	for i, t := range tables {
		c := *t
		c.Rows = make([]report.Row, len(t.Rows))
		for j, r := range t.Rows {
			cells := make([]any, len(r.Cells))
			for k, v := range r.Cells {
				if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
					cells[k] = formatCell(f)
					continue
				}
				cells[k] = v
			}
			c.Rows[j] = report.Row{Keys: r.Keys, Cells: cells}
		}
		out[i] = &c
	}
	return out
}

func writeCSVTable(path string, t *report.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header()); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := append([]string{}, r.Keys...)
		for _, c := range r.Cells {
			rec = append(rec, formatCell(c))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeCSV(path string, tables []*report.Table) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if len(tables) != 1 {
			return fmt.Errorf("a .csv path takes one table, got %d; pass a directory", len(tables))
		}
		return writeCSVTable(path, tables[0])
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	for i, name := range uniqueNames(tables) {
		if err := writeCSVTable(filepath.Join(path, name+".csv"), tables[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, tables []*report.Table, runID string) error {
	b, err := json.MarshalIndent(Document{RunID: runID, Tables: finiteCells(tables)}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func writeYAML(path string, tables []*report.Table, runID string) error {
	b, err := yaml.Marshal(Document{RunID: runID, Tables: tables})
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

const (
	fillPass = "C6EFCE"
	fillFail = "FFC7CE"
)

func writeXLSX(path string, tables []*report.Table, runID string) error {
	f := excelize.NewFile()
	defer f.Close()

	if runID != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Creator: "iamvet", Identifier: runID}); err != nil {
			return err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	passStyle, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{fillPass}, Pattern: 1}})
	if err != nil {
		return err
	}
	failStyle, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{fillFail}, Pattern: 1}})
	if err != nil {
		return err
	}

	defaultSheet := f.GetSheetName(0)
	names := uniqueNames(tables)
	for i, t := range finiteCells(tables) {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		header := make([]any, 0, len(t.Index)+len(t.Columns))
		for _, h := range t.Header() {
			header = append(header, h)
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return err
		}

		for j, r := range t.Rows {
			row := make([]any, 0, len(r.Keys)+len(r.Cells))
			for _, k := range r.Keys {
				row = append(row, k)
			}
			row = append(row, r.Cells...)
			start, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, start, &row); err != nil {
				return err
			}
			for k, c := range r.Cells {
				ok, isBool := c.(bool)
				if !isBool {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(len(r.Keys)+k+1, j+2)
				if err != nil {
					return err
				}
				style := failStyle
				if ok {
					style = passStyle
				}
				if err := f.SetCellStyle(name, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}
	return f.SaveAs(path)
}
