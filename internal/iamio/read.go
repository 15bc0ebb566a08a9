// Package iamio reads IAMC scenario data and writes report tables.
package iamio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
)

// Supported formats.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
)

// ErrUnsupportedFormat is returned for unknown or inapplicable formats.
var ErrUnsupportedFormat = errors.New("unsupported format")

// DataSheet is the worksheet read from xlsx files when present.
const DataSheet = "data"

var extFormats = map[string]string{
	".csv":  FormatCSV,
	".xlsx": FormatXLSX,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".html": FormatHTML,
}

// resolveFormat returns the concrete format for path. "auto" (or empty)
// picks it from the extension.
func resolveFormat(path, format string, allowed ...string) (string, error) {
	actual := strings.ToLower(strings.TrimSpace(format))
	if actual == "" || actual == FormatAuto {
		f, ok := extFormats[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return "", fmt.Errorf("%w: cannot infer format from %q", ErrUnsupportedFormat, path)
		}
		actual = f
	}
	if !slices.Contains(allowed, actual) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return actual, nil
}

// ReadDataset reads scenario data from path. Format is "csv", "xlsx",
// "json", "yaml" or "auto" (default), which decides by extension.
//
// CSV and xlsx data is IAMC tabular: Model, Scenario, Region, Variable and
// Unit columns followed by one column per year (wide), or Year and Value
// columns (long). JSON and YAML hold a list of points.
func ReadDataset(path, format string) (*dataset.Dataset, error) {
	actual, err := resolveFormat(path, format, FormatCSV, FormatXLSX, FormatJSON, FormatYAML)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	switch actual {
	case FormatCSV:
		ds, err = readCSV(path)
	case FormatXLSX:
		ds, err = readXLSX(path)
	case FormatJSON, FormatYAML:
		ds, err = readPoints(path, actual)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logf("", "read %s (%s): %d data points", path, actual, ds.Len())
	return ds, nil
}

func readCSV(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func readXLSX(path string) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if strings.EqualFold(s, DataSheet) {
			sheet = s
			break
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func readPoints(path, format string) (*dataset.Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pts []dataset.Point
	if format == FormatJSON {
		err = json.Unmarshal(b, &pts)
	} else {
		err = yaml.Unmarshal(b, &pts)
	}
	if err != nil {
		return nil, err
	}
	return dataset.New(pts)
}

var keyColumns = []dataset.Dim{dataset.Model, dataset.Scenario, dataset.Region, dataset.Variable, dataset.Unit}

// fromRows parses IAMC tabular rows, the first being the header.
func fromRows(rows [][]string) (*dataset.Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	keyPos := make([]int, len(keyColumns))
	for i, d := range keyColumns {
		keyPos[i] = slices.Index(header, d.String())
		if keyPos[i] < 0 {
			return nil, fmt.Errorf("missing %q column", d)
		}
	}

	yearPos := slices.Index(header, "year")
	if yearPos < 0 {
		yearPos = slices.Index(header, "time")
	}
	valuePos := slices.Index(header, "value")
	long := yearPos >= 0 && valuePos >= 0

	// wide layout: every integer-named column is a year
	years := map[int]int{}
	if !long {
		for i, h := range header {
			if slices.Contains(keyPos, i) {
				continue
			}
			y, err := strconv.Atoi(h)
			if err != nil {
				logf("", "ignoring non-year column %q", rows[0][i])
				continue
			}
			years[i] = y
		}
		if len(years) == 0 {
			return nil, fmt.Errorf("no year columns and no year/value columns")
		}
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var pts []dataset.Point
	for n, row := range rows[1:] {
		line := n + 2
		base := dataset.Point{
			Model:    cell(row, keyPos[0]),
			Scenario: cell(row, keyPos[1]),
			Region:   cell(row, keyPos[2]),
			Variable: cell(row, keyPos[3]),
			Unit:     cell(row, keyPos[4]),
		}
		if base.Model == "" && base.Scenario == "" && base.Variable == "" {
			continue
		}
		if long {
			raw := cell(row, valuePos)
			v, ok, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			if !ok {
				continue
			}
			y, err := strconv.Atoi(cell(row, yearPos))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid year %q", line, cell(row, yearPos))
			}
			p := base
			p.Year, p.Value = y, v
			pts = append(pts, p)
			continue
		}
		for i, y := range years {
			v, ok, err := parseValue(cell(row, i))
			if err != nil {
				return nil, fmt.Errorf("row %d, year %d: %w", line, y, err)
			}
			if !ok {
				continue
			}
			p := base
			p.Year, p.Value = y, v
			pts = append(pts, p)
		}
	}
	return dataset.New(pts)
}

// parseValue parses a numeric cell. Empty and NaN cells are reported as
// absent.
func parseValue(s string) (float64, bool, error) {
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid value %q", s)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}
