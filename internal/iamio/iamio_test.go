package iamio

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/iamcompact/iamvet-cli/internal/dataset"
	"github.com/iamcompact/iamvet-cli/internal/report"
)

func TestReadDataset_WideCSV(t *testing.T) {
	ds, err := ReadDataset(filepath.Join("testdata", "wide.csv"), "auto")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 7 {
		t.Fatalf("Len() = %d, want 7 (empty and nan cells skipped)", ds.Len())
	}
	if diff := cmp.Diff([]string{"MESSAGE", "REMIND"}, ds.Values(dataset.Model)); diff != "" {
		t.Fatalf("models (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2020", "2030", "2040"}, ds.Values(dataset.Year)); diff != "" {
		t.Fatalf("years (-want +got):\n%s", diff)
	}
	p := ds.Points()[0]
	want := dataset.Point{Model: "MESSAGE", Scenario: "SSP2-Base", Region: "World", Variable: "Emissions|CO2", Unit: "Mt CO2/yr", Year: 2020, Value: 40000}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("first point (-want +got):\n%s", diff)
	}
}

func TestReadDataset_LongCSV(t *testing.T) {
	ds, err := ReadDataset(filepath.Join("testdata", "long.csv"), "csv")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	if diff := cmp.Diff([]string{"EU", "World"}, ds.Values(dataset.Region)); diff != "" {
		t.Fatalf("regions (-want +got):\n%s", diff)
	}
}

func TestReadDataset_YAML(t *testing.T) {
	ds, err := ReadDataset(filepath.Join("testdata", "points.yaml"), "")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
}

func TestReadDataset_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	f := excelize.NewFile()
	if _, err := f.NewSheet("data"); err != nil {
		t.Fatal(err)
	}
	rows := [][]any{
		{"Model", "Scenario", "Region", "Variable", "Unit", 2020, 2030},
		{"M", "S", "World", "Primary Energy", "EJ/yr", 600, 650},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("data", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	ds, err := ReadDataset(path, "auto")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	if got := ds.Points()[1].Value; got != 650 {
		t.Fatalf("2030 value = %g", got)
	}
}

func TestReadDataset_Errors(t *testing.T) {
	dir := t.TempDir()
	noUnit := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(noUnit, []byte("Model,Scenario,Region,Variable,2020\nM,S,W,V,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDataset(noUnit, "auto"); err == nil || !strings.Contains(err.Error(), "unit") {
		t.Fatalf("expected missing unit column error, got %v", err)
	}

	badValue := filepath.Join(dir, "value.csv")
	if err := os.WriteFile(badValue, []byte("Model,Scenario,Region,Variable,Unit,2020\nM,S,W,V,EJ/yr,abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDataset(badValue, "auto"); err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row error, got %v", err)
	}

	if _, err := ReadDataset(filepath.Join(dir, "x.parquet"), "auto"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ReadDataset(noUnit, "html"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("html is not an input format, got %v", err)
	}
}

func sampleTables() []*report.Table {
	cols := []string{report.InRange.Title(), report.Distance.Title(), report.Value.Title()}
	idx := []dataset.Dim{dataset.Model, dataset.Scenario}
	return []*report.Table{
		{Name: "Emissions|CO2 vs history", Index: idx, Columns: cols, Rows: []report.Row{
			{Keys: []string{"M1", "S1"}, Cells: []any{true, -0.5, 35000.0}},
			{Keys: []string{"M2", "S1"}, Cells: []any{false, math.Inf(1), 1e9}},
		}},
		{Name: "GDP/capita", Index: idx, Columns: cols, Rows: []report.Row{
			{Keys: []string{"M1", "S1"}, Cells: []any{nil, 0.1, 12.0}},
		}},
	}
}

func TestWriteTables_CSVDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteTables(dir, sampleTables(), WriteOptions{Format: "csv"}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "Emissions|CO2 vs history.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "model,scenario,Is in target range,Rel. distance from target,Value\n" +
		"M1,S1,true,-0.5,35000\n" +
		"M2,S1,false,+Inf,1e+09\n"
	if diff := cmp.Diff(want, string(b)); diff != "" {
		t.Fatalf("csv (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "GDP-capita.csv")); err != nil {
		t.Fatalf("sanitised file name missing: %v", err)
	}
}

func TestWriteTables_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteTables(path, sampleTables(), WriteOptions{RunID: "run-1"}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		RunID  string `json:"run_id"`
		Tables []struct {
			Name string `json:"name"`
			Rows []struct {
				Cells []any `json:"cells"`
			} `json:"rows"`
		} `json:"tables"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.RunID != "run-1" || len(doc.Tables) != 2 {
		t.Fatalf("document = %+v", doc)
	}
	if got := doc.Tables[0].Rows[1].Cells[1]; got != "+Inf" {
		t.Fatalf("non-finite cell = %v, want \"+Inf\"", got)
	}
}

func TestWriteTables_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteTables(path, sampleTables(), WriteOptions{Format: "xlsx", RunID: "run-1"}); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if diff := cmp.Diff([]string{"Emissions|CO2 vs history", "GDP-capita"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}
	v, err := f.GetCellValue("Emissions|CO2 vs history", "C2")
	if err != nil {
		t.Fatal(err)
	}
	if v != "TRUE" {
		t.Fatalf("C2 = %q, want TRUE", v)
	}
}

func TestWriteTables_HTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteTables(path, sampleTables(), WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "GDP") {
		t.Fatalf("chart title missing from page")
	}

	noDistance := []*report.Table{{Name: "x", Columns: []string{"Value"}}}
	if err := WriteTables(path, noDistance, WriteOptions{}); err == nil {
		t.Fatalf("expected error without distance columns")
	}
}

func TestWriteTables_ExtensionMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := WriteTables(filepath.Join(dir, "r.json"), sampleTables(), WriteOptions{Format: "yaml"}); err == nil {
		t.Fatalf("expected extension mismatch error")
	}
	if err := WriteTables(filepath.Join(dir, "r.csv"), sampleTables(), WriteOptions{Format: "csv"}); err == nil {
		t.Fatalf("expected error for two tables into one csv file")
	}
	if err := WriteTables(filepath.Join(dir, "r.yml"), sampleTables(), WriteOptions{}); err != nil {
		t.Fatalf("yml should be accepted: %v", err)
	}
}

func TestFileWriter(t *testing.T) {
	var w report.Writer = FileWriter{Path: filepath.Join(t.TempDir(), "one.csv")}
	if err := w.WriteTables(sampleTables()[:1]); err != nil {
		t.Fatal(err)
	}
}
