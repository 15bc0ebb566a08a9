package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
	"github.com/iamcompact/iamvet-cli/internal/catalog"
	"github.com/iamcompact/iamvet-cli/internal/report"
	"github.com/iamcompact/iamvet-cli/internal/target"
	"github.com/iamcompact/iamvet-cli/internal/ui"
	"github.com/iamcompact/iamvet-cli/internal/vetting"
)

func TestParseColumns(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []report.Column
		wantErr bool
	}{
		{name: "none", in: nil, want: nil},
		{name: "comma separated", in: []string{"in_range, value"}, want: []report.Column{report.InRange, report.Value}},
		{name: "repeated flag", in: []string{"distance", "", "value"}, want: []report.Column{report.Distance, report.Value}},
		{name: "unknown", in: []string{"score"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColumns(tt.in)
			if tt.wantErr {
				var ue *apperr.UserError
				if !errors.As(err, &ue) {
					t.Fatalf("expected a user error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseColumns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNameSource(t *testing.T) {
	for in, want := range map[string]report.NameSource{
		"":         report.DictKeys,
		"keys":     report.DictKeys,
		"Criteria": report.CriteriaNames,
	} {
		got, err := parseNameSource(in)
		if err != nil || got != want {
			t.Errorf("parseNameSource(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseNameSource("labels"); err == nil {
		t.Error("expected an error for an unknown name source")
	}
}

func TestLogLevel(t *testing.T) {
	t.Cleanup(func() { logLevel("", nil) })
	if _, err := logLevel("test.no-such-key", &bytes.Buffer{}); err != nil {
		t.Fatalf("unset level should default to standard: %v", err)
	}
}

func TestToVetReport(t *testing.T) {
	res := &vetting.Result{
		RunID:    "run-7",
		Duration: 2 * time.Second,
		Outcomes: []vetting.Outcome{
			{Name: "CO2 2020", Unit: "Mt CO2/yr", Target: 44251, Bounds: &target.Bounds{Lower: 26550.6, Upper: 61951.4}, Passed: 1, Total: 2},
			{Name: "Energy", Target: 1, Total: 3},
		},
		Failures: []vetting.Failure{{Name: "GDP", Err: errors.New("no reference rows")}},
	}

	got := toVetReport(res, "in.csv", "catalog.yaml", "out/report.XLSX", "auto")
	want := ui.VetReport{
		RunID:    "run-7",
		Subject:  "in.csv",
		Catalog:  "catalog.yaml",
		Duration: 2 * time.Second,
		Output:   "out/report.XLSX",
		Format:   "xlsx",
		Targets: []ui.TargetOutcome{
			{Name: "CO2 2020", Unit: "Mt CO2/yr", Target: 44251, Lower: 26550.6, Upper: 61951.4, HasRange: true, Passed: 1, Total: 2},
			{Name: "Energy", Target: 1, Total: 3},
		},
		Failures: []ui.TargetFailure{{Name: "GDP", Error: "no reference rows"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toVetReport mismatch (-want +got):\n%s", diff)
	}
	if n := missed(res); n != 1 {
		t.Errorf("missed() = %d, want 1", n)
	}
}

func TestSelectEntries(t *testing.T) {
	cat, err := catalog.Load(filepath.Join("..", "..", "internal", "catalog", "testdata", "catalog.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := selectEntries(cat, []string{" CO2 total emissions 2020 ", ""}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Target.Name() != "CO2 total emissions 2020" {
		t.Fatalf("selectEntries kept %d entries", len(got))
	}
	if _, err := selectEntries(cat, []string{"CO2 total emissions 2020"}, true); err == nil {
		t.Error("--interactive with --criteria should be rejected")
	}
	var ue *apperr.UserError
	if _, err := selectEntries(cat, []string{"unknown"}, false); !errors.As(err, &ue) {
		t.Errorf("unknown criterion should be a user error, got %v", err)
	}
}

func TestShippedCatalog(t *testing.T) {
	cat, err := catalog.Load(filepath.Join("..", "..", "config", "catalog.yaml"))
	if err != nil {
		t.Fatalf("config/catalog.yaml: %v", err)
	}
	want := []string{
		"CO2 total (EIP + AFOLU) emissions 2020",
		"CO2 EIP emissions 2020",
		"CH4 emissions 2020",
		"CO2 EIP emissions 2010-2020 change",
		"Primary energy vs history",
		"Emissions harmonisation 2020",
	}
	if diff := cmp.Diff(want, cat.Names()); diff != "" {
		t.Errorf("catalog names mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckOverwrite(t *testing.T) {
	dir := t.TempDir()
	if err := checkOverwrite(filepath.Join(dir, "new.csv"), false); err != nil {
		t.Fatalf("a missing file needs no confirmation: %v", err)
	}
	if err := checkOverwrite(dir, true); err != nil {
		t.Fatalf("--force should skip the check: %v", err)
	}
}
