package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
	"github.com/iamcompact/iamvet-cli/internal/catalog"
	"github.com/iamcompact/iamvet-cli/internal/iamio"
	"github.com/iamcompact/iamvet-cli/internal/report"
	"github.com/iamcompact/iamvet-cli/internal/target"
	"github.com/iamcompact/iamvet-cli/internal/ui"
	"github.com/iamcompact/iamvet-cli/internal/vetting"
)

var (
	vetInput         string
	vetFormat        string
	vetCatalog       string
	vetCriteria      []string
	vetInteractive   bool
	vetOutput        string
	vetOutputFormat  string
	vetColumns       []string
	vetSummaryColumn string
	vetSummaryNames  string
	vetFailFast      bool
	vetStrict        bool
	vetForce         bool
	vetShowTables    bool
	vetPlainSummary  bool
	vetLogLevel      string
)

// vetCmd represents the vet command
var vetCmd = &cobra.Command{
	Use:   "vet",
	Short: "Vet scenario data against the target ranges of a catalog",
	Long:  "Reads scenario data in IAMC format (csv, xlsx, json or yaml), evaluates every criterion of the catalog on it and reports, per model and scenario, whether each value lies in its target range and how far it is from its target.",
	RunE:  runVet,
}

func runVet(cmd *cobra.Command, args []string) error {
	level, err := logLevel("vet.log-level", cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	quiet := level == "quiet"
	plain := viper.GetBool("vet.plain-summary")

	inputPath := strings.TrimSpace(viper.GetString("vet.input"))
	if inputPath == "" {
		return apperr.User("--input is required")
	}
	catalogPath := strings.TrimSpace(viper.GetString("vet.catalog"))
	if catalogPath == "" {
		return apperr.User("--catalog is required (or set vet.catalog in the config file)")
	}

	columns, err := parseColumns(viper.GetStringSlice("vet.columns"))
	if err != nil {
		return err
	}
	summaryCol, err := report.ParseColumn(viper.GetString("vet.summary-column"))
	if err != nil {
		return apperr.Userf("invalid --summary-column: %v", err)
	}
	names, err := parseNameSource(viper.GetString("vet.summary-names"))
	if err != nil {
		return err
	}

	outputPath := strings.TrimSpace(viper.GetString("vet.output"))
	outputFormat := viper.GetString("vet.output-format")
	if outputPath != "" {
		if err := checkOverwrite(outputPath, viper.GetBool("vet.force")); err != nil {
			return err
		}
	}

	subject, err := iamio.ReadDataset(inputPath, viper.GetString("vet.format"))
	if err != nil {
		return apperr.Userf("reading scenarios: %w", err)
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return apperr.Userf("loading catalog: %w", err)
	}

	entries, err := selectEntries(cat, viper.GetStringSlice("vet.criteria"), viper.GetBool("vet.interactive"))
	if err != nil {
		return err
	}
	targets := make([]*target.TargetRange, len(entries))
	for i, e := range entries {
		targets[i] = e.Target
	}

	opts := vetting.Options{Columns: columns, FailFast: viper.GetBool("vet.fail-fast")}
	var tracker *ui.ProgressTracker
	if !quiet && !plain && level != "debug" {
		stepNames := make([]string, len(targets))
		for i, tr := range targets {
			stepNames[i] = tr.Name()
		}
		tracker = ui.NewProgressTracker(cmd.ErrOrStderr(), "Vetting scenarios", stepNames)
		opts.Progress = trackProgress(tracker)
		tracker.Start()
	}

	res, runErr := vetting.Run(cmd.Context(), subject, targets, opts)
	if tracker != nil {
		tracker.Complete(runErr)
	}
	if runErr != nil {
		return runErr
	}

	var written string
	if outputPath != "" {
		tables, err := res.AllTables(summaryCol, names)
		if err != nil {
			return err
		}
		if err := iamio.WriteTables(outputPath, tables, iamio.WriteOptions{Format: outputFormat, RunID: res.RunID}); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		written = outputPath
	}

	summary := toVetReport(res, inputPath, cat.Path, written, outputFormat)
	out := cmd.OutOrStdout()
	switch {
	case plain:
		ui.NewVetUI(out, false).PrintSimpleReport(summary)
	default:
		vetUI := ui.NewVetUI(out, quiet)
		if viper.GetBool("vet.show-tables") {
			if s, skipped, err := res.Summary(summaryCol, names); err == nil && s.Len() > 0 {
				vetUI.PrintTable(s)
				if len(skipped) > 0 && !quiet {
					fmt.Fprintln(out, ui.Dim.Render("Not in summary (different index): "+strings.Join(skipped, ", ")))
				}
			}
		}
		vetUI.PrintReport(summary)
	}

	if viper.GetBool("vet.strict") && !res.Passed() {
		return fmt.Errorf("%d target ranges missed, %d failed: %w", missed(res), len(res.Failures), apperr.ErrOutOfRange)
	}
	return nil
}

func parseColumns(names []string) ([]report.Column, error) {
	var cols []report.Column
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			c, err := report.ParseColumn(part)
			if err != nil {
				return nil, apperr.Userf("invalid --columns: %v", err)
			}
			cols = append(cols, c)
		}
	}
	return cols, nil
}

func parseNameSource(s string) (report.NameSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keys":
		return report.DictKeys, nil
	case "criteria":
		return report.CriteriaNames, nil
	}
	return 0, apperr.Userf("invalid --summary-names %q (expected keys|criteria)", s)
}

// checkOverwrite refuses to replace an existing report unless forced or
// confirmed on a terminal.
func checkOverwrite(path string, force bool) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) || force {
		return nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return apperr.Userf("%s already exists (use --force to overwrite)", path)
	}
	return ui.ConfirmOverwrite(path)
}

func selectEntries(cat *catalog.Catalog, names []string, interactive bool) ([]catalog.Entry, error) {
	var clean []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	if interactive {
		if len(clean) > 0 {
			return nil, apperr.User("--interactive cannot be used with --criteria")
		}
		choices := make([]ui.CriterionChoice, len(cat.Entries))
		for i, e := range cat.Entries {
			choices[i] = ui.CriterionChoice{Name: e.Target.Name(), Kind: e.Spec.Kind, Detail: e.Describe()}
		}
		picked, err := ui.RunCriteriaSelector(choices)
		if err != nil {
			return nil, err
		}
		clean = picked
	}
	entries, err := cat.Select(clean)
	if err != nil {
		return nil, apperr.Userf("%v", err)
	}
	return entries, nil
}

// trackProgress maps run events onto tracker steps.
func trackProgress(tracker *ui.ProgressTracker) func(vetting.Event) {
	return func(e vetting.Event) {
		switch e.Stage {
		case vetting.Started:
			tracker.UpdateStep(e.Index, ui.StatusRunning, "")
		case vetting.Finished:
			msg := fmt.Sprintf("%d values", e.Total)
			short := false
			if e.Ranged {
				msg = fmt.Sprintf("%d/%d in range", e.Passed, e.Total)
				short = e.Passed != e.Total
			}
			tracker.CompleteStep(e.Index, msg, short)
		case vetting.Failed:
			tracker.UpdateStep(e.Index, ui.StatusFailed, e.Err.Error())
		}
	}
}

func toVetReport(res *vetting.Result, subject, catalogPath, output, format string) ui.VetReport {
	r := ui.VetReport{
		RunID:    res.RunID,
		Subject:  subject,
		Catalog:  catalogPath,
		Duration: res.Duration,
		Output:   output,
		Format:   format,
	}
	if r.Duration == 0 {
		r.Duration = time.Since(res.Started)
	}
	if output != "" && (format == "" || format == iamio.FormatAuto) {
		r.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if r.Format == "" {
			r.Format = iamio.FormatCSV
		}
	}
	for _, o := range res.Outcomes {
		t := ui.TargetOutcome{Name: o.Name, Unit: o.Unit, Target: o.Target, Passed: o.Passed, Total: o.Total}
		if o.HasRange() {
			t.HasRange, t.Lower, t.Upper = true, o.Bounds.Lower, o.Bounds.Upper
		}
		r.Targets = append(r.Targets, t)
	}
	for _, f := range res.Failures {
		r.Failures = append(r.Failures, ui.TargetFailure{Name: f.Name, Error: f.Err.Error()})
	}
	return r
}

func missed(res *vetting.Result) int {
	n := 0
	for _, o := range res.Outcomes {
		if o.HasRange() && o.Passed != o.Total {
			n++
		}
	}
	return n
}

func init() {
	vetCmd.Flags().StringVarP(&vetInput, "input", "i", "", "Path to scenario data in IAMC format (required)")
	vetCmd.Flags().StringVarP(&vetFormat, "format", "f", "auto", "Input format: csv|xlsx|json|yaml|auto")
	vetCmd.Flags().StringVarP(&vetCatalog, "catalog", "c", "", "Path to the criteria catalog (YAML)")
	vetCmd.Flags().StringSliceVar(&vetCriteria, "criteria", nil, "Only vet these criteria (by name, repeatable)")
	vetCmd.Flags().BoolVar(&vetInteractive, "interactive", false, "Pick criteria interactively")
	vetCmd.Flags().StringVarP(&vetOutput, "output", "o", "", "Write the report to this path (file, or directory for csv)")
	vetCmd.Flags().StringVar(&vetOutputFormat, "output-format", "auto", "Report format: csv|xlsx|json|yaml|html|auto")
	vetCmd.Flags().StringSliceVar(&vetColumns, "columns", nil, "Report columns: in_range,distance,value (default all)")
	vetCmd.Flags().StringVar(&vetSummaryColumn, "summary-column", "in_range", "Column pivoted into the summary table: in_range|distance|value")
	vetCmd.Flags().StringVar(&vetSummaryNames, "summary-names", "keys", "Summary column names: keys|criteria")
	vetCmd.Flags().BoolVar(&vetFailFast, "fail-fast", false, "Stop at the first criterion that cannot be evaluated")
	vetCmd.Flags().BoolVar(&vetStrict, "strict", false, "Exit with code 2 when any value misses its target range")
	vetCmd.Flags().BoolVar(&vetForce, "force", false, "Overwrite an existing report without asking")
	vetCmd.Flags().BoolVar(&vetShowTables, "show-tables", false, "Print the summary table in the terminal")
	vetCmd.Flags().BoolVar(&vetPlainSummary, "plain-summary", false, "Print a plain summary (no styling)")
	vetCmd.Flags().StringVar(&vetLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	// Bind all flags to viper for config file support
	for _, name := range []string{
		"input", "format", "catalog", "criteria", "interactive", "output", "output-format",
		"columns", "summary-column", "summary-names", "fail-fast", "strict", "force",
		"show-tables", "plain-summary", "log-level",
	} {
		viper.BindPFlag("vet."+name, vetCmd.Flags().Lookup(name))
	}
}
