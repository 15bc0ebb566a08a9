package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
	"github.com/iamcompact/iamvet-cli/internal/catalog"
	"github.com/iamcompact/iamvet-cli/internal/criterion"
	"github.com/iamcompact/iamvet-cli/internal/iamio"
	"github.com/iamcompact/iamvet-cli/internal/report"
	"github.com/iamcompact/iamvet-cli/internal/ui"
)

var (
	compareInput        string
	compareFormat       string
	compareCatalog      string
	compareCriterion    string
	compareOutput       string
	compareOutputFormat string
	compareForce        bool
	compareLogLevel     string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Show the year-by-year comparison behind a reference criterion",
	Long:  "Runs the comparison of a timeseries-ref or harmonization criterion against its reference without aggregating, and shows one column per year.",
	RunE:  runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	level, err := logLevel("compare.log-level", cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	inputPath := strings.TrimSpace(viper.GetString("compare.input"))
	catalogPath := strings.TrimSpace(viper.GetString("compare.catalog"))
	if catalogPath == "" {
		catalogPath = strings.TrimSpace(viper.GetString("vet.catalog"))
	}
	name := strings.TrimSpace(viper.GetString("compare.criterion"))
	switch {
	case inputPath == "":
		return apperr.User("--input is required")
	case catalogPath == "":
		return apperr.User("--catalog is required (or set compare.catalog in the config file)")
	case name == "":
		return apperr.User("--criterion is required")
	}

	outputPath := strings.TrimSpace(viper.GetString("compare.output"))
	if outputPath != "" {
		if err := checkOverwrite(outputPath, viper.GetBool("compare.force")); err != nil {
			return err
		}
	}

	subject, err := iamio.ReadDataset(inputPath, viper.GetString("compare.format"))
	if err != nil {
		return apperr.Userf("reading scenarios: %w", err)
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return apperr.Userf("loading catalog: %w", err)
	}
	entry, ok := cat.Lookup(name)
	if !ok {
		return apperr.Userf("unknown criterion %q (known: %s)", name, strings.Join(cat.Names(), ", "))
	}
	ts, ok := entry.Target.Criterion().(*criterion.TimeseriesRef)
	if !ok {
		return apperr.Userf("criterion %q is %s; compare needs a reference criterion", name, entry.Spec.Kind)
	}

	tbl, err := report.FullComparison(ts, subject)
	if err != nil {
		return fmt.Errorf("comparing %q: %w", name, err)
	}

	if outputPath != "" {
		opts := iamio.WriteOptions{Format: viper.GetString("compare.output-format")}
		if err := iamio.WriteTables(outputPath, []*report.Table{tbl}, opts); err != nil {
			return fmt.Errorf("writing comparison: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if level == "quiet" {
		return nil
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(out, ui.FormatStatus("warning", fmt.Sprintf("No rows of %s match the reference.", inputPath)))
		return nil
	}
	ui.NewVetUI(out, false).PrintTable(tbl)
	if outputPath != "" {
		fmt.Fprintln(out, ui.FormatStatus("success", "Comparison written to "+outputPath))
	}
	return nil
}

func init() {
	compareCmd.Flags().StringVarP(&compareInput, "input", "i", "", "Path to scenario data in IAMC format (required)")
	compareCmd.Flags().StringVarP(&compareFormat, "format", "f", "auto", "Input format: csv|xlsx|json|yaml|auto")
	compareCmd.Flags().StringVarP(&compareCatalog, "catalog", "c", "", "Path to the criteria catalog (YAML)")
	compareCmd.Flags().StringVar(&compareCriterion, "criterion", "", "Name of a timeseries-ref or harmonization criterion (required)")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "Also write the comparison to this path")
	compareCmd.Flags().StringVar(&compareOutputFormat, "output-format", "auto", "Output format: csv|xlsx|json|yaml|auto")
	compareCmd.Flags().BoolVar(&compareForce, "force", false, "Overwrite an existing output without asking")
	compareCmd.Flags().StringVar(&compareLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{"input", "format", "catalog", "criterion", "output", "output-format", "force", "log-level"} {
		viper.BindPFlag("compare."+name, compareCmd.Flags().Lookup(name))
	}
}
