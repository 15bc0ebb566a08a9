package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
	"github.com/iamcompact/iamvet-cli/internal/catalog"
	"github.com/iamcompact/iamvet-cli/internal/ui"
)

var (
	validateCatalog      string
	validatePlainSummary bool
	validateLogLevel     string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a criteria catalog",
	Long:  "Loads a criteria catalog with its reference data and builds every criterion and target range, reporting the first problem found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logLevel("validate.log-level", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		path := strings.TrimSpace(viper.GetString("validate.catalog"))
		if path == "" {
			path = strings.TrimSpace(viper.GetString("vet.catalog"))
		}
		if path == "" {
			return apperr.User("--catalog is required")
		}

		r := ui.CatalogReport{Path: path}
		cat, loadErr := catalog.Load(path)
		if loadErr != nil {
			r.Errors = []string{loadErr.Error()}
		} else {
			r.Valid = true
			for name := range cat.References {
				r.References = append(r.References, name)
			}
			slices.Sort(r.References)
			for _, e := range cat.Entries {
				r.Criteria = append(r.Criteria, ui.CriterionChoice{Name: e.Target.Name(), Kind: e.Spec.Kind, Detail: e.Describe()})
			}
		}

		out := cmd.OutOrStdout()
		if viper.GetBool("validate.plain-summary") {
			ui.NewCatalogUI(out, false).PrintSimpleReport(r)
		} else {
			ui.NewCatalogUI(out, level == "quiet").PrintReport(r)
		}

		if loadErr != nil {
			if errors.Is(loadErr, catalog.ErrInvalidCatalog) {
				return apperr.Userf("validation failed: %w", loadErr)
			}
			return fmt.Errorf("validation failed: %w", loadErr)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateCatalog, "catalog", "c", "", "Path to the criteria catalog (YAML)")
	validateCmd.Flags().BoolVar(&validatePlainSummary, "plain-summary", false, "Print a plain summary (no styling)")
	validateCmd.Flags().StringVar(&validateLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("validate.catalog", validateCmd.Flags().Lookup("catalog"))
	viper.BindPFlag("validate.plain-summary", validateCmd.Flags().Lookup("plain-summary"))
	viper.BindPFlag("validate.log-level", validateCmd.Flags().Lookup("log-level"))
}
