package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
	"github.com/iamcompact/iamvet-cli/internal/catalog"
	"github.com/iamcompact/iamvet-cli/internal/iamio"
	"github.com/iamcompact/iamvet-cli/internal/ui"
	"github.com/iamcompact/iamvet-cli/internal/vetting"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iamvet",
	Short: "Vet integrated assessment model scenarios against target ranges",
	Long:  longDescription,

	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
	},

	// When invoked without a subcommand, show help (with banner) instead of
	// printing a plain usage output.
	RunE: func(cmd *cobra.Command, args []string) error {
		initUIAndBanner(cmd)
		return cmd.Help()
	},
}

var cfgFile string
var version string

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetRootCmd returns the root command for use with fang
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.iamvet.yaml or ./config/defaults.yaml)")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
		defaultHelp(cmd, args)
	})

	rootCmd.AddCommand(vetCmd, compareCmd, validateCmd)
}

func initConfig() {
	// Environment variables override config values, e.g. IAMVET_VET_CATALOG
	// for vet.catalog.
	viper.SetEnvPrefix("IAMVET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			cobra.CheckErr(fmt.Errorf("reading config %s: %w", cfgFile, err))
		}
		announceConfig()
		return
	}

	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath("./config")

	// Try .iamvet first, then defaults.yaml
	viper.SetConfigName(".iamvet")
	err := viper.ReadInConfig()
	notFound := viper.ConfigFileNotFoundError{}
	if err != nil && errors.As(err, &notFound) {
		viper.SetConfigName("defaults")
		err = viper.ReadInConfig()
	}
	switch {
	case err != nil && !errors.As(err, &notFound):
		cobra.CheckErr(err)
	case err == nil:
		announceConfig()
	}
}

func announceConfig() {
	configMsg := ui.Dim.Render("Using config file: ") + ui.Secondary.Render(viper.ConfigFileUsed())
	fmt.Fprintln(os.Stderr, configMsg)
}

const longDescription = "Vet integrated assessment model (IAM) scenarios. Compares scenario data in IAMC format against a catalog of criteria with target ranges, and reports which values fall inside their range and how far they are from their target."

func initUIAndBanner(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	cmd.Root().Long = ui.RenderGradientBanner(ui.BannerASCII) + "\n" + longDescription
}

// logLevel resolves the effective log level for key (from config, env, or
// flag) and wires package logging to w.
func logLevel(key string, w io.Writer) (string, error) {
	level := strings.ToLower(strings.TrimSpace(viper.GetString(key)))
	if level == "" {
		level = "standard"
	}
	switch level {
	case "quiet", "standard", "debug":
	default:
		return "", apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", level)
	}

	catalog.SetLogger(nil)
	iamio.SetLogger(nil)
	vetting.SetLogger(nil)
	if level == "debug" {
		catalog.SetLogger(w)
		iamio.SetLogger(w)
		vetting.SetLogger(w)
	}
	return level, nil
}
