package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"

	cmd "github.com/iamcompact/iamvet-cli/cmd/iamvet"
	"github.com/iamcompact/iamvet-cli/internal/apperr"
	"github.com/iamcompact/iamvet-cli/internal/ui"
)

// Version is set at build time
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd.SetVersion(Version)
	err := fang.Execute(
		ctx,
		cmd.GetRootCmd(),
		fang.WithColorSchemeFunc(ui.FangColorScheme),
		fang.WithVersion(Version),
	)
	// A cancelled interactive flow exits 0, a strict run with misses exits 2.
	if code := apperr.ExitCode(err); code != 0 {
		stop()
		os.Exit(code)
	}
}
