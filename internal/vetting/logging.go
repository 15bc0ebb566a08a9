package vetting

import (
	"io"

	"github.com/iamcompact/iamvet-cli/internal/logging"
	"github.com/iamcompact/iamvet-cli/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Vetting:", PrefixColor: ui.FgGreen}

// SetLogger sets an optional destination for vetting logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(name string, format string, args ...any) {
	logger.Logf(name, format, args...)
}
