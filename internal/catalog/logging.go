package catalog

import (
	"io"

	"github.com/iamcompact/iamvet-cli/internal/logging"
	"github.com/iamcompact/iamvet-cli/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Catalog:", PrefixColor: ui.FgYellow}

// SetLogger sets an optional destination for catalog logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(name string, format string, args ...any) {
	logger.Logf(name, format, args...)
}
