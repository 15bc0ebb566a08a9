package iamio

import (
	"io"

	"github.com/iamcompact/iamvet-cli/internal/logging"
	"github.com/iamcompact/iamvet-cli/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Data:", PrefixColor: ui.FgCyan, OmitCriterion: true}

// SetLogger sets an optional destination for I/O logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(criterion string, format string, args ...any) {
	logger.Logf(criterion, format, args...)
}
