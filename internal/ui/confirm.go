package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
)

// ConfirmOverwrite asks before replacing an existing report. Declining or
// aborting the prompt returns apperr.ErrCancelled.
func ConfirmOverwrite(path string) error {
	overwrite := false
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("%s already exists. Overwrite it?", path)).
			Affirmative("Overwrite").
			Negative("Keep").
			Value(&overwrite),
	)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return apperr.ErrCancelled
	}
	if err != nil {
		return err
	}
	if !overwrite {
		return apperr.ErrCancelled
	}
	return nil
}
