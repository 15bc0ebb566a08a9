package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestUserf_KeepsCause(t *testing.T) {
	err := Userf("reading %s: %w", "data.csv", fs.ErrNotExist)
	if !IsUser(err) {
		t.Fatalf("IsUser(%v) = false", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("cause lost: %v", err)
	}
	if got := err.Error(); got != "reading data.csv: file does not exist" {
		t.Fatalf("Error() = %q", got)
	}
	if IsUser(errors.New("plain")) {
		t.Fatalf("plain error reported as user error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrCancelled, 0},
		{fmt.Errorf("prompt: %w", ErrCancelled), 0},
		{fmt.Errorf("3 of 5 targets: %w", ErrOutOfRange), 2},
		{User("bad flag"), 1},
		{errors.New("disk full"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
