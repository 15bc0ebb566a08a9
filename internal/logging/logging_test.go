package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iamcompact/iamvet-cli/internal/ui"
)

func TestLogger_EnabledAndSetWriter(t *testing.T) {
	var l Logger
	if l.Enabled() {
		t.Fatalf("expected disabled when Writer is nil")
	}

	var buf bytes.Buffer
	l.SetWriter(&buf)
	if !l.Enabled() {
		t.Fatalf("expected enabled after setting Writer")
	}
}

func TestLogger_Logf_WritesPrefixCriterionAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:", PrefixColor: ui.FgGreen}
	l.Logf("  co2-2020  ", "msg %d", 1)

	out := buf.String()
	if !strings.Contains(out, "X:") {
		t.Fatalf("expected prefix, got %q", out)
	}
	if !strings.Contains(out, "criterion=co2-2020") {
		t.Fatalf("expected trimmed criterion, got %q", out)
	}
	if !strings.Contains(out, "msg 1") {
		t.Fatalf("expected formatted message, got %q", out)
	}
}

func TestLogger_Logf_QuotesNamesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:"}
	l.Logf("CO2 vs history", "x")

	if out := buf.String(); out != "X: criterion=\"CO2 vs history\" x\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestLogger_Logf_EmptyCriterion_UsesNone(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:"}
	l.Logf("   ", "x")

	out := buf.String()
	if !strings.Contains(out, "criterion=(none)") {
		t.Fatalf("expected placeholder criterion, got %q", out)
	}
}

func TestLogger_Logf_DefaultPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf}
	l.Logf("co2", "x")

	out := buf.String()
	if !strings.Contains(out, "Log:") {
		t.Fatalf("expected default prefix, got %q", out)
	}
}

func TestLogger_Logf_OmitField(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:", OmitCriterion: true}
	l.Logf("co2", "x")

	out := buf.String()
	if out != "X: x\n" {
		t.Fatalf("output = %q, want %q", out, "X: x\\n")
	}
}

func TestLogger_Logf_NilReceiver_NoPanic(t *testing.T) {
	var l *Logger
	l.Logf("co2", "x")
}
