package logging

import (
	"strings"
	"testing"
)

func TestSourceWindow(t *testing.T) {
	cases := []struct {
		text string
		col  int
		want string
	}{
		{"PRINT 1+", 8, "PRINT 1+" + HereMarker},
		{"X = ) ", 4, "X = " + HereMarker + ") "},
		{"LOOP\n", 0, HereMarker + "LOOP"},
		{"A\x9b", 5, "A" + HereMarker},
	}

	for _, c := range cases {
		if got := SourceWindow(c.text, c.col); got != c.want {
			t.Errorf("SourceWindow(%q, %d) = %q, expected %q", c.text, c.col, got, c.want)
		}
	}
}

func TestSourceWindowClipsLongLines(t *testing.T) {
	text := strings.Repeat("a", 100) + "X" + strings.Repeat("b", 100)
	got := SourceWindow(text, 100)

	want := strings.Repeat("a", 40) + HereMarker + "X" + strings.Repeat("b", 39)
	if got != want {
		t.Errorf("unexpected window %q", got)
	}
}

func TestCompileMessageText(t *testing.T) {
	cm := &CompileMessage{File: "prog.bas", Line: 3, Col: 7, Message: "parse error, expected expression"}
	if got := cm.Text(); got != "prog.bas:3:7: parse error, expected expression" {
		t.Errorf("unexpected text %q", got)
	}

	cm.Col = -1
	if got := cm.Text(); got != "prog.bas:3: parse error, expected expression" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestSilentLoggerCounts(t *testing.T) {
	Initialize("silent", false)
	defer Initialize("silent", false)

	LogCompileError("a.bas", 1, 0, "parse error", "X")
	LogBuildWarning("Grammar", "rule `FOO` is never used")

	if ShouldProceed() {
		t.Error("expected an error to be counted")
	}

	if ErrorCount() != 1 || WarningCount() != 1 {
		t.Errorf("expected 1 error and 1 warning, got %d and %d", ErrorCount(), WarningCount())
	}

	LogCompilationFinished()
	if WarningCount() != 0 {
		t.Error("warnings were not flushed")
	}
}
