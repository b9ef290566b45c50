package scripting

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckAcceptsValidScript(t *testing.T) {
	src := `function greet(n) { app.alert("hi " + n); } this.print = undefined;`
	if err := Check("init", src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckReportsSyntaxError(t *testing.T) {
	err := Check("broken", "function (")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if se.Name != "broken" || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckLimits(t *testing.T) {
	if err := Check("", "1"); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := Check("big", strings.Repeat(" ", MaxScriptSize+1)); err == nil {
		t.Fatal("expected size error")
	}
}
