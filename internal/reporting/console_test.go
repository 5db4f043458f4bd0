package reporting

import (
	"bytes"
	"strings"
	"testing"

	"gotest/internal/model"
)

func TestConsoleRendersPassAndFail(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Handle(model.RunStarted{Total: 2})
	c.Handle(model.TestEnded{ID: "pkg/test_one", Outcome: model.Passed})
	c.Handle(model.TestEnded{ID: "pkg/test_two", Outcome: model.Failed, Diagnostic: &model.Diagnostic{Message: "boom"}})
	c.Handle(model.RunEnded{Summary: model.RunReport{Total: 2, Passed: 1, Failed: 1}})

	out := buf.String()
	if !strings.Contains(out, "[ PASS ]") {
		t.Fatalf("expected a PASS line, got %q", out)
	}
	if !strings.Contains(out, "[ FAIL ] boom") {
		t.Fatalf("expected a FAIL line with the diagnostic message, got %q", out)
	}
	if !strings.Contains(out, "1 passed, 1 failed") {
		t.Fatalf("expected a summary line, got %q", out)
	}
}

func TestConsoleRendersSkipReason(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	c.Handle(model.TestEnded{ID: "pkg/test_skip", Outcome: model.Skipped, SkipReason: "missing fixture"})

	if !strings.Contains(buf.String(), "[ SKIP ] missing fixture") {
		t.Fatalf("expected a SKIP line with reason, got %q", buf.String())
	}
}
