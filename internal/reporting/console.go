// Package reporting renders the core's event stream to a console writer.
// Its bracketed "[ PASS ]"/"[ FAIL ]" layout is grounded in the teacher's
// cmd/tast/internal/run/reporting.WriteResultsToLogs, adapted from a
// post-run summary over resultsjson.Result to an incremental renderer
// driven by model.Event as each TestEnded arrives.
package reporting

import (
	"fmt"
	"io"
	"strings"

	"gotest/internal/model"
)

// Console renders events to w as they arrive.
type Console struct {
	w     io.Writer
	ascii bool
}

// NewConsole returns a Console writing to w. ascii disables any non-ASCII
// decoration a future renderer might add (spec.md §6 "ascii_mode").
func NewConsole(w io.Writer, ascii bool) *Console {
	return &Console{w: w, ascii: ascii}
}

// Handle renders one event. It is safe to call from the single goroutine
// draining an events.Stream; Console itself holds no concurrent state.
func (c *Console) Handle(ev model.Event) {
	switch e := ev.(type) {
	case model.RunStarted:
		fmt.Fprintln(c.w, strings.Repeat("-", 80))
		fmt.Fprintf(c.w, "collected %d item(s)\n", e.Total)
	case model.TestEnded:
		c.renderTestEnded(e)
	case model.FinalizerWarning:
		fmt.Fprintf(c.w, "  [ WARN ] finalizer %s: %s\n", e.FixtureName, e.Message)
	case model.RunEnded:
		c.renderSummary(e.Summary)
	}
}

func (c *Console) renderTestEnded(e model.TestEnded) {
	switch e.Outcome {
	case model.Passed:
		fmt.Fprintf(c.w, "%-60s [ PASS ]\n", e.ID)
	case model.XFailed:
		fmt.Fprintf(c.w, "%-60s [ XFAIL ]\n", e.ID)
	case model.XPassed:
		fmt.Fprintf(c.w, "%-60s [ XPASS ]\n", e.ID)
	case model.Skipped:
		fmt.Fprintf(c.w, "%-60s [ SKIP ] %s\n", e.ID, e.SkipReason)
	case model.Failed, model.Errored:
		label := "FAIL"
		if e.Outcome == model.Errored {
			label = "ERROR"
		}
		reason := ""
		if e.Diagnostic != nil {
			reason = e.Diagnostic.Message
		}
		fmt.Fprintf(c.w, "%-60s [ %s ] %s\n", e.ID, label, reason)
	}
}

func (c *Console) renderSummary(r model.RunReport) {
	fmt.Fprintln(c.w, strings.Repeat("-", 80))
	fmt.Fprintf(c.w, "%d passed, %d failed, %d skipped, %d xfailed, %d xpassed, %d errored in %s\n",
		r.Passed, r.Failed, r.Skipped, r.XFailed, r.XPassed, r.Errored, r.Duration)
}
