// Package diagnostic builds the enriched model.Diagnostic attached to a
// failed or errored TestItem (spec.md §4.9), grounded in the teacher's own
// errors package stack-trace capture plus a runtime.Callers-based frame
// walk. It additionally extracts the "received"/"expected" pair for binary
// comparison assertions, a deviation the teacher does not need: Go cannot
// introspect unwound local variables the way a dynamic host language's
// traceback can, so internal/assert explicitly reports the pair via
// model.State.ReportComparison before recording the failure, and this
// package just reads it back off the State.
package diagnostic

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"runtime"

	"gotest/internal/errors/stack"
	"gotest/internal/model"
)

// sourceContextRadius is how many lines are read on either side of a
// failing frame's line (spec.md §4.9 "up to three lines of source").
const sourceContextRadius = 1

// Build turns a recovered panic value (an error, or any other value passed
// to a bare panic) plus an optional comparison into a model.Diagnostic.
func Build(recovered interface{}, cmp *model.ComparisonInfo) *model.Diagnostic {
	d := &model.Diagnostic{}

	switch v := recovered.(type) {
	case nil:
		d.ExceptionType = "error"
		d.Message = "unknown error"
	case error:
		d.ExceptionType = exceptionType(v)
		d.Message = v.Error()
		if st, ok := v.(interface{ Stack() stack.Stack }); ok {
			d.Frames = frameChain(st.Stack())
		}
	default:
		d.ExceptionType = "panic"
		d.Message = fmt.Sprint(v)
	}

	if len(d.Frames) > 0 {
		last := d.Frames[len(d.Frames)-1]
		d.SourceContext = readSourceContext(last.File, last.Line)
	}

	if cmp != nil {
		d.HasComparison = true
		d.Received = cmp.Received
		d.Expected = cmp.Expected
	}

	return d
}

func exceptionType(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// frameChain converts a captured stack.Stack into outermost-first
// model.Frame entries (spec.md §4.9 "Frames is the call chain, outermost
// first").
func frameChain(s stack.Stack) []model.Frame {
	raw := s.Frames()
	frames := make([]model.Frame, len(raw))
	for i, f := range raw {
		// stack.Frames() is innermost-first (runtime.CallersFrames order);
		// reverse to outermost-first for the diagnostic's public shape.
		frames[len(raw)-1-i] = model.Frame{
			File:     f.File,
			Line:     f.Line,
			Function: f.Function,
		}
	}
	return frames
}

// readSourceContext reads up to 2*sourceContextRadius+1 lines of source
// around line from file, returning nil if the file cannot be read (a
// best-effort enrichment, never fatal to the run).
func readSourceContext(file string, line int) []string {
	if file == "" || line <= 0 {
		return nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	lo := line - sourceContextRadius
	if lo < 1 {
		lo = 1
	}
	hi := line + sourceContextRadius

	var lines []string
	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		if n < lo {
			continue
		}
		if n > hi {
			break
		}
		lines = append(lines, scanner.Text())
	}
	return lines
}

// DumpGoroutines captures a snapshot of every live goroutine's stack,
// attached to the diagnostic of an item whose execution was abandoned by a
// timeout (spec.md's supplemented "goroutine-leak diagnostics"), grounded
// in the teacher's planner.dumpGoroutines (planner/run.go).
func DumpGoroutines() string {
	buf := make([]byte, 1<<20)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}
