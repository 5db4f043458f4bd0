// Package assert supplements the one boundary point spec.md §4.9 leaves to
// the host language's "userland assertion semantics": the wire shape of a
// captured assertion failure. Test authors are free to call t.Error/t.Fatal
// directly with their own message; these helpers exist only so a binary
// comparison failure can carry its received/expected operands through to
// the diagnostic layer (spec.md §4.9, "a 'received' and an 'expected' value
// when the failing expression is a binary comparison").
package assert

import (
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// reporter is the subset of *model.State this package needs.
// *model.FixtureState does not satisfy it (it has no ReportComparison).
type reporter interface {
	ReportComparison(received, expected interface{})
	Errorf(format string, args ...interface{})
}

// Equal reports a test failure if got and want are not deeply equal,
// attaching them to the state as a comparison pair.
func Equal(s reporter, got, want interface{}, msgAndArgs ...interface{}) bool {
	if reflect.DeepEqual(got, want) {
		return true
	}
	s.ReportComparison(got, want)
	s.Errorf("%snot equal (-got +want):\n%s", prefix(msgAndArgs), cmp.Diff(got, want))
	return false
}

// True reports a test failure if cond is false.
func True(s reporter, cond bool, msgAndArgs ...interface{}) bool {
	if cond {
		return true
	}
	s.Errorf("%scondition is false", prefix(msgAndArgs))
	return false
}

// NoError reports a test failure if err is non-nil.
func NoError(s reporter, err error, msgAndArgs ...interface{}) bool {
	if err == nil {
		return true
	}
	s.Errorf("%sunexpected error: %v", prefix(msgAndArgs), err)
	return false
}

func prefix(msgAndArgs []interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	format, ok := msgAndArgs[0].(string)
	if !ok {
		return fmt.Sprint(msgAndArgs...) + ": "
	}
	return fmt.Sprintf(format, msgAndArgs[1:]...) + ": "
}
