package gotest

// Skip returns an unconditional skip marker (spec.md §4.4 step 2).
func Skip(reason string) Marker {
	return Marker{Kind: "skip", Reason: reason}
}

// SkipIf returns a skip marker that only applies when cond returns true
// (spec.md §4.4 step 2, "a condition evaluated now").
func SkipIf(reason string, cond func() bool) Marker {
	return Marker{Kind: "skip", Reason: reason, Condition: cond}
}

// XFail returns an xfail marker. If expectedErr is non-empty, the test's
// failure message (its recorded errors, or the panic's text) must contain
// expectedErr for it to count as xfailed rather than failed (spec.md §3
// "expected_exception?", §8 "xfail marker and expected exception").
func XFail(reason, expectedErr string) Marker {
	return Marker{Kind: "xfail", Reason: reason, ExpectedErr: expectedErr}
}
