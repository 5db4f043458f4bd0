package gotest

import "gotest/internal/assert"

// AssertEqual fails the test (without aborting it) if got and want are not
// deeply equal, and records both operands for the diagnostic layer
// (spec.md §4.9).
func AssertEqual(s *State, got, want interface{}, msgAndArgs ...interface{}) bool {
	return assert.Equal(s, got, want, msgAndArgs...)
}

// AssertTrue fails the test if cond is false.
func AssertTrue(s *State, cond bool, msgAndArgs ...interface{}) bool {
	return assert.True(s, cond, msgAndArgs...)
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(s *State, err error, msgAndArgs ...interface{}) bool {
	return assert.NoError(s, err, msgAndArgs...)
}
