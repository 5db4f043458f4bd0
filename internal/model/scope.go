package model

// Scope is a fixture (or loop) lifetime, governing how long a fixture's
// value is cached and shared (spec.md §3 "Fixture", GLOSSARY "Scope").
//
// Narrower scopes close first: Function, Class, Module, Package, Session,
// in that order. This ordering is used directly by the executor to decide
// finalizer order when multiple scopes close simultaneously (spec.md §4.4
// "Ordering guarantee for finalizers").
type Scope int

const (
	// Function scope: a fresh value per TestItem.
	Function Scope = iota
	// Class scope: shared by every TestItem method of the same enclosing class.
	Class
	// Module scope: shared by every TestItem in the same file.
	Module
	// Package scope: shared by every TestItem under the same directory.
	Package
	// Session scope: shared by the entire run.
	Session
)

// narrowToWide lists every scope in closing order (narrowest first), the
// same order in which the executor closes scopes that end at the same plan
// boundary.
var narrowToWide = []Scope{Function, Class, Module, Package, Session}

// Narrower reports whether s is a strictly narrower scope than other.
func (s Scope) Narrower(other Scope) bool {
	return int(s) < int(other)
}

func (s Scope) String() string {
	switch s {
	case Function:
		return "function"
	case Class:
		return "class"
	case Module:
		return "module"
	case Package:
		return "package"
	case Session:
		return "session"
	default:
		return "unknown"
	}
}

// ParseScope maps a configuration string to a Scope. An empty string
// defaults to Function scope (spec.md §4.2: "A missing scope defaults to
// function").
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "", "function":
		return Function, true
	case "class":
		return Class, true
	case "module":
		return Module, true
	case "package":
		return Package, true
	case "session":
		return Session, true
	default:
		return Function, false
	}
}
