// Package gotest is the public registration surface test and fixture
// authors write against, analogous to the teacher's chromiumos/tast/testing
// package. It is deliberately thin: AddTest and AddFixture merely validate
// and forward to the process-wide registry (internal/registry), which
// internal/discovery later walks to build TestItems and a FixtureRegistry.
package gotest

import (
	"fmt"
	"runtime"
	"time"

	"gotest/internal/model"
	"gotest/internal/registry"
)

// Re-exported types so that test/fixture files only need to import this one
// package.
type (
	// State is the handle passed to a running test.
	State = model.State
	// FixtureState is the handle passed to a fixture's SetUp/TearDown.
	FixtureState = model.FixtureState
	// TestFunc is the code associated with a test.
	TestFunc = model.TestFunc
	// FixtureImpl is the minimal fixture implementation surface.
	FixtureImpl = model.FixtureImpl
	// TearDowner is implemented by yield-style fixtures needing cleanup.
	TearDowner = model.TearDowner
	// Param is one bound parametrize value.
	Param = model.Param
	// Marker is a freeform test attribute (skip, xfail, custom).
	Marker = model.Marker
	// Scope is a fixture lifetime.
	Scope = model.Scope
	// FixtureParam is one value of a parametric fixture.
	FixtureParam = model.FixtureParam
)

// Scope constants re-exported for declaration sites.
const (
	FunctionScope = model.Function
	ClassScope    = model.Class
	ModuleScope   = model.Module
	PackageScope  = model.Package
	SessionScope  = model.Session
)

// Test describes a registration of one or more TestItems (spec.md §3).
// Test mirrors the teacher's testing.Test, minus ChromeOS-specific fields.
type Test struct {
	// Name is the base test name, e.g. "test_login".
	Name string
	// Func is invoked to run the test.
	Func TestFunc
	// Class is the enclosing class name, or "" for a free function.
	Class string
	// Fixtures lists the names of fixtures this test directly requests.
	Fixtures []string
	// ParamAxes lists one slice of Param per parametrize axis; their
	// Cartesian product is taken during Discovery (spec.md §4.1 step 6).
	ParamAxes [][]Param
	// Markers attaches skip/xfail/custom markers to the test.
	Markers []Marker
	// Async marks a coroutine test eligible for AsyncBatch grouping.
	Async bool
	// AsyncLoopScope is the loop-scope key batch formation groups on.
	AsyncLoopScope string
}

// AddTest registers t with the process-wide registry. Test authors call
// this from an init() in the same file Func is declared in, exactly as the
// teacher's AddTest is called from bundle init() functions.
func AddTest(t *Test) {
	_, file, line, _ := runtime.Caller(1)
	if err := registry.Default().AddTest(&model.Declaration{
		Name:           t.Name,
		Func:           t.Func,
		Class:          t.Class,
		Fixtures:       t.Fixtures,
		ParamSets:      t.ParamAxes,
		Markers:        t.Markers,
		IsAsync:        t.Async,
		AsyncLoopScope: t.AsyncLoopScope,
		File:           file,
		Line:           line,
	}); err != nil {
		panic(fmt.Sprintf("gotest.AddTest(%q): %v", t.Name, err))
	}
}

// FixtureDecl describes a registration of a fixture (spec.md §3 "Fixture").
type FixtureDecl struct {
	Name            string
	Scope           Scope
	Autouse         bool
	Deps            []string
	Impl            FixtureImpl
	Params          []FixtureParam
	Async           bool
	SetUpTimeout    time.Duration // zero means the executor's default (10s)
	TearDownTimeout time.Duration
}

// AddFixture registers f with the process-wide registry.
func AddFixture(f *FixtureDecl) {
	_, file, _, _ := runtime.Caller(1)
	if err := registry.Default().AddFixture(&model.Fixture{
		Name:            f.Name,
		Scope:           f.Scope,
		Autouse:         f.Autouse,
		Deps:            f.Deps,
		Impl:            f.Impl,
		Params:          f.Params,
		Async:           f.Async,
		Origin:          file,
		SetUpTimeout:    f.SetUpTimeout,
		TearDownTimeout: f.TearDownTimeout,
	}); err != nil {
		panic(fmt.Sprintf("gotest.AddFixture(%q): %v", f.Name, err))
	}
}
