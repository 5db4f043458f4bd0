// Package registry holds the raw test and fixture declarations a package
// under test contributes via init(), before Discovery expands them into
// TestItems and a FixtureRegistry.
//
// This mirrors the split the teacher keeps between chromiumos/tast/testing
// (the public registration API, AddTest/AddFixture) and the runtime
// Registry it populates (testing/registry.go): authors only ever see the
// public gotest package, while the engine walks this package's Registry.
package registry

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"gotest/internal/errors"
	"gotest/internal/model"
)

// Registry is a process-wide collection of test and fixture declarations.
type Registry struct {
	mu    sync.Mutex
	tests []*model.Declaration
	fixts map[string]*model.Fixture
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{fixts: make(map[string]*model.Fixture)}
}

// AddTest registers a test declaration. Unlike the teacher's AddTest,
// parameter expansion is not performed here: it is Discovery's job, since it
// must interleave with file/line ordering gathered from the static AST
// sweep (spec.md §4.1 "Ordering").
func (r *Registry) AddTest(d *model.Declaration) error {
	if d.Name == "" {
		return errors.New("test declaration missing a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, d)
	return nil
}

// AddFixture registers a fixture. Redeclaring the same name from the same
// origin file is an error; the same name from different origins is allowed,
// and lookup later picks the innermost one.
func (r *Registry) AddFixture(f *model.Fixture) error {
	if f.Name == "" {
		return errors.New("fixture declaration missing a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fixts[f.Name+"\x00"+f.Origin]; ok {
		return errors.Errorf("fixture %q already registered for %s", f.Name, f.Origin)
	}
	r.fixts[f.Name+"\x00"+f.Origin] = f
	return nil
}

// AllDeclarations returns every registered test declaration.
func (r *Registry) AllDeclarations() []*model.Declaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Declaration(nil), r.tests...)
}

// AllFixtures returns every registered fixture, in a deterministic order:
// r.fixts is a map, so iteration order is otherwise unstable across runs.
func (r *Registry) AllFixtures() []*model.Fixture {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := maps.Keys(r.fixts)
	slices.Sort(keys)
	fs := make([]*model.Fixture, len(keys))
	for i, k := range keys {
		fs[i] = r.fixts[k]
	}
	return fs
}

// defaultRegistry is the process-wide registry that the public gotest
// package's AddTest/AddFixture functions populate from test package init().
var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }
