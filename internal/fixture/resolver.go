package fixture

import (
	"gotest/internal/errors"
	"gotest/internal/model"
)

// visitState tracks the standard white/grey/black DFS coloring used to
// detect dependency cycles; a grey node plays the role a fixture stuck
// mid-setup plays in the teacher's FixtureStack (planner/fixt.go).
type visitState int

const (
	white visitState = iota // not yet visited
	grey                    // on the current DFS path (in progress)
	black                   // fully resolved
)

// Plan is the resolved, ordered list of fixtures a single TestItem must
// acquire before it runs (spec.md §4.3). Order is post-order: a fixture
// never appears before something it depends on, and duplicates (shared
// dependencies reached through more than one path) are collapsed to their
// first occurrence.
type Plan struct {
	Order []*model.Fixture
}

// Resolver walks fixture dependency graphs for TestItems, using ix to turn
// names into concrete Fixtures under innermost-wins scoping (spec.md §4.2).
type Resolver struct {
	ix *Index
}

// NewResolver builds a Resolver over ix.
func NewResolver(ix *Index) *Resolver {
	return &Resolver{ix: ix}
}

// Resolve computes the full acquisition order for item: its own declared
// fixtures plus every autouse fixture visible from item's file, and
// everything those transitively depend on (spec.md §4.3 "Dependency
// resolution").
func (r *Resolver) Resolve(item *model.TestItem) (*Plan, error) {
	names := make([]string, 0, len(item.Fixtures)+4)
	names = append(names, item.Fixtures...)
	for _, f := range r.ix.Autouse(item.File) {
		names = append(names, f.Name)
	}

	state := make(map[string]visitState)
	var order []*model.Fixture
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case black:
			return nil
		case grey:
			return errors.Errorf("fixture dependency cycle: %s -> %s", joinPath(path), name)
		}

		f, err := r.ix.Resolve(name, item.File)
		if err != nil {
			return err
		}

		state[name] = grey
		path = append(path, name)
		for _, dep := range f.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = black
		order = append(order, f)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return &Plan{Order: dedupe(order)}, nil
}

func dedupe(fixtures []*model.Fixture) []*model.Fixture {
	seen := make(map[string]bool, len(fixtures))
	out := make([]*model.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		key := f.Name + "\x00" + f.Origin
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out
}
