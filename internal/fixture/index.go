// Package fixture implements spec.md §4.2 (FixtureRegistry & name
// resolution) and §4.3 (dependency resolver).
package fixture

import (
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"gotest/internal/errors"
	"gotest/internal/model"
)

// Index is a flat, scope-addressable index of fixtures (spec.md §3
// "FixtureRegistry"): a mapping name -> ordered list of candidates.
type Index struct {
	byName map[string][]*model.Fixture
}

// NewIndex builds an Index from every fixture Discovery collected.
func NewIndex(fixtures []*model.Fixture) *Index {
	ix := &Index{byName: make(map[string][]*model.Fixture)}
	for _, f := range fixtures {
		ix.byName[f.Name] = append(ix.byName[f.Name], f)
	}
	for name := range ix.byName {
		// Deterministic order among same-name candidates before proximity
		// ranking breaks further ties (spec.md §4.2, sort by declaration
		// stability rather than map iteration order).
		slices.SortFunc(ix.byName[name], func(a, b *model.Fixture) bool {
			return a.Origin < b.Origin
		})
	}
	return ix
}

// Candidates returns every fixture registered under name, in a stable order.
func (ix *Index) Candidates(name string) []*model.Fixture {
	return ix.byName[name]
}

// visible reports whether a fixture declared at originDir is reachable from
// a test file living in fromDir: the chain walks outward from the file's
// own directory to the root (spec.md §4.2 "Lookup order": defining file ->
// nearest shared-file ancestor -> further ancestors -> session-level).
// depth is the number of directory hops between fromDir and originDir (0
// means the fixture is declared in the same directory as the test, the
// innermost possible match).
func visible(fromDir, originDir string) (depth int, ok bool) {
	fromDir = filepath.Clean(fromDir)
	originDir = filepath.Clean(originDir)
	rel, err := filepath.Rel(originDir, fromDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return 0, false
	}
	if rel == "." {
		return 0, true
	}
	return len(strings.Split(rel, string(filepath.Separator))), true
}

// Resolve picks the single fixture satisfying name for a test declared in
// file (spec.md §4.2: "for this TestItem, which Fixture satisfies name N?").
// Candidates whose origin directory is not an ancestor of file's directory
// are not in scope at all. Among in-scope candidates, the one with the
// smallest depth (innermost) wins; a tie at the same smallest depth is
// ambiguous (spec.md §4.2: "ambiguous only if both are in-scope... closer
// scope wins").
func (ix *Index) Resolve(name, file string) (*model.Fixture, error) {
	candidates := ix.byName[name]
	if len(candidates) == 0 {
		return nil, missingFixtureError(name, ix.allNames())
	}

	dir := filepath.Dir(file)
	best := -1
	var winners []*model.Fixture
	for _, f := range candidates {
		depth, ok := visible(dir, filepath.Dir(f.Origin))
		if !ok {
			continue
		}
		switch {
		case best == -1 || depth < best:
			best = depth
			winners = []*model.Fixture{f}
		case depth == best:
			winners = append(winners, f)
		}
	}
	if len(winners) == 0 {
		return nil, missingFixtureError(name, ix.allNames())
	}
	if len(winners) > 1 {
		return nil, errors.Errorf("fixture %q is ambiguous: %d candidates at the same scope depth", name, len(winners))
	}
	return winners[0], nil
}

// Autouse returns every autouse fixture visible from file, sorted by name
// for determinism (spec.md §4.2 "Autouse fixtures contribute additional
// implicit dependencies for any test inside their reach").
func (ix *Index) Autouse(file string) []*model.Fixture {
	dir := filepath.Dir(file)
	byName := make(map[string]*model.Fixture)
	bestDepth := make(map[string]int)
	for name, candidates := range ix.byName {
		for _, f := range candidates {
			if !f.Autouse {
				continue
			}
			depth, ok := visible(dir, filepath.Dir(f.Origin))
			if !ok {
				continue
			}
			if cur, exists := byName[name]; !exists || depth < bestDepth[name] {
				byName[name] = f
				bestDepth[name] = depth
				_ = cur
			}
		}
	}
	names := maps.Keys(byName)
	slices.Sort(names)
	out := make([]*model.Fixture, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out
}

func (ix *Index) allNames() []string {
	names := maps.Keys(ix.byName)
	slices.Sort(names)
	return names
}

// missingFixtureError builds the "missing fixture" diagnostic of spec.md
// §4.3, listing the closest candidates by edit distance.
func missingFixtureError(name string, known []string) error {
	const maxSuggestions = 3
	type scored struct {
		name string
		dist int
	}
	var scoredNames []scored
	for _, k := range known {
		scoredNames = append(scoredNames, scored{k, levenshtein(name, k)})
	}
	slices.SortFunc(scoredNames, func(a, b scored) bool { return a.dist < b.dist })
	if len(scoredNames) > maxSuggestions {
		scoredNames = scoredNames[:maxSuggestions]
	}
	var suggestions []string
	for _, s := range scoredNames {
		suggestions = append(suggestions, s.name)
	}
	if len(suggestions) == 0 {
		return errors.Errorf("fixture %q not found", name)
	}
	return errors.Errorf("fixture %q not found; closest candidates: %s", name, strings.Join(suggestions, ", "))
}

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
