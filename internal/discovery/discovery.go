package discovery

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"gotest/internal/errors"
	"gotest/internal/fixture"
	"gotest/internal/model"
	"gotest/internal/registry"
)

// CollectionError is a failure to load or harvest from a file (spec.md §7
// "Collection error"). It does not abort discovery; a synthetic TestItem
// carrying the error is emitted instead (spec.md §4.1 "Failure semantics").
type CollectionError struct {
	File    string
	Message string
}

// Result is everything Discovery produces for one invocation: the expanded
// TestItems, the registered fixtures (not yet indexed — internal/fixture
// builds the lookup structure), and any collection errors.
type Result struct {
	Items            []*model.TestItem
	Fixtures         []*model.Fixture
	CollectionErrors []CollectionError
}

// Discover runs spec.md §4.1 end to end: walk paths, cross-reference the
// static sweep against reg's registrations, expand parametrize markers, and
// return deterministically ordered TestItems.
func Discover(paths []string, reg *registry.Registry) (*Result, error) {
	files, err := Walk(paths)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	walked := make(map[string]*SourceFile, len(files))
	failedAncestors := make(map[string]string) // dir -> message, for step-7 propagation

	for _, f := range files {
		walked[f.Path] = f
		if f.ParseError != nil {
			res.CollectionErrors = append(res.CollectionErrors, CollectionError{
				File:    f.Path,
				Message: f.ParseError.Error(),
			})
			if f.IsShared {
				failedAncestors[filepath.Dir(f.Path)] = f.ParseError.Error()
			}
		}
	}

	allowed := make(map[string]bool, len(walked))
	for p := range walked {
		allowed[p] = true
	}

	decls := reg.AllDeclarations()
	var inScope []*model.Declaration
	for _, d := range decls {
		if allowed[d.File] {
			inScope = append(inScope, applyLineFromSweep(d, walked[d.File]))
		}
	}

	res.Fixtures = reg.AllFixtures()
	resolver := fixture.NewResolver(fixture.NewIndex(res.Fixtures))

	for _, d := range inScope {
		if msg, ok := ancestorFailure(d.File, failedAncestors); ok {
			res.Items = append(res.Items, errorItem(d, "ancestor configuration failed to load: "+msg))
			continue
		}
		items, err := expand(d, resolver)
		if err != nil {
			res.Items = append(res.Items, errorItem(d, err.Error()))
			continue
		}
		res.Items = append(res.Items, items...)
	}

	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].ID < res.Items[j].ID
	})

	return res, nil
}

// ancestorFailure reports whether file lives under a directory whose shared
// file failed to load (spec.md §9 "Behaviour of a shared-definition file
// that itself fails to load").
func ancestorFailure(file string, failed map[string]string) (string, bool) {
	dir := filepath.Dir(file)
	for {
		if msg, ok := failed[dir]; ok {
			return msg, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// applyLineFromSweep overrides d.Line with the line the AST sweep recovered
// for this declaration's name, which is more precise than the line of the
// AddTest call site. The line is recorded on the item; Discover orders
// items by ID, not by line.
func applyLineFromSweep(d *model.Declaration, sf *SourceFile) *model.Declaration {
	if sf == nil {
		return d
	}
	want := d.Name
	if d.Class != "" {
		want = d.Class + "." + d.Name
	}
	for _, ds := range sf.Decls {
		if ds.Name == want {
			cp := *d
			cp.Line = ds.Line
			return &cp
		}
	}
	return d
}

// errorItem synthesizes a TestItem whose outcome is always `errored`
// (spec.md §4.1 "Failure semantics", §7 "Resolver error").
func errorItem(d *model.Declaration, reason string) *model.TestItem {
	return &model.TestItem{
		ID:       itemID(d, nil),
		File:     d.File,
		Class:    d.Class,
		FuncName: d.Name,
		Func: func(ctx context.Context, s *model.State) {
			s.Error(reason)
		},
		Line: d.Line,
	}
}

// itemID builds a TestItem's stable id, appending a bracketed, hyphen-joined
// list of idParts (test-level and/or fixture-level parameter ids) whenever
// idParts is non-empty, even if the declaration expands to a single item
// (spec.md §4.1 step 6 "test_k[1]" worked example).
func itemID(d *model.Declaration, idParts []string) string {
	id := d.File + "::"
	if d.Class != "" {
		id += d.Class + "::"
	}
	id += d.Name
	if len(idParts) > 0 {
		id += "[" + strings.Join(idParts, "-") + "]"
	}
	return id
}

// expand performs the Cartesian-product parameter expansion of spec.md §4.1
// step 6 and §4.2 "Parametric fixtures": test-level ParamSets and every
// dependency-reachable fixture's own Params all multiply together, exactly
// as spec.md §8's worked example requires (fixture n with params [1,2,3],
// test test_k(n) -> 3 items test_k[1]/[2]/[3], fixture invoked 3 times).
func expand(d *model.Declaration, resolver *fixture.Resolver) ([]*model.TestItem, error) {
	testCombos, err := cartesian(d.ParamSets)
	if err != nil {
		return nil, err
	}

	fixtureAxes, fixtureNames, err := fixtureParamAxes(d, resolver)
	if err != nil {
		return nil, err
	}
	fixtureCombos, err := cartesianFixtureParams(fixtureAxes)
	if err != nil {
		return nil, err
	}

	var items []*model.TestItem
	idx := 0
	for _, tc := range testCombos {
		for _, fc := range fixtureCombos {
			var idParts []string
			for _, p := range tc {
				idParts = append(idParts, p.ID)
			}
			var fp map[string]model.FixtureParam
			if len(fc) > 0 {
				fp = make(map[string]model.FixtureParam, len(fc))
				for i, name := range fixtureNames {
					fp[name] = fc[i]
					idParts = append(idParts, fc[i].ID)
				}
			}
			items = append(items, newItem(d, tc, fp, idParts, idx))
			idx++
		}
	}
	return items, nil
}

// fixtureParamAxes resolves d's full fixture dependency closure (its own
// declared fixtures, plus autouse and transitive dependencies, exactly as
// internal/exec resolves it at run time) and returns the Params of every
// parametric fixture in it, in dependency order, alongside their names.
func fixtureParamAxes(d *model.Declaration, resolver *fixture.Resolver) ([][]model.FixtureParam, []string, error) {
	synthetic := &model.TestItem{File: d.File, Fixtures: d.Fixtures}
	plan, err := resolver.Resolve(synthetic)
	if err != nil {
		return nil, nil, err
	}
	var axes [][]model.FixtureParam
	var names []string
	for _, f := range plan.Order {
		if len(f.Params) == 0 {
			continue
		}
		axes = append(axes, f.Params)
		names = append(names, f.Name)
	}
	return axes, names, nil
}

// cartesian returns the Cartesian product of axes, each axis a slice of
// Param representing one parametrize marker's values. An empty axes list
// returns a single empty combo, so callers need not special-case "no
// parametrize markers".
func cartesian(axes [][]model.Param) ([][]model.Param, error) {
	for _, axis := range axes {
		if len(axis) == 0 {
			return nil, errors.Errorf("parametrize axis has no values")
		}
	}
	result := [][]model.Param{{}}
	for _, axis := range axes {
		var next [][]model.Param
		for _, prefix := range result {
			for _, p := range axis {
				combo := append(append([]model.Param(nil), prefix...), p)
				next = append(next, combo)
			}
		}
		result = next
	}
	return result, nil
}

// cartesianFixtureParams is cartesian's counterpart for fixture-level
// parametrization (spec.md §4.2 "Parametric fixtures").
func cartesianFixtureParams(axes [][]model.FixtureParam) ([][]model.FixtureParam, error) {
	for _, axis := range axes {
		if len(axis) == 0 {
			return nil, errors.Errorf("parametric fixture has no params")
		}
	}
	result := [][]model.FixtureParam{{}}
	for _, axis := range axes {
		var next [][]model.FixtureParam
		for _, prefix := range result {
			for _, p := range axis {
				combo := append(append([]model.FixtureParam(nil), prefix...), p)
				next = append(next, combo)
			}
		}
		result = next
	}
	return result, nil
}

func newItem(d *model.Declaration, params []model.Param, fixtureParams map[string]model.FixtureParam, idParts []string, idx int) *model.TestItem {
	return &model.TestItem{
		ID:             itemID(d, idParts),
		File:           d.File,
		Class:          d.Class,
		FuncName:       d.Name,
		Func:           d.Func,
		Fixtures:       append([]string(nil), d.Fixtures...),
		Params:         params,
		FixtureParams:  fixtureParams,
		Markers:        append([]model.Marker(nil), d.Markers...),
		IsAsync:        d.IsAsync,
		AsyncLoopScope: d.AsyncLoopScope,
		Timeout:        d.Timeout,
		Line:           d.Line,
		ParamIndex:     idx,
	}
}
