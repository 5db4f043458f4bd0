package discovery

import (
	"context"
	"path/filepath"
	"testing"

	"gotest/internal/model"
	"gotest/internal/registry"
)

func TestDiscoverExpandsParametrizeAxes(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test_a.go")
	mustWrite(t, file, "package pkg\n\nfunc test_k() {}\n")

	reg := registry.New()
	mustAddTest(t, reg, &model.Declaration{
		Name: "test_k",
		File: file,
		Func: func(ctx context.Context, s *model.State) {},
		ParamSets: [][]model.Param{
			{{ID: "1", Value: 1}, {ID: "2", Value: 2}},
		},
	})

	res, err := Discover([]string{dir}, reg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 expanded items, got %d: %v", len(res.Items), itemIDs(res.Items))
	}
}

func TestDiscoverExpandsParametricFixture(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test_a.go")
	mustWrite(t, file, "package pkg\n\nfunc test_k() {}\n")

	reg := registry.New()
	mustAddFixture(t, reg, &model.Fixture{
		Name:   "n",
		Scope:  model.Function,
		Origin: file,
		Impl:   fakeFixtureImpl{},
		Params: []model.FixtureParam{
			{ID: "1", Value: 1},
			{ID: "2", Value: 2},
			{ID: "3", Value: 3},
		},
	})
	mustAddTest(t, reg, &model.Declaration{
		Name:     "test_k",
		File:     file,
		Func:     func(ctx context.Context, s *model.State) {},
		Fixtures: []string{"n"},
	})

	res, err := Discover([]string{dir}, reg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items (one per fixture param), got %d: %v", len(res.Items), itemIDs(res.Items))
	}
	wantIDs := map[string]bool{
		file + "::test_k[1]": true,
		file + "::test_k[2]": true,
		file + "::test_k[3]": true,
	}
	for _, it := range res.Items {
		if !wantIDs[it.ID] {
			t.Fatalf("unexpected item id %q, want one of %v", it.ID, wantIDs)
		}
		fp, ok := it.FixtureParam("n")
		if !ok {
			t.Fatalf("item %q missing a bound FixtureParam for %q", it.ID, "n")
		}
		if fp.Value == nil {
			t.Fatalf("item %q bound a nil value for fixture %q", it.ID, "n")
		}
	}
}

func TestDiscoverSkipsDeclarationsOutsideScannedFiles(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	mustAddTest(t, reg, &model.Declaration{
		Name: "test_elsewhere",
		File: filepath.Join(dir, "not_scanned.go"),
		Func: func(ctx context.Context, s *model.State) {},
	})

	res, err := Discover([]string{dir}, reg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected no items for an unscanned file, got %v", itemIDs(res.Items))
	}
}

func TestDiscoverEmitsErrorItemForFailedAncestorSharedFile(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, SharedFileName), "not valid go {{{")
	file := filepath.Join(dir, "test_a.go")
	mustWrite(t, file, "package pkg\n\nfunc test_one() {}\n")

	reg := registry.New()
	mustAddTest(t, reg, &model.Declaration{
		Name: "test_one",
		File: file,
		Func: func(ctx context.Context, s *model.State) {},
	})

	res, err := Discover([]string{dir}, reg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.CollectionErrors) != 1 {
		t.Fatalf("expected 1 collection error, got %v", res.CollectionErrors)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 synthesized errored item, got %v", itemIDs(res.Items))
	}
	s := model.NewState(context.Background(), nil, res.Items[0], nil)
	res.Items[0].Func(context.Background(), s)
	if !s.HasError() {
		t.Fatal("expected the synthesized item to always report an error")
	}
}

func TestDiscoverOrdersItemsDeterministically(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "test_a.go")
	fileB := filepath.Join(dir, "test_b.go")
	mustWrite(t, fileA, "package pkg\n\nfunc test_one() {}\n")
	mustWrite(t, fileB, "package pkg\n\nfunc test_two() {}\n")

	reg := registry.New()
	mustAddTest(t, reg, &model.Declaration{Name: "test_two", File: fileB, Func: func(ctx context.Context, s *model.State) {}})
	mustAddTest(t, reg, &model.Declaration{Name: "test_one", File: fileA, Func: func(ctx context.Context, s *model.State) {}})

	res, err := Discover([]string{dir}, reg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].File != fileA {
		t.Fatalf("expected fileA's item first, got %v", itemIDs(res.Items))
	}
}

func mustAddTest(t *testing.T, reg *registry.Registry, d *model.Declaration) {
	t.Helper()
	if err := reg.AddTest(d); err != nil {
		t.Fatal(err)
	}
}

func mustAddFixture(t *testing.T, reg *registry.Registry, f *model.Fixture) {
	t.Helper()
	if err := reg.AddFixture(f); err != nil {
		t.Fatal(err)
	}
}

type fakeFixtureImpl struct{}

func (fakeFixtureImpl) SetUp(ctx context.Context, s *model.FixtureState) interface{} { return s.Param() }

func itemIDs(items []*model.TestItem) []string {
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
