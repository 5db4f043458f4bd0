package fixture

import (
	"testing"

	"gotest/internal/model"
)

func TestResolverOrdersDepsBeforeDependents(t *testing.T) {
	conn := newFixture("conn", "pkg/fixtures_test.go", false)
	db := newFixture("db", "pkg/fixtures_test.go", false, "conn")
	ix := NewIndex([]*model.Fixture{conn, db})
	r := NewResolver(ix)

	item := &model.TestItem{File: "pkg/item_test.go", Fixtures: []string{"db"}}
	plan, err := r.Resolve(item)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(plan.Order) != 2 || plan.Order[0].Name != "conn" || plan.Order[1].Name != "db" {
		t.Fatalf("Order = %v, want [conn db]", names(plan.Order))
	}
}

func TestResolverDetectsCycle(t *testing.T) {
	a := newFixture("a", "pkg/fixtures_test.go", false, "b")
	b := newFixture("b", "pkg/fixtures_test.go", false, "a")
	ix := NewIndex([]*model.Fixture{a, b})
	r := NewResolver(ix)

	item := &model.TestItem{File: "pkg/item_test.go", Fixtures: []string{"a"}}
	if _, err := r.Resolve(item); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestResolverDedupesSharedDependency(t *testing.T) {
	shared := newFixture("shared", "pkg/fixtures_test.go", false)
	a := newFixture("a", "pkg/fixtures_test.go", false, "shared")
	b := newFixture("b", "pkg/fixtures_test.go", false, "shared")
	ix := NewIndex([]*model.Fixture{shared, a, b})
	r := NewResolver(ix)

	item := &model.TestItem{File: "pkg/item_test.go", Fixtures: []string{"a", "b"}}
	plan, err := r.Resolve(item)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	count := 0
	for _, f := range plan.Order {
		if f.Name == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("shared fixture appears %d times, want 1", count)
	}
}

func names(fixtures []*model.Fixture) []string {
	out := make([]string, len(fixtures))
	for i, f := range fixtures {
		out[i] = f.Name
	}
	return out
}
