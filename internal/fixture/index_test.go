package fixture

import (
	"testing"

	"gotest/internal/model"
)

func newFixture(name, origin string, autouse bool, deps ...string) *model.Fixture {
	return &model.Fixture{Name: name, Origin: origin, Autouse: autouse, Deps: deps}
}

func TestResolvePrefersInnermost(t *testing.T) {
	outer := newFixture("db", "pkg/fixtures_test.go", false)
	inner := newFixture("db", "pkg/sub/fixtures_test.go", false)
	ix := NewIndex([]*model.Fixture{outer, inner})

	got, err := ix.Resolve("db", "pkg/sub/item_test.go")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != inner {
		t.Fatalf("Resolve returned %v, want the innermost candidate", got.Origin)
	}
}

func TestResolveOutOfScope(t *testing.T) {
	sibling := newFixture("db", "pkg/other/fixtures_test.go", false)
	ix := NewIndex([]*model.Fixture{sibling})

	if _, err := ix.Resolve("db", "pkg/sub/item_test.go"); err == nil {
		t.Fatal("expected an error resolving a fixture declared outside the ancestor chain")
	}
}

func TestResolveMissingSuggestsClosest(t *testing.T) {
	ix := NewIndex([]*model.Fixture{newFixture("database", "pkg/fixtures_test.go", false)})

	_, err := ix.Resolve("databse", "pkg/item_test.go")
	if err == nil {
		t.Fatal("expected an error for an unknown fixture name")
	}
}

func TestAutouseVisibility(t *testing.T) {
	au := newFixture("logging", "pkg/fixtures_test.go", true)
	ix := NewIndex([]*model.Fixture{au})

	got := ix.Autouse("pkg/sub/item_test.go")
	if len(got) != 1 || got[0] != au {
		t.Fatalf("Autouse = %v, want [%v]", got, au)
	}

	if got := ix.Autouse("other/item_test.go"); len(got) != 0 {
		t.Fatalf("Autouse leaked across unrelated directory: %v", got)
	}
}
