package resultcache

import (
	"os"
	"testing"
	"time"

	"gotest/internal/model"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := &model.RunReport{}
	report.Add(model.ItemResult{ID: "pkg/a_test.go::test_a", Outcome: model.Passed, Duration: time.Millisecond})
	report.Add(model.ItemResult{ID: "pkg/a_test.go::test_b", Outcome: model.Failed, Duration: time.Millisecond})

	if err := Save(dir, report); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cache := Load(dir)
	if cache.Outcomes["pkg/a_test.go::test_a"] != model.Passed {
		t.Fatalf("test_a outcome = %v, want Passed", cache.Outcomes["pkg/a_test.go::test_a"])
	}
	if cache.Outcomes["pkg/a_test.go::test_b"] != model.Failed {
		t.Fatalf("test_b outcome = %v, want Failed", cache.Outcomes["pkg/a_test.go::test_b"])
	}
}

func TestLoadMissingCacheDegradesGracefully(t *testing.T) {
	cache := Load(t.TempDir())
	if len(cache.Outcomes) != 0 {
		t.Fatalf("expected an empty cache for a missing file, got %v", cache.Outcomes)
	}
}

func TestLoadCorruptCacheDegradesGracefully(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/" + FileName
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	cache := Load(dir)
	if len(cache.Outcomes) != 0 {
		t.Fatalf("expected an empty cache for corrupt YAML, got %v", cache.Outcomes)
	}
}
