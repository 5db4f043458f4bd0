package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWalkFiltersByNameConventionAndIgnoresDirs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "test_login.go"), "package pkg\n")
	mustWrite(t, filepath.Join(dir, "helpers.go"), "package pkg\n")
	mustWrite(t, filepath.Join(dir, "widget_test.go"), "package pkg\n")

	ignored := filepath.Join(dir, "node_modules")
	if err := os.MkdirAll(ignored, 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(ignored, "test_skip_me.go"), "package pkg\n")

	files, err := Walk([]string{dir})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 candidate files, got %v", names)
	}
}

func TestWalkOrdersSharedFileBeforeRegularFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "test_a.go"), "package pkg\n")
	mustWrite(t, filepath.Join(dir, SharedFileName), "package pkg\n")

	files, err := Walk([]string{dir})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if !files[0].IsShared {
		t.Fatalf("expected the shared file to sort first, got %q first", files[0].Path)
	}
}

func TestWalkReportsParseErrorWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "test_broken.go"), "not valid go {{{")

	files, err := Walk([]string{dir})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 1 || files[0].ParseError == nil {
		t.Fatalf("expected one file with a parse error, got %+v", files)
	}
}

func TestWalkRecoversDeclarationSites(t *testing.T) {
	dir := t.TempDir()
	src := "package pkg\n\nfunc test_login() {}\n\ntype TestSuite struct{}\n\nfunc (s *TestSuite) test_method() {}\n"
	mustWrite(t, filepath.Join(dir, "test_a.go"), src)

	files, err := Walk([]string{dir})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files[0].Decls) != 2 {
		t.Fatalf("expected 2 declaration sites, got %+v", files[0].Decls)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
