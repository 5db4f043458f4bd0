// Package discovery implements spec.md §4.1: walking a filesystem tree,
// pruning ignored directories, loading candidate test files, and harvesting
// TestItems and fixtures from them.
//
// Go has no runtime equivalent of "load an arbitrary source file and
// observe its top-level definitions": a test/fixture author's package must
// already be compiled into this binary and have registered its
// declarations with internal/registry from an init() function. Discovery
// therefore does its filesystem work in two passes that are cross-checked
// against each other, grounded in the split the teacher itself keeps
// between static declarations and its runtime Registry, and in the
// go/ast-based source walking its own cmd/tast-lint performs:
//
//  1. staticSweep parses every candidate file with go/parser (never
//     compiling or executing it) purely to recover the deterministic
//     (file, line) declaration order spec.md §4.1 "Ordering" requires, and
//     to notice files that fail to parse (a collection error, spec.md §4.1
//     "Failure semantics").
//  2. Discovery cross-references the sweep against the registrations the
//     package actually performed at process start.
package discovery

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// defaultIgnoreNames is the default ignore-pattern set (spec.md §4.1 step 2).
var defaultIgnoreNames = map[string]bool{
	"*.egg":       true,
	".*":          true,
	"_darcs":      true,
	"build":       true,
	"CVS":         true,
	"dist":        true,
	"node_modules": true,
	"venv":        true,
	"{arch}":      true,
}

// venvMarkers are files whose presence in a directory marks it as a virtual
// environment to prune (spec.md §4.1 step 2).
var venvMarkers = []string{"pyvenv.cfg", "conda-meta/history"}

// SourceFile is one file Discovery decided to load, along with the
// declaration order information recovered from the static sweep.
type SourceFile struct {
	Path string
	// Decls maps a declared test name (function name, or Class.method) to
	// its source line, in file order.
	Decls []DeclSite
	// IsShared marks a directory-local shared-definition file (spec.md
	// §4.1 step 7), loaded ancestor-first and contributing fixtures
	// visible to every file beneath its directory.
	IsShared bool
	// ParseError is non-nil if the file failed to parse; Discovery reports
	// this as a collection error (spec.md §4.1 "Failure semantics") rather
	// than aborting.
	ParseError error
}

// DeclSite is one top-level or method declaration site found by the static
// sweep.
type DeclSite struct {
	Name  string // function name, or "Class.method" for a method
	Class string
	Line  int
}

// SharedFileName is the conventional name of a directory-local
// shared-definition file (spec.md §4.1 step 7, analogous to a
// conftest-equivalent).
const SharedFileName = "gotest_shared_test.go"

// isIgnored reports whether a directory entry name should be pruned
// (spec.md §4.1 step 2).
func isIgnored(name string) bool {
	for pattern := range defaultIgnoreNames {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return false
}

// isVenvDir reports whether dir contains a virtual-environment marker file.
func isVenvDir(dir string) bool {
	for _, marker := range venvMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// isTestFileName reports whether basename matches the test_*.<ext> or
// *_test.<ext> convention (spec.md §4.1 step 3), specialized to Go source.
func isTestFileName(base string) bool {
	if base == SharedFileName {
		return true
	}
	if !strings.HasSuffix(base, ".go") {
		return false
	}
	stem := strings.TrimSuffix(base, ".go")
	return strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test")
}

// Walk discovers candidate source files under paths, applying the ignore
// rules of spec.md §4.1 step 2 and the filename convention of step 3. An
// empty paths list means the current working directory (spec.md §4.1
// "Input constraints").
//
// Returned files are ordered: shared-definition files ancestor-first within
// their directory, then regular files in lexicographic (directory, file)
// order, matching spec.md §4.1 "Ordering" and step 7.
func Walk(paths []string) ([]*SourceFile, error) {
	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		paths = []string{cwd}
	}

	var files []*SourceFile
	seen := make(map[string]bool)

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				files = append(files, loadFile(root))
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && isIgnored(d.Name()) {
					return filepath.SkipDir
				}
				if isVenvDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isTestFileName(d.Name()) {
				return nil
			}
			if seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, loadFile(path))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		di, dj := filepath.Dir(files[i].Path), filepath.Dir(files[j].Path)
		if di != dj {
			return di < dj
		}
		// Shared-definition files for a directory sort before its regular
		// files so they can be "loaded" (registered) ancestor-first
		// (spec.md §4.1 step 7).
		if files[i].IsShared != files[j].IsShared {
			return files[i].IsShared
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// loadFile parses one candidate file with go/parser to recover its
// declaration sites. It never executes the file; only the package's own
// init()-time registration (already complete by the time Discovery runs,
// since this binary is already compiled and linked) supplies callables.
func loadFile(path string) *SourceFile {
	sf := &SourceFile{Path: path, IsShared: filepath.Base(path) == SharedFileName}

	fset := token.NewFileSet()
	astFile, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		sf.ParseError = err
		return sf
	}

	classRecv := make(map[string]bool) // receiver type names that look like "Test*"
	for _, decl := range astFile.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		pos := fset.Position(fn.Pos())
		if fn.Recv == nil {
			if strings.HasPrefix(fn.Name.Name, "test_") || strings.HasPrefix(fn.Name.Name, "Test") {
				sf.Decls = append(sf.Decls, DeclSite{Name: fn.Name.Name, Line: pos.Line})
			}
			continue
		}
		recvType := receiverTypeName(fn.Recv)
		if strings.HasPrefix(recvType, "Test") && strings.HasPrefix(fn.Name.Name, "test_") {
			classRecv[recvType] = true
			sf.Decls = append(sf.Decls, DeclSite{Name: recvType + "." + fn.Name.Name, Class: recvType, Line: pos.Line})
		}
	}
	return sf
}

func receiverTypeName(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}
	expr := fl.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}
