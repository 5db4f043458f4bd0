// Package runconfig defines RunConfig, the external configuration surface
// of the core (spec.md §6 "Configuration inputs"), built by the CLI from
// its flags and handed to internal/runner unchanged.
package runconfig

import "time"

// Config is the full set of options spec.md §6 lists, plus the
// supplemented marker-expression filter (see SPEC_FULL.md "Supplemented
// Features").
type Config struct {
	// Paths is the input path list (spec.md §6 "Input paths"); empty means
	// the current working directory.
	Paths []string

	// ExtraRoots mirrors spec.md §6 "pythonpath": extra source roots to
	// sweep in addition to Paths. Go has no import-search-path equivalent
	// at runtime, so this only affects which directories Discovery walks.
	ExtraRoots []string

	FailFast    bool
	LastFailed  bool
	FailedFirst bool

	CaptureOutput bool

	// Pattern is a substring filter against TestItem ids (spec.md §6
	// "pattern").
	Pattern string

	// AttrExpr is the supplemented marker/keyword filter (SPEC_FULL.md
	// "Supplemented Features"), composing with Pattern rather than
	// replacing it.
	AttrExpr string

	// ASCIIMode is a renderer option; internal/runner does not read it and
	// no event carries it.
	ASCIIMode bool

	// CacheDir is the persisted-cache directory (spec.md §6 "cache_dir");
	// defaults to the relative path ".gotest_cache", which resolves
	// against the current working directory, not a detected project root.
	CacheDir string

	// DefaultTestTimeout/DefaultFixtureTimeout are not read by
	// internal/runner; the executor always falls back to its own fixed
	// defaults (30s for a test, 10s for a fixture) when a callable declares
	// no timeout.
	DefaultTestTimeout    time.Duration
	DefaultFixtureTimeout time.Duration

	// CollectOnly returns the discovered, filtered items without executing
	// them (SPEC_FULL.md "Supplemented Features", --collect-only).
	CollectOnly bool
}

// DefaultCacheDir is spec.md §6's default cache_dir basename.
const DefaultCacheDir = ".gotest_cache"

// Normalized returns a copy of c with defaults filled in.
func (c Config) Normalized() Config {
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.LastFailed && c.FailedFirst {
		// Mutually exclusive per spec.md §6; last_failed wins deterministically.
		c.FailedFirst = false
	}
	return c
}
