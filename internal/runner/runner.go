// Package runner wires Discovery, the fixture resolver, the scheduler, and
// the executor into the core's single entry point (spec.md §2 data flow:
// "paths -> Discovery -> list of TestItems + FixtureRegistry -> Scheduler
// produces an ordered plan -> Executor consumes the plan, emitting events
// -> Cache is rewritten -> final Summary emitted"), analogous to the
// teacher's planner.RunTests.
package runner

import (
	"context"
	"sort"
	"strings"

	"code.cloudfoundry.org/clock"

	"gotest/internal/discovery"
	"gotest/internal/events"
	"gotest/internal/exec"
	"gotest/internal/fixture"
	"gotest/internal/model"
	"gotest/internal/registry"
	"gotest/internal/resultcache"
	"gotest/internal/runconfig"
	"gotest/internal/scheduler"
)

// Result is everything one invocation produces: the discovered plan (useful
// for --collect-only), the final report, and any collection errors.
type Result struct {
	Items            []*model.TestItem
	CollectionErrors []discovery.CollectionError
	Report           *model.RunReport
}

// Run executes one end-to-end invocation of cfg against reg (normally
// registry.Default()).
func Run(ctx context.Context, cfg runconfig.Config, reg *registry.Registry, stream *events.Stream) (*Result, error) {
	cfg = cfg.Normalized()

	disc, err := discovery.Discover(joinPaths(cfg), reg)
	if err != nil {
		return nil, err
	}

	items := filter(disc.Items, cfg)

	res := &Result{Items: items, CollectionErrors: disc.CollectionErrors}
	if cfg.CollectOnly {
		return res, nil
	}

	ix := fixture.NewIndex(disc.Fixtures)
	resolver := fixture.NewResolver(ix)

	prior := resultcache.Load(cfg.CacheDir).Outcomes
	plan := scheduler.Build(items, scheduler.Options{
		FailFast:      cfg.FailFast,
		LastFailed:    cfg.LastFailed,
		FailedFirst:   cfg.FailedFirst,
		PriorOutcomes: prior,
	}, wideAsyncFixtureChecker(resolver))

	executor := exec.New(resolver, clock.NewClock(), exec.Options{
		Capture:  cfg.CaptureOutput,
		FailFast: cfg.FailFast,
	})

	if stream != nil {
		stream.Emit(model.RunStarted{Total: len(items)})
	}
	emit := func(ev model.Event) {
		if stream != nil {
			stream.Emit(ev)
		}
	}

	report := executor.Run(ctx, plan, emit)
	res.Report = report

	if stream != nil {
		stream.Emit(model.RunEnded{Summary: *report})
	}

	// Cache writes do not block the final summary (spec.md §4.8); a
	// failure here is ignored and never changes the run's exit code.
	_ = resultcache.Save(cfg.CacheDir, report)

	return res, nil
}

func joinPaths(cfg runconfig.Config) []string {
	paths := append([]string(nil), cfg.Paths...)
	paths = append(paths, cfg.ExtraRoots...)
	return paths
}

// filter applies spec.md §6's pattern substring filter plus the
// supplemented AttrExpr marker filter, then keeps discovery order stable.
func filter(items []*model.TestItem, cfg runconfig.Config) []*model.TestItem {
	if cfg.Pattern == "" && cfg.AttrExpr == "" {
		return items
	}
	var out []*model.TestItem
	for _, it := range items {
		if cfg.Pattern != "" && !strings.Contains(it.ID, cfg.Pattern) {
			continue
		}
		if cfg.AttrExpr != "" && !matchesAttrExpr(it, cfg.AttrExpr) {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// matchesAttrExpr implements the supplemented -k-style keyword filter
// (SPEC_FULL.md "Supplemented Features"): expr matches if it names the
// test's FuncName, Class, or any marker kind/reason substring.
func matchesAttrExpr(item *model.TestItem, expr string) bool {
	if strings.Contains(item.FuncName, expr) || strings.Contains(item.Class, expr) {
		return true
	}
	for _, m := range item.Markers {
		if strings.Contains(m.Kind, expr) || strings.Contains(m.Reason, expr) {
			return true
		}
	}
	return false
}

// wideAsyncFixtureChecker returns a scheduler.AsyncFixtureScope that reports
// whether any of item's resolved fixtures is async with scope session or
// package (spec.md §4.5 "Batch formation" condition (b)); resolution
// failures are treated as disqualifying, the conservative choice, since a
// broken dependency graph should never force an item into a batch.
func wideAsyncFixtureChecker(resolver *fixture.Resolver) scheduler.AsyncFixtureScope {
	return func(item *model.TestItem) bool {
		plan, err := resolver.Resolve(item)
		if err != nil {
			return true
		}
		for _, f := range plan.Order {
			if f.Async && (f.Scope == model.Session || f.Scope == model.Package) {
				return true
			}
		}
		return false
	}
}
