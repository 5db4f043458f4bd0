package exec

import (
	"context"
	"fmt"
	"path/filepath"

	"gotest/internal/model"
)

// scopeKey computes the bare scope-instance key for item (spec.md §3
// "FixtureCache"): function scope keys on the item id, class scope on
// file::Class, module scope on the file path, package scope on the
// directory, session scope is a constant shared by the whole run. It is
// independent of any fixture's own parametrization; closeScopesAfter uses it
// to decide when a scope instance ends.
func scopeKey(scope model.Scope, item *model.TestItem) string {
	switch scope {
	case model.Function:
		return item.ID
	case model.Class:
		return item.ClassKey()
	case model.Module:
		return item.ModuleKey()
	case model.Package:
		return filepath.Dir(item.File)
	default: // model.Session
		return "\x00session"
	}
}

// instanceKey computes the scope-instance key under which f's value for item
// is cached. For a parametric fixture this also folds in item's bound
// parameter id for f, so distinct parametrized instances sharing a wider
// scope never collide on the same cache entry (spec.md §4.2 "Parametric
// fixtures", §8).
func instanceKey(f *model.Fixture, item *model.TestItem) string {
	base := scopeKey(f.Scope, item)
	if len(f.Params) == 0 {
		return base
	}
	if fp, ok := item.FixtureParam(f.Name); ok {
		return base + "\x00p=" + fp.ID
	}
	return base
}

// entry is one cached fixture value and its finalizer, if any.
type entry struct {
	fixture  *model.Fixture
	value    interface{}
	finalize func(ctx context.Context) // nil for value-style fixtures
}

// FixtureCache holds every live fixture instance for the current plan,
// keyed by (fixture name, scope-instance key), and the per-scope-instance
// finalizer stacks awaiting invocation in LIFO order (spec.md §3
// "FixtureCache... also tracks the ordered list of finalizers").
//
// Generalized from the teacher's FixtureStack (planner/fixt.go), which
// tracks a single root-to-leaf traversal path; a test runner with class/
// module/package/session scopes instead needs one independent stack per
// concurrently-open scope instance, so FixtureCache keys its LIFO queues by
// scope-instance key rather than maintaining one global stack.
//
// Finalizer queues and the keys tracking what to clear are indexed by the
// bare scopeKey, not the parameter-aware instanceKey: a parametrized
// fixture's several instances (one per bound parameter value) all end
// together when their shared scope ends, so CloseInstance must find and
// close every one of them, not just a single exact key.
type FixtureCache struct {
	values     map[string]*entry   // "name\x00instanceKey" -> entry
	finalizers map[string][]*entry // scopeKey -> LIFO queue, most-recent last
	names      map[string][]string // scopeKey -> every cache key ever Put under it
	logSink    func(string)
}

// NewFixtureCache creates an empty FixtureCache. logSink receives messages
// logged by fixture SetUp/TearDown calls that aren't otherwise captured.
func NewFixtureCache(logSink func(string)) *FixtureCache {
	return &FixtureCache{
		values:     make(map[string]*entry),
		finalizers: make(map[string][]*entry),
		names:      make(map[string][]string),
		logSink:    logSink,
	}
}

func cacheKey(name, instance string) string { return name + "\x00" + instance }

// Get returns the cached value for f at this item's scope instance, and
// whether it was already present.
func (c *FixtureCache) Get(f *model.Fixture, item *model.TestItem) (interface{}, bool) {
	e, ok := c.values[cacheKey(f.Name, instanceKey(f, item))]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put records a freshly set-up fixture's value and, for yield-style
// fixtures, its teardown closure, under its scope instance's LIFO queue.
func (c *FixtureCache) Put(f *model.Fixture, item *model.TestItem, value interface{}, finalize func(ctx context.Context)) {
	instance := instanceKey(f, item)
	scope := scopeKey(f.Scope, item)
	key := cacheKey(f.Name, instance)
	e := &entry{fixture: f, value: value, finalize: finalize}
	c.values[key] = e
	c.names[scope] = append(c.names[scope], key)
	if finalize != nil {
		c.finalizers[scope] = append(c.finalizers[scope], e)
	}
}

// Rollback immediately tears down (if it has a finalizer) and forgets the
// fixture instance f acquired for item, used when a later fixture in the
// same acquisition chain fails to set up (spec.md §4.4 step 4, "all
// already-acquired finalizers for this test are run LIFO").
func (c *FixtureCache) Rollback(ctx context.Context, f *model.Fixture, item *model.TestItem) {
	key := cacheKey(f.Name, instanceKey(f, item))
	e, ok := c.values[key]
	if !ok {
		return
	}
	delete(c.values, key)
	scope := scopeKey(f.Scope, item)
	c.removeFromNames(scope, key)
	if e.finalize != nil {
		c.removeFromQueue(scope, e)
		c.runFinalizer(ctx, e)
	}
}

// CloseInstance runs every pending finalizer for instance in LIFO order
// (spec.md §4.4 step 7, "Ordering guarantee for finalizers... LIFO by
// acquisition order") and removes every entry ever Put under instance,
// finalized or not, including every parametrized variant sharing it.
// A panicking finalizer is recovered and reported to logSink (if non-nil),
// not propagated, so a teardown failure never blocks the rest of the plan.
// The Executor creates its cache with a nil logSink, and its teardown
// closures already swallow panics inside safeCall, so in a run such
// failures are not reported anywhere.
func (c *FixtureCache) CloseInstance(ctx context.Context, scope model.Scope, instance string) {
	queue := c.finalizers[instance]
	delete(c.finalizers, instance)
	for i := len(queue) - 1; i >= 0; i-- {
		c.runFinalizer(ctx, queue[i])
	}
	for _, key := range c.names[instance] {
		delete(c.values, key)
	}
	delete(c.names, instance)
}

func (c *FixtureCache) runFinalizer(ctx context.Context, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			c.log("finalizer for fixture %s panicked: %v", e.fixture.Name, r)
		}
	}()
	e.finalize(ctx)
}

func (c *FixtureCache) removeFromQueue(scope string, target *entry) {
	queue := c.finalizers[scope]
	for i, e := range queue {
		if e == target {
			c.finalizers[scope] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
}

func (c *FixtureCache) removeFromNames(scope, key string) {
	keys := c.names[scope]
	for i, k := range keys {
		if k == key {
			c.names[scope] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

func (c *FixtureCache) log(format string, args ...interface{}) {
	if c.logSink != nil {
		c.logSink(fmt.Sprintf(format, args...))
	}
}
