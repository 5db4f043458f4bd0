package exec

import (
	"context"

	"gotest/internal/errors"
	"gotest/internal/logging"
	"gotest/internal/model"
)

// createdRef identifies a fixture instance this call to acquireFixtures
// itself created (a cache miss), so it can be rolled back if a later
// fixture in the same dependency chain fails to set up.
type createdRef struct {
	fixture *model.Fixture
	item    *model.TestItem
}

// acquireFixtures resolves item's fixture dependency plan and acquires each
// one in order, reusing already-live scope instances from the cache
// (spec.md §4.4 step 4). If acquisition fails partway through, every
// fixture this call itself created is torn down immediately, in LIFO order
// ("all already-acquired finalizers for this test are run LIFO", spec.md
// §4.4 step 4); fixtures reused from a wider, still-live scope instance are
// left untouched, since tearing them down here would end their scope early
// for every other item still depending on them.
func (e *Executor) acquireFixtures(ctx context.Context, item *model.TestItem, capture *logging.BufferLogger) (map[string]interface{}, error) {
	plan, err := e.resolver.Resolve(item)
	if err != nil {
		return nil, err
	}

	values := make(map[string]interface{}, len(plan.Order))
	var created []createdRef

	rollback := func() {
		for i := len(created) - 1; i >= 0; i-- {
			e.cache.Rollback(ctx, created[i].fixture, created[i].item)
		}
	}

	for _, f := range plan.Order {
		if v, ok := e.cache.Get(f, item); ok {
			values[f.Name] = v
			continue
		}

		val, tearDown, err := e.setUpFixture(ctx, f, item, capture)
		if err != nil {
			rollback()
			return nil, errors.Wrapf(err, "acquiring fixture %q", f.Name)
		}

		e.cache.Put(f, item, val, tearDown)
		created = append(created, createdRef{fixture: f, item: item})
		values[f.Name] = val
	}

	return values, nil
}

// setUpFixture runs f's SetUp callable under safeCall (spec.md §4.4 step 4),
// returning the produced value and, for yield-style fixtures (those
// implementing model.TearDowner), a teardown closure to register with the
// cache.
func (e *Executor) setUpFixture(ctx context.Context, f *model.Fixture, item *model.TestItem, capture *logging.BufferLogger) (interface{}, func(context.Context), error) {
	param := paramFor(f, item)
	fs := model.NewFixtureState(ctx, sinkFor(capture), param)

	timeout := f.SetUpTimeout
	if timeout <= 0 {
		timeout = defaultFixtureTimeout
	}

	var result interface{}
	var panicVal interface{}
	callErr := safeCall(ctx, e.clk, "fixture "+f.Name+" SetUp", timeout, 0, func(v interface{}) { panicVal = v }, func(cctx context.Context) {
		result = f.Impl.SetUp(cctx, fs)
	})
	if callErr != nil {
		return nil, nil, callErr
	}
	if panicVal != nil {
		if _, ok := panicVal.(model.FatalAbort); !ok {
			return nil, nil, errors.Errorf("panicked: %v", panicVal)
		}
	}
	if fs.HasError() {
		return nil, nil, errors.New(joinErrors(fs.Errors()))
	}

	var tearDown func(context.Context)
	if td, ok := f.Impl.(model.TearDowner); ok {
		tdTimeout := f.TearDownTimeout
		if tdTimeout <= 0 {
			tdTimeout = defaultFixtureTimeout
		}
		tearDown = func(tctx context.Context) {
			_ = safeCall(tctx, e.clk, "fixture "+f.Name+" TearDown", tdTimeout, 0, func(interface{}) {}, func(cctx context.Context) {
				td.TearDown(cctx, fs)
			})
		}
	}

	return result, tearDown, nil
}

// paramFor returns the parameter value bound to a parametric fixture for
// this item, as chosen by Discovery's Cartesian-product expansion over
// every dependency-reachable fixture's Params (spec.md §4.2 "Parametric
// fixtures", §8). Falling back to the first declared value only covers a
// TestItem built outside Discovery (e.g. directly in a test double), where
// no binding could have been recorded.
func paramFor(f *model.Fixture, item *model.TestItem) interface{} {
	if len(f.Params) == 0 {
		return nil
	}
	if fp, ok := item.FixtureParam(f.Name); ok {
		return fp.Value
	}
	return f.Params[0].Value
}

func joinErrors(errs []string) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}
