// Package exec runs a scheduler.Plan to completion, producing events and a
// final model.RunReport (spec.md §4.4-§4.6).
package exec

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/clock"
)

const defaultGracePeriod = 5 * time.Second

// panicHandler handles a value recovered from a panic that escaped f.
type panicHandler func(val interface{})

// AbandonedError is returned by safeCall when f did not return within
// timeout+gracePeriod and its goroutine was abandoned rather than awaited
// further; callers use this to decide whether a goroutine dump is relevant
// (a hang), as opposed to an ordinary context cancellation.
type AbandonedError struct {
	msg string
}

func (e AbandonedError) Error() string { return e.msg }

// safeCall runs f on its own goroutine so a caller is protected from it
// hanging or panicking, adapted from the teacher's planner.safeCall
// (planner/safe.go), generalized to take an injected clock.Clock instead of
// the real wall clock so tests can simulate timeouts deterministically.
//
// If f does not return within timeout, safeCall waits an additional
// gracePeriod for voluntary cleanup before abandoning the goroutine and
// returning an error; name is included in that error to identify the
// abandoned call. If f panics, ph is invoked with the recovered value on
// f's own goroutine (so its stack trace reflects the panic site), unless
// safeCall has already decided to abandon f.
func safeCall(ctx context.Context, clk clock.Clock, name string, timeout, gracePeriod time.Duration, ph panicHandler, f func(ctx context.Context)) error {
	if gracePeriod <= 0 {
		gracePeriod = defaultGracePeriod
	}

	var token uintptr
	takeToken := func() bool {
		return atomic.CompareAndSwapUintptr(&token, 0, 1)
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			val := recover()
			if !takeToken() {
				return
			}
			if val != nil && ph != nil {
				ph(val)
			}
		}()

		fctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		f(fctx)
	}()

	defer func() {
		if !takeToken() {
			<-done
		}
	}()

	timer := clk.NewTimer(timeout + gracePeriod)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C():
		return AbandonedError{msg: fmt.Sprintf("%s did not return within %s (+%s grace)", name, timeout, gracePeriod)}
	case <-ctx.Done():
		return ctx.Err()
	}
}
