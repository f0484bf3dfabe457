package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/runner"
)

// handle is the pending-result slot for one dispatched task. It is polled
// non-blockingly by the control goroutine; the worker delivers exactly one
// result on ch.
type handle struct {
	ch   chan job.Result
	done bool
	res  job.Result
}

// Poll performs a non-blocking readiness check, caching the result once it
// arrives.
func (h *handle) Poll() bool {
	if h.done {
		return true
	}
	select {
	case res := <-h.ch:
		h.res = res
		h.done = true
		return true
	default:
		return false
	}
}

// Result returns the delivered result. Valid only after Poll reported true.
func (h *handle) Result() job.Result {
	return h.res
}

// submission pairs a bound runner with the handle its result is delivered on.
type submission struct {
	run runner.Runner
	out *handle
}

// pool is a fixed-size worker pool. Workers only execute runners and deliver
// results; every status transition and all ledger bookkeeping stays on the
// control goroutine.
type pool struct {
	submissions chan submission
	wg          sync.WaitGroup
}

// newPool starts size workers. queueCap bounds how many submissions may be
// outstanding; the concurrent engine sizes it to the ledger's CPU budget so
// Submit never blocks the control goroutine.
func newPool(ctx context.Context, size, queueCap int) *pool {
	p := &pool{submissions: make(chan submission, queueCap)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(ctx)
	}
	return p
}

func (p *pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for sub := range p.submissions {
		sub.out.ch <- capture(ctx, sub.run)
	}
}

// Submit dispatches a runner asynchronously and returns the handle to poll
// for its result.
func (p *pool) Submit(r runner.Runner) *handle {
	h := &handle{ch: make(chan job.Result, 1)}
	p.submissions <- submission{run: r, out: h}
	return h
}

// Stop lets in-flight work finish and releases the workers.
func (p *pool) Stop() {
	close(p.submissions)
	p.wg.Wait()
}

// capture runs a runner and folds its outcome, including a panic, into a
// Result value. Task failures are data, never control flow.
func capture(ctx context.Context, r runner.Runner) (res job.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = job.Result{Err: fmt.Errorf("runner panic: %v", p)}
		}
	}()
	value, err := r.Run(ctx)
	if err != nil {
		return job.Result{Err: err}
	}
	return job.Result{Value: value}
}
