package pool

import (
	"context"
	"sync"
)

// StrictPool bounds in-flight work at submission time instead of staging
// it: there is no queue, and the number of units running at any instant is
// provably at most maxConcurrency even under concurrent submission. Submit
// suspends while the pool is saturated and spawns the unit the moment a
// slot frees up.
//
// The bound is enforced with a monitor (mutex + condition variable): the
// in-flight count is only ever incremented under the lock and only when it
// is below the cap, and the check-and-increment is atomic with respect to
// both other submitters and completion callbacks.
type StrictPool[T any] struct {
	maxConcurrency int

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int
}

// NewStrict creates a strict pool running at most maxConcurrency units at
// once. maxConcurrency below 1 is raised to 1.
func NewStrict[T any](maxConcurrency int) *StrictPool[T] {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	s := &StrictPool[T]{maxConcurrency: maxConcurrency}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Submit claims an execution slot, suspending while the pool is saturated,
// then spawns fn and returns its result slot. Cancellation is honored
// while waiting: if ctx ends before a slot frees up, the unit is never
// accepted and ctx.Err() is returned. Once a slot is claimed the unit
// always runs.
func (s *StrictPool[T]) Submit(ctx context.Context, fn func(context.Context) (T, error)) (*Future[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// cond.Wait cannot watch ctx by itself: on a saturated pool with no
	// completions, a parked submitter would never wake to observe the
	// cancellation. Arrange a wake-up for that case. Taking the lock in
	// the callback means the broadcast cannot fire between the error
	// check below and the next Wait.
	stopWake := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer stopWake()

	s.mu.Lock()
	for s.inFlight >= s.maxConcurrency {
		if err := ctx.Err(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.cond.Wait()
	}
	s.inFlight++
	s.mu.Unlock()

	fut := newFuture[T]()
	go func() {
		v, err := s.runUnit(ctx, fn)
		fut.settle(v, err)

		s.mu.Lock()
		s.inFlight--
		// Broadcast rather than Signal: submitters and Wait callers share
		// the condition, and a lone Signal could wake a Wait caller while a
		// submitter sleeps on a free slot.
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	return fut, nil
}

func (s *StrictPool[T]) runUnit(ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = poolErrors.NewWithMessage(codeUnitPanicked, "Work unit panicked")
		}
	}()
	return fn(ctx)
}

// Run submits fn and awaits its result.
func (s *StrictPool[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	fut, err := s.Submit(ctx, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	return fut.AwaitCtx(ctx)
}

// Wait blocks until no units are in flight. It returns immediately when
// nothing was ever submitted. Submissions racing Wait may keep it blocked;
// the caller is expected to stop submitting first.
func (s *StrictPool[T]) Wait() {
	s.mu.Lock()
	for s.inFlight > 0 {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// Acquire returns an idempotent release function that waits for all
// in-flight units, for use with defer on every exit path.
func (s *StrictPool[T]) Acquire() (release func()) {
	var once sync.Once
	return func() {
		once.Do(s.Wait)
	}
}

// InFlight reports the number of units currently running.
func (s *StrictPool[T]) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// MaxConcurrency returns the bound the pool was created with.
func (s *StrictPool[T]) MaxConcurrency() int {
	return s.maxConcurrency
}
