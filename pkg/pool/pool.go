package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/concurrency-go/aiopool/pkg/logx"
)

// workUnit pairs a deferred computation with its result slot. The submit
// context rides along so the unit observes the submitter's deadline and
// values when it eventually runs.
type workUnit[T any] struct {
	ctx context.Context
	fn  func(context.Context) (T, error)
	fut *Future[T]
}

// Pool is a bounded, back-pressured concurrency pool. Submitted units are
// staged on a FIFO queue of capacity maxQueueSize and executed by exactly
// maxConcurrency workers. A blocking Submit suspends the producer while the
// queue is full, so a producer issuing N submissions keeps at most
// maxQueueSize+maxConcurrency units in flight regardless of N.
//
// Workers start lazily on the first Submit. Shut the pool down with
// Shutdown, or use Acquire to get a release function suitable for defer.
type Pool[T any] struct {
	maxConcurrency int
	queue          chan workUnit[T]

	startOnce sync.Once
	wg        sync.WaitGroup

	// stateMu serializes submission against queue close. Producers hold the
	// read side for the whole send, so Shutdown's close(queue) cannot run
	// while a send is in progress.
	stateMu sync.RWMutex
	closed  bool
	started bool
}

// New creates a pool running at most maxConcurrency units at once with a
// staging queue of capacity maxQueueSize. maxConcurrency below 1 is raised
// to 1; a negative maxQueueSize is treated as 0 (direct handoff).
func New[T any](maxConcurrency, maxQueueSize int) *Pool[T] {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if maxQueueSize < 0 {
		maxQueueSize = 0
	}
	return &Pool[T]{
		maxConcurrency: maxConcurrency,
		queue:          make(chan workUnit[T], maxQueueSize),
	}
}

func (p *Pool[T]) ensureStarted() {
	p.startOnce.Do(func() {
		p.stateMu.Lock()
		if p.closed {
			p.stateMu.Unlock()
			return
		}
		p.started = true
		p.stateMu.Unlock()

		p.wg.Add(p.maxConcurrency)
		for range p.maxConcurrency {
			go p.worker()
		}
		register(p)
	})
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for u := range p.queue {
		v, err := p.runUnit(u)
		u.fut.settle(v, err)
	}
}

// runUnit executes one unit, converting a panic into an error so a failing
// unit can never take its worker down with it.
func (p *Pool[T]) runUnit(u workUnit[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.WithField("panic", r).Error("pool: work unit panicked")
			err = poolErrors.NewWithMessage(codeUnitPanicked, fmt.Sprintf("Work unit panicked: %v", r))
		}
	}()
	return u.fn(u.ctx)
}

// Submit stages fn for execution and returns its result slot. With
// blocking=true the call suspends while the staging queue is full; with
// blocking=false it fails fast with ErrQueueFull instead. Submitting to a
// shut-down pool fails with ErrPoolClosed. If ctx is done before the unit
// is staged, the unit is never accepted and ctx.Err() is returned.
func (p *Pool[T]) Submit(ctx context.Context, fn func(context.Context) (T, error), blocking bool) (*Future[T], error) {
	p.ensureStarted()

	u := workUnit[T]{ctx: ctx, fn: fn, fut: newFuture[T]()}

	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if p.closed {
		return nil, poolErrors.New(codeClosed)
	}

	if blocking {
		select {
		case p.queue <- u:
			return u.fut, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case p.queue <- u:
		return u.fut, nil
	default:
		return nil, poolErrors.New(codeQueueFull).WithDetail("capacity", cap(p.queue))
	}
}

// Run submits fn and awaits its result. Errors returned by fn propagate to
// the caller unchanged.
func (p *Pool[T]) Run(ctx context.Context, fn func(context.Context) (T, error), blocking bool) (T, error) {
	fut, err := p.Submit(ctx, fn, blocking)
	if err != nil {
		var zero T
		return zero, err
	}
	return fut.AwaitCtx(ctx)
}

// BatchSubmit submits each fn in order and returns one slot per accepted
// unit. The units enter the queue in slice order, though other producers
// may interleave between individual submissions. On error the slots
// accepted so far are returned alongside it.
func (p *Pool[T]) BatchSubmit(ctx context.Context, fns []func(context.Context) (T, error), blocking bool) ([]*Future[T], error) {
	futures := make([]*Future[T], 0, len(fns))
	for _, fn := range fns {
		fut, err := p.Submit(ctx, fn, blocking)
		if err != nil {
			return futures, err
		}
		futures = append(futures, fut)
	}
	return futures, nil
}

// BatchRun submits every fn, awaits them all, and returns their values in
// input order. If any unit failed, the first error (by input position) is
// returned after all units have settled.
func (p *Pool[T]) BatchRun(ctx context.Context, fns []func(context.Context) (T, error), blocking bool) ([]T, error) {
	futures, err := p.BatchSubmit(ctx, fns, blocking)
	if err != nil {
		// Let the accepted prefix settle so no unit is abandoned mid-flight.
		for _, fut := range futures {
			_, _ = fut.Await()
		}
		return nil, err
	}

	values := make([]T, len(futures))
	errs := make([]error, len(futures))
	for i, fut := range futures {
		values[i], errs[i] = fut.AwaitCtx(ctx)
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Shutdown closes the pool. Further submissions fail with ErrPoolClosed;
// units already staged are still executed. With wait=true the call
// suspends until every worker has exited, which happens only after all
// accepted units have settled their slots. Shutdown is idempotent: a
// second call with wait=true waits for the same drain and returns nil.
func (p *Pool[T]) Shutdown(ctx context.Context, wait bool) error {
	p.stateMu.Lock()
	if !p.closed {
		p.closed = true
		if p.started {
			// Closing the queue is the shutdown signal: workers drain the
			// remaining units in FIFO order, then their range loops end.
			close(p.queue)
		}
	}
	p.stateMu.Unlock()

	defer unregister(p)

	if !wait {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acquire starts the pool and returns a release function that shuts it
// down with wait=true. The release is idempotent and meant for defer, so
// the drain happens on every exit path:
//
//	p := pool.New[int](10, 100)
//	defer p.Acquire()()
func (p *Pool[T]) Acquire() (release func()) {
	p.ensureStarted()
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = p.Shutdown(context.Background(), true)
		})
	}
}

// QueueLength reports the number of units currently staged. Best effort:
// the value may be stale by the time the caller observes it.
func (p *Pool[T]) QueueLength() int {
	return len(p.queue)
}

// MaxConcurrency returns the worker count the pool was created with.
func (p *Pool[T]) MaxConcurrency() int {
	return p.maxConcurrency
}
