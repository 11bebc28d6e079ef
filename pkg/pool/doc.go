// Package pool provides bounded, back-pressured concurrency pools.
//
// # Back-pressured pool
//
// [Pool] stages submitted units on a bounded FIFO queue consumed by a
// fixed fleet of workers. A blocking [Pool.Submit] suspends the producer
// while the queue is full, which converts an unbounded producer loop into
// a rate that matches consumer capacity: submitting a million units keeps
// only queue-capacity + worker-count of them in memory.
//
//	p := pool.New[int](5, 50)
//	defer p.Acquire()()
//
//	fut, err := p.Submit(ctx, func(ctx context.Context) (int, error) {
//	    return compute(ctx), nil
//	}, true)
//	...
//	v, err := fut.Await()
//
// # Strict pool
//
// [StrictPool] has no staging queue at all; its monitor gates task creation
// so the in-flight count never exceeds the cap, even for one observation
// under adversarial concurrent submission. Use it when "at most N running"
// must hold exactly, not just in steady state.
//
// # Draining
//
// Every accepted unit settles its [Future] exactly once. [Pool.Shutdown]
// with wait=true returns only after all accepted units have done so, and
// [ShutdownAll] drains every live pool in the process — put one call at the
// end of your entry point when producers do not track their slots.
package pool
