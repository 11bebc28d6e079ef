// Package task layers a minimal distributed task queue on top of the
// concurrency pool, using an external broker as transport. A Task binds a
// work function to a named broker queue: producers serialize calls and
// push them with Submit, consumers pop them with Consume and execute them
// through a locally owned back-pressured pool, so a consumer never drains
// the broker faster than it can process.
//
// Results stay with whoever computed them: a producer that wants the value
// runs the function directly with Call; a consumer discards it.
package task

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/concurrency-go/aiopool/pkg/broker"
	"github.com/concurrency-go/aiopool/pkg/broker/brokerredis"
	"github.com/concurrency-go/aiopool/pkg/logx"
	"github.com/concurrency-go/aiopool/pkg/pool"
)

// Task binds a work function to a named broker queue together with its
// payload codec and local consumer pool configuration.
type Task[A, R any] struct {
	name string
	fn   func(context.Context, A) (R, error)
	opts Options

	mu        sync.Mutex
	broker    broker.Broker
	brokerErr error
	consuming bool
	stop      chan struct{}
}

// New binds fn to the broker queue queueName. The zero configuration
// consumes with 50 workers, a 500-slot staging queue, binary payloads, and
// a Redis broker on localhost.
func New[A, R any](queueName string, fn func(context.Context, A) (R, error), options ...Option) *Task[A, R] {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 10 * opts.Concurrency
	}
	return &Task[A, R]{
		name: queueName,
		fn:   fn,
		opts: opts,
	}
}

// QueueName returns the broker queue this task is bound to.
func (t *Task[A, R]) QueueName() string {
	return t.name
}

// getBroker resolves the broker lazily: an injected one wins, otherwise a
// Redis broker is built from BrokerURL on first use. The resolution error,
// if any, is cached and returned on every subsequent call.
func (t *Task[A, R]) getBroker() (broker.Broker, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.broker != nil || t.brokerErr != nil {
		return t.broker, t.brokerErr
	}
	if t.opts.Broker != nil {
		t.broker = t.opts.Broker
		return t.broker, nil
	}
	b, err := brokerredis.NewFromURL(t.opts.BrokerURL)
	if err != nil {
		t.brokerErr = taskErrors.NewWithCause(codeBrokerUnavailable, err).WithDetail("queue", t.name)
		return nil, t.brokerErr
	}
	t.broker = b
	return t.broker, nil
}

// Call runs the work function directly, bypassing the queue.
func (t *Task[A, R]) Call(ctx context.Context, args A) (R, error) {
	return t.fn(ctx, args)
}

// Submit serializes the call and pushes it onto the broker queue. It
// returns once the broker has accepted the payload; execution happens in
// whichever process consumes the queue.
func (t *Task[A, R]) Submit(ctx context.Context, args A) error {
	b, err := t.getBroker()
	if err != nil {
		return err
	}

	payload, err := t.opts.Codec.Marshal(invocation[A]{Args: args})
	if err != nil {
		return err
	}

	if err := b.PushBlocking(ctx, t.name, payload); err != nil {
		return taskErrors.NewWithCause(codeBrokerUnavailable, err).WithDetail("queue", t.name)
	}
	return nil
}

// Consume pops payloads from the broker queue and executes them through a
// locally owned back-pressured pool until ctx is cancelled or Stop is
// called. The pop loop parks inside the pool's blocking submit whenever
// the local staging queue is full, so broker payloads are only pulled at
// the rate the pool can absorb them.
//
// Errors from the work function are logged per unit and discarded; they
// never stop the loop. Broker errors terminate the loop and are returned.
// On exit the local pool is drained, so units already pulled from the
// broker are not lost.
func (t *Task[A, R]) Consume(ctx context.Context) error {
	t.mu.Lock()
	if t.consuming {
		t.mu.Unlock()
		return taskErrors.New(codeAlreadyConsuming).WithDetail("queue", t.name)
	}
	t.consuming = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.consuming = false
		t.stop = nil
		t.mu.Unlock()
	}()

	b, err := t.getBroker()
	if err != nil {
		return err
	}

	p := pool.New[R](t.opts.Concurrency, t.opts.MaxQueueSize)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), t.opts.ShutdownTimeout)
		defer cancel()
		if err := p.Shutdown(drainCtx, true); err != nil {
			logx.WithError(err).Warnf("task: drain of queue %q local pool timed out", t.name)
		}
	}()

	consumerID := uuid.New().String()[:8]
	logx.Infof("task: consumer %s started on queue %q (concurrency=%d)", consumerID, t.name, t.opts.Concurrency)
	defer logx.Infof("task: consumer %s stopped on queue %q", consumerID, t.name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		default:
		}

		payload, err := b.PopBlocking(ctx, t.name, t.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return taskErrors.NewWithCause(codeBrokerUnavailable, err).WithDetail("queue", t.name)
		}
		if payload == nil {
			continue // poll timeout, queue empty
		}

		var inv invocation[A]
		if err := t.opts.Codec.Unmarshal(payload, &inv); err != nil {
			logx.WithError(taskErrors.NewWithCause(codeDeserialize, err)).
				Warnf("task: consumer %s skipping undecodable payload on queue %q", consumerID, t.name)
			continue
		}

		args := inv.Args
		_, err = p.Submit(ctx, func(c context.Context) (R, error) {
			v, err := t.fn(c, args)
			if err != nil {
				logx.WithError(err).Warnf("task: unit on queue %q failed", t.name)
			}
			return v, err
		}, true)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Stop asks a running consumer to exit after its current pop attempt. It
// is a no-op when no consumer is running.
func (t *Task[A, R]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consuming && t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// QueueSize returns the number of payloads waiting on the broker queue.
func (t *Task[A, R]) QueueSize(ctx context.Context) (int64, error) {
	b, err := t.getBroker()
	if err != nil {
		return 0, err
	}
	return b.Length(ctx, t.name)
}

// ClearQueue purges the broker queue.
func (t *Task[A, R]) ClearQueue(ctx context.Context) error {
	b, err := t.getBroker()
	if err != nil {
		return err
	}
	return b.Clear(ctx, t.name)
}

// Close releases the broker connection. Safe to call when the broker was
// never resolved.
func (t *Task[A, R]) Close() error {
	t.mu.Lock()
	b := t.broker
	t.broker = nil
	t.brokerErr = nil
	t.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.Close()
}
