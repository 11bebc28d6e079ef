package task_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/concurrency-go/aiopool/pkg/codec"
	"github.com/concurrency-go/aiopool/pkg/task"
)

// memBroker is an in-process broker.Broker used to exercise the task layer
// without a Redis server.
type memBroker struct {
	mu     sync.Mutex
	queues map[string]chan []byte
}

func newMemBroker() *memBroker {
	return &memBroker{queues: make(map[string]chan []byte)}
}

func (b *memBroker) queue(name string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		q = make(chan []byte, 4096)
		b.queues[name] = q
	}
	return q
}

func (b *memBroker) PushBlocking(ctx context.Context, queue string, payload []byte) error {
	select {
	case b.queue(queue) <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *memBroker) PopBlocking(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case p := <-b.queue(queue):
		return p, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *memBroker) Length(ctx context.Context, queue string) (int64, error) {
	return int64(len(b.queue(queue))), nil
}

func (b *memBroker) Clear(ctx context.Context, queue string) error {
	q := b.queue(queue)
	for {
		select {
		case <-q:
		default:
			return nil
		}
	}
}

func (b *memBroker) Close() error { return nil }

// brokenBroker fails every pop, simulating a lost connection.
type brokenBroker struct {
	*memBroker
}

func (b *brokenBroker) PopBlocking(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	return nil, errors.New("connection refused")
}

type addArgs struct {
	X int
	Y int
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestTask_SubmitConsumeDrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var invocations atomic.Int32
	var sum atomic.Int64

	b := newMemBroker()
	add := task.New("q1", func(_ context.Context, a addArgs) (int, error) {
		invocations.Add(1)
		sum.Add(int64(a.X + a.Y))
		return a.X + a.Y, nil
	},
		task.WithBroker(b),
		task.WithCodec(codec.Structured),
		task.WithConcurrency(3),
		task.WithPollTimeout(50*time.Millisecond),
	)

	const n = 1000
	for i := 0; i < n; i++ {
		if err := add.Submit(ctx, addArgs{X: 1, Y: 2}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	if size, err := add.QueueSize(ctx); err != nil || size != n {
		t.Fatalf("expected %d queued payloads, got %d (err=%v)", n, size, err)
	}

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- add.Consume(ctx)
	}()

	waitFor(t, 5*time.Second, func() bool {
		return invocations.Load() == n
	})

	cancel()
	if err := <-consumeDone; err != nil {
		t.Fatalf("consume returned error: %v", err)
	}

	if size, err := add.QueueSize(context.Background()); err != nil || size != 0 {
		t.Fatalf("expected empty broker queue after drain, got %d (err=%v)", size, err)
	}
	if got := invocations.Load(); got != n {
		t.Fatalf("expected exactly %d invocations, got %d", n, got)
	}
	if got := sum.Load(); got != int64(3*n) {
		t.Fatalf("expected value sum %d, got %d", 3*n, got)
	}
}

func TestTask_CallBypassesBroker(t *testing.T) {
	ctx := context.Background()
	b := newMemBroker()
	add := task.New("bypass", func(_ context.Context, a addArgs) (int, error) {
		return a.X + a.Y, nil
	}, task.WithBroker(b))

	v, err := add.Call(ctx, addArgs{X: 2, Y: 3})
	if err != nil || v != 5 {
		t.Fatalf("expected 5, got v=%d err=%v", v, err)
	}
	if size, _ := add.QueueSize(ctx); size != 0 {
		t.Fatalf("direct call must not touch the broker, queue has %d", size)
	}
}

func TestTask_ConsumeSkipsUndecodablePayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var invocations atomic.Int32
	b := newMemBroker()
	echo := task.New("garbage", func(_ context.Context, s string) (string, error) {
		invocations.Add(1)
		return s, nil
	},
		task.WithBroker(b),
		task.WithCodec(codec.Structured),
		task.WithConcurrency(2),
		task.WithPollTimeout(20*time.Millisecond),
	)

	// A poisoned payload between two valid ones.
	if err := echo.Submit(ctx, "first"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := b.PushBlocking(ctx, "garbage", []byte("not a payload")); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if err := echo.Submit(ctx, "second"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- echo.Consume(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return invocations.Load() == 2
	})
	cancel()
	if err := <-consumeDone; err != nil {
		t.Fatalf("consume must survive undecodable payloads, got %v", err)
	}
}

func TestTask_FailingUnitsDoNotStopConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var invocations atomic.Int32
	b := newMemBroker()
	flaky := task.New("flaky", func(_ context.Context, n int) (int, error) {
		invocations.Add(1)
		if n%2 == 0 {
			return 0, errors.New("even numbers are broken")
		}
		return n, nil
	},
		task.WithBroker(b),
		task.WithCodec(codec.Structured),
		task.WithConcurrency(2),
		task.WithPollTimeout(20*time.Millisecond),
	)

	for i := 0; i < 10; i++ {
		if err := flaky.Submit(ctx, i); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- flaky.Consume(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return invocations.Load() == 10
	})
	cancel()
	if err := <-consumeDone; err != nil {
		t.Fatalf("consume must survive unit errors, got %v", err)
	}
}

func TestTask_SecondConsumerRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newMemBroker()
	tk := task.New("solo", func(_ context.Context, n int) (int, error) {
		return n, nil
	}, task.WithBroker(b), task.WithPollTimeout(20*time.Millisecond))

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- tk.Consume(ctx)
	}()

	// Give the first consumer time to claim the task.
	time.Sleep(50 * time.Millisecond)
	if err := tk.Consume(ctx); !errors.Is(err, task.ErrAlreadyConsuming) {
		t.Fatalf("expected ErrAlreadyConsuming, got %v", err)
	}

	cancel()
	if err := <-consumeDone; err != nil {
		t.Fatalf("first consumer failed: %v", err)
	}

	// Once the first consumer exits, a new one may start.
	ctx2, cancel2 := context.WithCancel(context.Background())
	consumeDone2 := make(chan error, 1)
	go func() {
		consumeDone2 <- tk.Consume(ctx2)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel2()
	if err := <-consumeDone2; err != nil {
		t.Fatalf("restarted consumer failed: %v", err)
	}
}

func TestTask_StopEndsConsumer(t *testing.T) {
	ctx := context.Background()
	b := newMemBroker()
	tk := task.New("stoppable", func(_ context.Context, n int) (int, error) {
		return n, nil
	}, task.WithBroker(b), task.WithPollTimeout(20*time.Millisecond))

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- tk.Consume(ctx)
	}()
	time.Sleep(50 * time.Millisecond)

	tk.Stop()
	select {
	case err := <-consumeDone:
		if err != nil {
			t.Fatalf("consume returned error after Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not exit after Stop")
	}
}

func TestTask_BrokerFailureTerminatesConsume(t *testing.T) {
	ctx := context.Background()
	tk := task.New("doomed", func(_ context.Context, n int) (int, error) {
		return n, nil
	}, task.WithBroker(&brokenBroker{memBroker: newMemBroker()}), task.WithPollTimeout(20*time.Millisecond))

	err := tk.Consume(ctx)
	if !errors.Is(err, task.ErrBrokerUnavailable) {
		t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
	}
}

func TestTask_ClearQueue(t *testing.T) {
	ctx := context.Background()
	b := newMemBroker()
	tk := task.New("purge", func(_ context.Context, n int) (int, error) {
		return n, nil
	}, task.WithBroker(b), task.WithCodec(codec.Structured))

	for i := 0; i < 5; i++ {
		if err := tk.Submit(ctx, i); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	if err := tk.ClearQueue(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if size, err := tk.QueueSize(ctx); err != nil || size != 0 {
		t.Fatalf("expected empty queue after clear, got %d (err=%v)", size, err)
	}
}

func TestBatchConsume_RunsAllConsumers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var added, multiplied atomic.Int32
	b := newMemBroker()
	add := task.New("batch-add", func(_ context.Context, a addArgs) (int, error) {
		added.Add(1)
		return a.X + a.Y, nil
	}, task.WithBroker(b), task.WithCodec(codec.Structured), task.WithPollTimeout(20*time.Millisecond))
	mul := task.New("batch-mul", func(_ context.Context, a addArgs) (int, error) {
		multiplied.Add(1)
		return a.X * a.Y, nil
	}, task.WithBroker(b), task.WithCodec(codec.Structured), task.WithPollTimeout(20*time.Millisecond))

	for i := 0; i < 20; i++ {
		if err := add.Submit(ctx, addArgs{X: i, Y: 1}); err != nil {
			t.Fatalf("submit add %d failed: %v", i, err)
		}
	}
	for i := 0; i < 10; i++ {
		if err := mul.Submit(ctx, addArgs{X: i, Y: 2}); err != nil {
			t.Fatalf("submit mul %d failed: %v", i, err)
		}
	}

	batchDone := make(chan error, 1)
	go func() {
		batchDone <- task.BatchConsume(ctx, add, mul)
	}()

	waitFor(t, 5*time.Second, func() bool {
		return added.Load() == 20 && multiplied.Load() == 10
	})
	cancel()
	if err := <-batchDone; err != nil {
		t.Fatalf("batch consume failed: %v", err)
	}
}
