package pool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/concurrency-go/aiopool/pkg/pool"
)

func TestShutdownAll_DrainsEveryLivePool(t *testing.T) {
	ctx := context.Background()
	p1 := pool.New[int](2, 8)
	p2 := pool.New[int](3, 8)

	var done atomic.Int32
	unit := func(context.Context) (int, error) {
		time.Sleep(2 * time.Millisecond)
		done.Add(1)
		return 0, nil
	}
	for i := 0; i < 10; i++ {
		if _, err := p1.Submit(ctx, unit, true); err != nil {
			t.Fatalf("submit to p1 failed: %v", err)
		}
		if _, err := p2.Submit(ctx, unit, true); err != nil {
			t.Fatalf("submit to p2 failed: %v", err)
		}
	}

	if err := pool.ShutdownAll(ctx); err != nil {
		t.Fatalf("ShutdownAll failed: %v", err)
	}
	if got := done.Load(); got != 20 {
		t.Fatalf("expected 20 units drained, got %d", got)
	}

	// Both pools are closed now.
	if _, err := p1.Submit(ctx, unit, true); !errors.Is(err, pool.ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed from p1, got %v", err)
	}
	if _, err := p2.Submit(ctx, unit, true); !errors.Is(err, pool.ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed from p2, got %v", err)
	}

	// Second call finds nothing to do.
	if err := pool.ShutdownAll(ctx); err != nil {
		t.Fatalf("second ShutdownAll failed: %v", err)
	}
}

func TestShutdownAll_UnregistersDrainedPools(t *testing.T) {
	ctx := context.Background()
	p := pool.New[int](1, 4)
	if _, err := p.Submit(ctx, func(context.Context) (int, error) { return 0, nil }, true); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if pool.ActivePools() == 0 {
		t.Fatal("expected the pool to be registered after first submit")
	}

	if err := pool.ShutdownAll(ctx); err != nil {
		t.Fatalf("ShutdownAll failed: %v", err)
	}
	if n := pool.ActivePools(); n != 0 {
		t.Fatalf("expected 0 registered pools after drain, got %d", n)
	}
}
