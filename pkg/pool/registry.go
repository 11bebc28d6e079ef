package pool

import (
	"context"
	"sync"
)

// drainer is the slice of the pool surface the registry needs.
type drainer interface {
	Shutdown(ctx context.Context, wait bool) error
}

var (
	registryMu  sync.Mutex
	activePools = make(map[drainer]struct{})
)

func register(d drainer) {
	registryMu.Lock()
	activePools[d] = struct{}{}
	registryMu.Unlock()
}

func unregister(d drainer) {
	registryMu.Lock()
	delete(activePools, d)
	registryMu.Unlock()
}

// ShutdownAll drains every live pool in the process with wait=true. Place
// one call at the end of the program's entry point: producers that submit
// work without keeping the returned slots would otherwise exit with units
// still staged and workers idle, silently losing work. Idempotent — pools
// unregister themselves once drained, so a second call finds nothing to do.
func ShutdownAll(ctx context.Context) error {
	registryMu.Lock()
	pools := make([]drainer, 0, len(activePools))
	for d := range activePools {
		pools = append(pools, d)
	}
	registryMu.Unlock()

	var firstErr error
	for _, d := range pools {
		if err := d.Shutdown(ctx, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ActivePools reports how many pools are currently registered. Best
// effort, for observability.
func ActivePools() int {
	registryMu.Lock()
	defer registryMu.Unlock()
	return len(activePools)
}
