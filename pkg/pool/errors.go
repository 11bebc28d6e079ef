package pool

import "github.com/concurrency-go/aiopool/pkg/errx"

var poolErrors = errx.NewRegistry("POOL")

var (
	codeQueueFull    = poolErrors.Register("QUEUE_FULL", errx.TypeCapacity, "Staging queue is at capacity")
	codeClosed       = poolErrors.Register("CLOSED", errx.TypeConflict, "Pool is shut down")
	codeUnitPanicked = poolErrors.Register("UNIT_PANICKED", errx.TypeInternal, "Work unit panicked")
)

// Sentinel errors for matching with errors.Is. Errors returned by the pool
// carry per-call context but compare equal to these by code.
var (
	ErrQueueFull    = poolErrors.New(codeQueueFull)
	ErrPoolClosed   = poolErrors.New(codeClosed)
	ErrUnitPanicked = poolErrors.New(codeUnitPanicked)
)
