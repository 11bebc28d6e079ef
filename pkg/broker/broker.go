// Package broker defines the queue contract the distributed task layer
// expects from an external key/value store. A broker is an opaque set of
// named FIFO queues: payloads pushed under a queue name come back, in
// order, from a blocking pop on the same name. Nothing else is assumed —
// retries, reconnects, and persistence are whatever the backing store
// natively provides.
package broker

import (
	"context"
	"time"
)

// Broker is the transport between task producers and consumers.
// Implementations must be safe for concurrent use.
type Broker interface {
	// PushBlocking appends payload to the tail of the named queue,
	// suspending until the store has accepted it.
	PushBlocking(ctx context.Context, queue string, payload []byte) error

	// PopBlocking removes and returns the head of the named queue,
	// suspending up to timeout. A (nil, nil) return means the timeout
	// elapsed with the queue empty.
	PopBlocking(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)

	// Length returns the number of payloads currently queued.
	Length(ctx context.Context, queue string) (int64, error)

	// Clear removes every payload from the named queue.
	Clear(ctx context.Context, queue string) error

	// Close releases the connection to the store.
	Close() error
}
