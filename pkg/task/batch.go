package task

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Consumer is the slice of the task surface BatchConsume needs. Every
// *Task implements it regardless of its type parameters.
type Consumer interface {
	Consume(ctx context.Context) error
	QueueName() string
}

// BatchConsume runs one consumer per task concurrently and blocks until
// all of them have exited. A consumer failing does not stop its siblings;
// the first error encountered is returned once everyone is done.
func BatchConsume(ctx context.Context, consumers ...Consumer) error {
	var g errgroup.Group
	for _, c := range consumers {
		c := c
		g.Go(func() error {
			return c.Consume(ctx)
		})
	}
	return g.Wait()
}
