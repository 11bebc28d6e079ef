package brokerredis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/concurrency-go/aiopool/pkg/broker"
)

// RedisBroker implements broker.Broker on top of Redis lists. Each queue
// is a single list; LPush at the tail side paired with BRPop at the head
// side gives ordered FIFO delivery per queue key.
type RedisBroker struct {
	rdb *redis.Client
}

var _ broker.Broker = (*RedisBroker)(nil)

// New creates a Redis-backed broker from an existing client.
func New(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

// NewFromURL creates a Redis-backed broker from a connection URL such as
// redis://localhost:6379/0.
func NewFromURL(url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrConnect, err).WithDetail("url", url)
	}
	return &RedisBroker{rdb: redis.NewClient(opts)}, nil
}

func queueKey(name string) string { return fmt.Sprintf("aiopool:task:%s", name) }

// PushBlocking appends payload to the tail of the queue.
func (b *RedisBroker) PushBlocking(ctx context.Context, queue string, payload []byte) error {
	if err := b.rdb.LPush(ctx, queueKey(queue), payload).Err(); err != nil {
		return redisErrors.NewWithCause(ErrPush, err).WithDetail("queue", queue)
	}
	return nil
}

// PopBlocking removes the head of the queue, waiting up to timeout.
// Returns (nil, nil) when the timeout elapses with the queue empty.
func (b *RedisBroker) PopBlocking(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	result, err := b.rdb.BRPop(ctx, timeout, queueKey(queue)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // timeout, queue empty
		}
		return nil, redisErrors.NewWithCause(ErrPop, err).WithDetail("queue", queue)
	}

	// result[0] = key, result[1] = payload
	return []byte(result[1]), nil
}

// Length returns the number of payloads queued.
func (b *RedisBroker) Length(ctx context.Context, queue string) (int64, error) {
	n, err := b.rdb.LLen(ctx, queueKey(queue)).Result()
	if err != nil {
		return 0, redisErrors.NewWithCause(ErrLength, err).WithDetail("queue", queue)
	}
	return n, nil
}

// Clear deletes the queue.
func (b *RedisBroker) Clear(ctx context.Context, queue string) error {
	if err := b.rdb.Del(ctx, queueKey(queue)).Err(); err != nil {
		return redisErrors.NewWithCause(ErrClear, err).WithDetail("queue", queue)
	}
	return nil
}

// Close closes the underlying Redis client.
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
