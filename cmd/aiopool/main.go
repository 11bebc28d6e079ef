// Command aiopool is a small demo binary exercising the module. It has
// three roles:
//
//	aiopool -role produce -queue demo -n 1000   # push payloads to one queue
//	aiopool -role consume                       # consume every TASK_QUEUES queue
//	aiopool -role local -n 1000                 # in-process pool, no broker
//
// The produce and consume roles need a running Redis broker. Configuration
// (broker URL, serializer, queue list, concurrency, pool dimensions) comes
// from the environment; see pkg/config.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/concurrency-go/aiopool/pkg/codec"
	"github.com/concurrency-go/aiopool/pkg/config"
	"github.com/concurrency-go/aiopool/pkg/logx"
	"github.com/concurrency-go/aiopool/pkg/pool"
	"github.com/concurrency-go/aiopool/pkg/task"
)

type sumArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func newSumTask(queue string, cfg *config.Config, c codec.Codec) *task.Task[sumArgs, int] {
	return task.New(queue, func(_ context.Context, a sumArgs) (int, error) {
		return a.A + a.B, nil
	},
		task.WithBrokerURL(cfg.Task.BrokerURL),
		task.WithCodec(c),
		task.WithConcurrency(cfg.Task.Concurrency),
		task.WithMaxQueueSize(cfg.Task.MaxQueueSize),
		task.WithPollTimeout(cfg.Task.PollTimeout),
		task.WithShutdownTimeout(cfg.Task.ShutdownTimeout),
	)
}

func main() {
	role := flag.String("role", "consume", "produce, consume, or local")
	queue := flag.String("queue", "", "broker queue name (default: first of TASK_QUEUES for produce, all of them for consume)")
	n := flag.Int("n", 1000, "number of payloads to produce or units to run")
	flag.Parse()

	cfg := config.Load()

	c, err := codec.ByName(cfg.Task.Serializer)
	if err != nil {
		logx.WithError(err).Fatalf("aiopool: invalid serializer %q", cfg.Task.Serializer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *role {
	case "produce":
		name := *queue
		if name == "" {
			name = cfg.Task.Queues[0]
		}
		add := newSumTask(name, cfg, c)
		defer add.Close()

		for i := 0; i < *n; i++ {
			if err := add.Submit(ctx, sumArgs{A: i, B: i + 1}); err != nil {
				logx.WithError(err).Fatalf("aiopool: submit %d failed", i)
			}
		}
		size, err := add.QueueSize(ctx)
		if err != nil {
			logx.WithError(err).Fatal("aiopool: queue size query failed")
		}
		logx.Infof("aiopool: produced %d payloads, queue %q now holds %d", *n, name, size)

	case "consume":
		queues := cfg.Task.Queues
		if *queue != "" {
			queues = []string{*queue}
		}

		consumers := make([]task.Consumer, 0, len(queues))
		for _, name := range queues {
			t := newSumTask(name, cfg, c)
			defer t.Close()
			consumers = append(consumers, t)
		}

		logx.Infof("aiopool: consuming %d queue(s) %v", len(consumers), queues)
		if err := task.BatchConsume(ctx, consumers...); err != nil {
			logx.WithError(err).Fatal("aiopool: consumer failed")
		}
		if err := pool.ShutdownAll(context.Background()); err != nil {
			logx.WithError(err).Warn("aiopool: final drain failed")
		}

	case "local":
		p := pool.New[int](cfg.Pool.MaxConcurrency, cfg.Pool.MaxQueueSize)
		defer p.Acquire()()

		futures := make([]*pool.Future[int], 0, *n)
		for i := 0; i < *n; i++ {
			i := i
			fut, err := p.Submit(ctx, func(context.Context) (int, error) {
				return i + i + 1, nil
			}, true)
			if err != nil {
				logx.WithError(err).Fatalf("aiopool: submit %d failed", i)
			}
			futures = append(futures, fut)
		}

		sum := 0
		for i, fut := range futures {
			v, err := fut.Await()
			if err != nil {
				logx.WithError(err).Fatalf("aiopool: unit %d failed", i)
			}
			sum += v
		}
		logx.Infof("aiopool: ran %d units locally (concurrency=%d queue=%d), sum=%d",
			*n, cfg.Pool.MaxConcurrency, cfg.Pool.MaxQueueSize, sum)

	default:
		logx.Fatalf("aiopool: unknown role %q (want produce, consume, or local)", *role)
	}
}
