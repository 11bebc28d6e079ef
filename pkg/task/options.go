package task

import (
	"time"

	"github.com/concurrency-go/aiopool/pkg/broker"
	"github.com/concurrency-go/aiopool/pkg/codec"
)

// Options configures a task's local consumer pool and broker binding.
type Options struct {
	// Concurrency is the size of the local consumer pool.
	Concurrency int

	// MaxQueueSize is the local staging-queue capacity. Zero means
	// 10x Concurrency.
	MaxQueueSize int

	// PollTimeout is the timeout passed to each blocking broker pop.
	PollTimeout time.Duration

	// ShutdownTimeout bounds the local pool drain when a consumer exits.
	ShutdownTimeout time.Duration

	// BrokerURL is the connection string used to build the default Redis
	// broker when none is injected via WithBroker.
	BrokerURL string

	// Broker, when set, overrides BrokerURL with an existing broker.
	Broker broker.Broker

	// Codec serializes call payloads. Defaults to codec.Binary.
	Codec codec.Codec
}

func defaultOptions() Options {
	return Options{
		Concurrency:     50,
		PollTimeout:     5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		BrokerURL:       "redis://localhost:6379/0",
		Codec:           codec.Binary,
	}
}

// Option is a functional option for configuring a task.
type Option func(*Options)

// WithConcurrency sets the size of the local consumer pool.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithMaxQueueSize sets the local staging-queue capacity.
func WithMaxQueueSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxQueueSize = n
		}
	}
}

// WithPollTimeout sets the timeout for each blocking broker pop.
func WithPollTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.PollTimeout = d
	}
}

// WithShutdownTimeout sets the maximum time to wait for the local pool to
// drain when a consumer exits.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}

// WithBrokerURL sets the connection string for the default Redis broker.
func WithBrokerURL(url string) Option {
	return func(o *Options) {
		o.BrokerURL = url
	}
}

// WithBroker injects an existing broker, bypassing BrokerURL.
func WithBroker(b broker.Broker) Option {
	return func(o *Options) {
		o.Broker = b
	}
}

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) {
		if c != nil {
			o.Codec = c
		}
	}
}
