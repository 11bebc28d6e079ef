package config

import "time"

// TaskConfig configures the distributed task layer.
type TaskConfig struct {
	BrokerURL       string
	Serializer      string
	Queues          []string
	Concurrency     int
	MaxQueueSize    int
	PollTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func loadTaskConfig() TaskConfig {
	return TaskConfig{
		BrokerURL:       getEnv("TASK_BROKER_URL", "redis://localhost:6379/0"),
		Serializer:      getEnv("TASK_SERIALIZER", "binary"),
		Queues:          getEnvStringSlice("TASK_QUEUES", []string{"default"}),
		Concurrency:     getEnvInt("TASK_CONCURRENCY", 50),
		MaxQueueSize:    getEnvInt("TASK_MAX_QUEUE_SIZE", 0), // 0 means 10x concurrency
		PollTimeout:     getEnvDuration("TASK_POLL_TIMEOUT", 5*time.Second),
		ShutdownTimeout: getEnvDuration("TASK_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}
