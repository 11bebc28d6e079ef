package config

// PoolConfig configures the default concurrency pool dimensions.
type PoolConfig struct {
	MaxConcurrency int
	MaxQueueSize   int
}

func loadPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConcurrency: getEnvInt("POOL_MAX_CONCURRENCY", 100),
		MaxQueueSize:   getEnvInt("POOL_MAX_QUEUE_SIZE", 1000),
	}
}
