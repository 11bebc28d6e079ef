package brokerredis

import "github.com/concurrency-go/aiopool/pkg/errx"

var redisErrors = errx.NewRegistry("BROKER_REDIS")

var (
	ErrConnect = redisErrors.Register("CONNECT", errx.TypeExternal, "Redis connection failed")
	ErrPush    = redisErrors.Register("PUSH", errx.TypeExternal, "Redis push failed")
	ErrPop     = redisErrors.Register("POP", errx.TypeExternal, "Redis pop failed")
	ErrLength  = redisErrors.Register("LENGTH", errx.TypeExternal, "Redis length query failed")
	ErrClear   = redisErrors.Register("CLEAR", errx.TypeExternal, "Redis clear failed")
)
