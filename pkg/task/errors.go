package task

import "github.com/concurrency-go/aiopool/pkg/errx"

var taskErrors = errx.NewRegistry("TASK")

var (
	codeBrokerUnavailable = taskErrors.Register("BROKER_UNAVAILABLE", errx.TypeExternal, "Broker operation failed")
	codeDeserialize       = taskErrors.Register("DESERIALIZE", errx.TypeValidation, "Cannot decode queued payload")
	codeAlreadyConsuming  = taskErrors.Register("ALREADY_CONSUMING", errx.TypeConflict, "Consumer is already running")
)

// Sentinel errors for matching with errors.Is.
var (
	ErrBrokerUnavailable     = taskErrors.New(codeBrokerUnavailable)
	ErrDeserializationFailed = taskErrors.New(codeDeserialize)
	ErrAlreadyConsuming      = taskErrors.New(codeAlreadyConsuming)
)
