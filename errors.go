package deq

import (
	"errors"
)

// Queue errors. They travel in the "error" field of "deq error" events and are
// returned directly only by the Registry and configuration helpers.
var (
	// Command errors
	ErrInvalidCommand = errors.New("invalid command")
	ErrUnknownCommand = errors.New("unknown command")

	// Input errors
	ErrInvalidEventInput    = errors.New("invalid event input")
	ErrInvalidListenerInput = errors.New("invalid listener input")

	// Dispatch errors
	ErrListenerFailure = errors.New("listener failed")
	ErrListenerPanic   = errors.New("listener panicked")
	ErrMatchEvaluation = errors.New("match evaluation failed")

	// Persistence errors
	ErrPersistenceDisabled = errors.New("no property store attached to queue")
	ErrGlobalDataWithStore = errors.New("global data is unavailable on a queue with a property store")

	// Registry and configuration errors
	ErrEmptyQueueName  = errors.New("queue name is empty")
	ErrRegistryNil     = errors.New("registry is nil")
	ErrConfigNil       = errors.New("config is nil")
	ErrConfigFeeder    = errors.New("config feeder error")
	ErrInvalidLifetime = errors.New("lasting lifetime must be positive")
)

// ErrorType classifies a "deq error" event. It is carried in the "type" field
// of the event data.
type ErrorType string

const (
	// ErrorTypeInvalidCommand reports an unknown or malformed command.
	ErrorTypeInvalidCommand ErrorType = "InvalidCommand"
	// ErrorTypeInvalidEventInput reports a bad event name or data shape.
	ErrorTypeInvalidEventInput ErrorType = "InvalidEventInput"
	// ErrorTypeInvalidListenerInput reports a bad pattern or handler.
	ErrorTypeInvalidListenerInput ErrorType = "InvalidListenerInput"
	// ErrorTypeListenerFailure reports a handler that returned an error or panicked.
	ErrorTypeListenerFailure ErrorType = "ListenerFailure"
	// ErrorTypeMatchEvaluationFailure reports a fault while matching an event
	// against a listener, outside the handler itself.
	ErrorTypeMatchEvaluationFailure ErrorType = "MatchEvaluationFailure"
	// ErrorTypePropertyStoreInput reports bad PERSIST DATA or DEFER DATA input.
	ErrorTypePropertyStoreInput ErrorType = "PropertyStoreInputError"
	// ErrorTypePropertyStoreFailure reports a backend read or write failure.
	ErrorTypePropertyStoreFailure ErrorType = "PropertyStoreFailure"
)
