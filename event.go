package deq

import (
	"strings"
	"time"

	"github.com/GoCodeAlone/deq/merge"
	"github.com/google/uuid"
)

// ErrorEventName is the name of the events the queue emits for internal faults.
const ErrorEventName = "deq error"

// Fields injected into every recorded event's data.
const (
	FieldEvent          = "event"
	FieldEventTimestamp = "event_timestamp"
)

// Fields of a "deq error" event's data.
const (
	ErrorFieldType                = "type"
	ErrorFieldMessage             = "message"
	ErrorFieldOriginalInput       = "originalInput"
	ErrorFieldOriginatingEvent    = "originatingEvent"
	ErrorFieldOriginatingListener = "originatingListener"
	ErrorFieldError               = "error"
)

// Event is a recorded (name, data) pair. Stored events are never handed out
// directly: listeners and accessors receive deep copies.
type Event struct {
	// ID uniquely identifies the event (UUIDv7)
	ID string `json:"id"`

	// Name is the event name listeners match against
	Name string `json:"name"`

	// Data is the merged payload, always carrying "event" and "event_timestamp"
	Data map[string]any `json:"data"`

	// CreatedAt is when the event was recorded
	CreatedAt time.Time `json:"createdAt"`
}

// IsError reports whether e is a "deq error" event
func (e Event) IsError() bool {
	return isErrorEventName(e.Name)
}

// Timestamp returns the injected event_timestamp in unix milliseconds
func (e Event) Timestamp() int64 {
	if ts, ok := e.Data[FieldEventTimestamp].(int64); ok {
		return ts
	}
	return e.CreatedAt.UnixMilli()
}

// ErrorType returns the classification of a "deq error" event, or "" for any
// other event.
func (e Event) ErrorType() ErrorType {
	if !e.IsError() {
		return ""
	}
	switch t := e.Data[ErrorFieldType].(type) {
	case ErrorType:
		return t
	case string:
		return ErrorType(t)
	default:
		return ""
	}
}

// Err returns the error carried by a "deq error" event, if any.
func (e Event) Err() error {
	err, _ := e.Data[ErrorFieldError].(error)
	return err
}

func (e Event) clone() Event {
	e.Data = merge.Copy(e.Data)
	return e
}

func isErrorEventName(name string) bool {
	return strings.EqualFold(name, ErrorEventName)
}

// generateID generates a time-ordered UUIDv7, falling back to v4.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
