package deq

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a CloudEvent with a UUIDv7 ID and the given
// extensions. When data cannot be encoded as JSON the event is still returned,
// without data, together with the encoding error.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()

	event.SetID(generateID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	if data != nil {
		if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
			return event, fmt.Errorf("encode CloudEvent data: %w", err)
		}
	}
	return event, nil
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}
