package deq

import (
	"context"

	"github.com/GoCodeAlone/deq/merge"
)

// errorReport describes one internal fault before it becomes a "deq error" event
type errorReport struct {
	typ      ErrorType
	message  string
	input    map[string]any
	event    string
	listener string
	err      error
}

func (r errorReport) data() map[string]any {
	data := map[string]any{
		ErrorFieldType:          string(r.typ),
		ErrorFieldMessage:       r.message,
		ErrorFieldOriginalInput: merge.Copy(r.input),
	}
	if r.event != "" {
		data[ErrorFieldOriginatingEvent] = r.event
	}
	if r.listener != "" {
		data[ErrorFieldOriginatingListener] = r.listener
	}
	if r.err != nil {
		data[ErrorFieldError] = r.err
	}
	return data
}

// reportError records a fault as a "deq error" event through the regular
// command path.
func (q *Queue) reportError(ctx context.Context, r errorReport) {
	q.stats.errors.Add(1)
	q.logger.Debug("Error event emitted",
		"queue", q.name, "type", r.typ, "message", r.message, "event", r.event, "listener", r.listener, "error", r.err)
	q.Submit(ctx, NewAddEvent(ErrorEventName, r.data()))
}

func isErrorCommand(cmd Command) bool {
	if cmd.Tag() != CommandAddEvent {
		return false
	}
	name, _ := cmd[KeyName].(string)
	return isErrorEventName(name)
}
