package deq

import (
	"context"
	"regexp"
	"time"
)

// DefaultListenerName is used for listeners registered without a name.
const DefaultListenerName = "unnamed listener"

// Handler receives a deep copy of every event that matches its listener.
// A returned error or a panic is reported as a ListenerFailure "deq error"
// event and does not stop dispatch to the remaining listeners. Handlers may
// submit further commands to the queue.
type Handler func(ctx context.Context, event Event) error

// wildcardPatterns match any event name and are never offered "deq error"
// events, so a failing catch-all listener cannot feed itself.
var wildcardPatterns = map[string]struct{}{
	".*":  {},
	".+":  {},
	"..*": {},
}

// ListenerInfo describes a registered listener
type ListenerInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MatchEvent   string    `json:"matchEvent"`
	SkipHistory  bool      `json:"skipHistory"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type listener struct {
	id           string
	name         string
	pattern      string
	re           *regexp.Regexp
	handler      Handler
	skipHistory  bool
	registeredAt time.Time
}

func (l *listener) info() ListenerInfo {
	return ListenerInfo{
		ID:           l.id,
		Name:         l.name,
		MatchEvent:   l.pattern,
		SkipHistory:  l.skipHistory,
		RegisteredAt: l.registeredAt,
	}
}

// matches applies the anchored case-insensitive pattern, excluding "deq error"
// from wildcard listeners.
func (l *listener) matches(eventName string) bool {
	if isErrorEventName(eventName) {
		if _, wildcard := wildcardPatterns[l.pattern]; wildcard {
			return false
		}
	}
	return l.re.MatchString(eventName)
}
