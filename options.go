package deq

import (
	"time"
)

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithLogger sets the queue logger
func WithLogger(logger Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithPropertyStore attaches a property store. Events then receive matching
// persisted data, PERSIST DATA and DEFER DATA become available, and GLOBAL
// DATA is stored as a Pageload property matching every event.
func WithPropertyStore(store PropertyStore) QueueOption {
	return func(q *Queue) {
		q.store = store
	}
}

// WithClock overrides the clock used for event timestamps
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithObserver registers an observer for the given CloudEvent types (all when
// none are given) as the queue is created.
func WithObserver(observer Observer, eventTypes ...string) QueueOption {
	return func(q *Queue) {
		_ = q.RegisterObserver(observer, eventTypes...)
	}
}
