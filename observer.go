package deq

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoCodeAlone/deq/persist"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is notified, as a CloudEvent, of everything a queue records.
// Observers run synchronously inside the command that triggered them. Their
// errors and panics are logged and never become "deq error" events.
type Observer interface {
	// OnEvent is called for every event type the observer registered for.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// ObserverInfo describes a registered observer
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// CloudEvent types emitted by a queue
const (
	EventTypeEventRecorded       = "com.deq.event.recorded"
	EventTypeErrorRecorded       = "com.deq.event.error"
	EventTypeListenerAdded       = "com.deq.listener.added"
	EventTypePropertiesPersisted = "com.deq.properties.persisted"
)

// FunctionalObserver adapts a function to Observer
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer backed by handler
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

// OnEvent calls the handler function
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID returns the observer ID
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// observerSet keeps registrations in registration order so notification order
// is deterministic.
type observerSet struct {
	mu            sync.RWMutex
	registrations []*observerRegistration
}

func newObserverSet() *observerSet {
	return &observerSet{}
}

func (s *observerSet) snapshot() []*observerRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*observerRegistration, len(s.registrations))
	copy(out, s.registrations)
	return out
}

// RegisterObserver adds an observer for the given event types, or for every
// event type when none are given. Registering an ID again replaces the
// earlier registration.
func (q *Queue) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return fmt.Errorf("%w: observer is nil", ErrInvalidListenerInput)
	}

	types := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		types[eventType] = true
	}
	reg := &observerRegistration{
		observer:     observer,
		eventTypes:   types,
		registeredAt: time.Now(),
	}

	q.observers.mu.Lock()
	replaced := false
	for i, existing := range q.observers.registrations {
		if existing.observer.ObserverID() == observer.ObserverID() {
			q.observers.registrations[i] = reg
			replaced = true
			break
		}
	}
	if !replaced {
		q.observers.registrations = append(q.observers.registrations, reg)
	}
	q.observers.mu.Unlock()

	q.logger.Info("Observer registered", "queue", q.name, "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. It is idempotent.
func (q *Queue) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return nil
	}

	q.observers.mu.Lock()
	defer q.observers.mu.Unlock()

	for i, existing := range q.observers.registrations {
		if existing.observer.ObserverID() == observer.ObserverID() {
			q.observers.registrations = append(q.observers.registrations[:i], q.observers.registrations[i+1:]...)
			q.logger.Info("Observer unregistered", "queue", q.name, "observerID", observer.ObserverID())
			break
		}
	}
	return nil
}

// GetObservers describes the registered observers
func (q *Queue) GetObservers() []ObserverInfo {
	regs := q.observers.snapshot()
	info := make([]ObserverInfo, 0, len(regs))
	for _, reg := range regs {
		types := make([]string, 0, len(reg.eventTypes))
		for t := range reg.eventTypes {
			types = append(types, t)
		}
		info = append(info, ObserverInfo{
			ID:           reg.observer.ObserverID(),
			EventTypes:   types,
			RegisteredAt: reg.registeredAt,
		})
	}
	return info
}

// NotifyObservers validates event and delivers it to every interested
// observer in registration order.
func (q *Queue) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(q.now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		q.logger.Warn("Invalid CloudEvent", "queue", q.name, "eventType", event.Type(), "error", err)
		return err
	}

	for _, reg := range q.observers.snapshot() {
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}
		q.notifyOne(ctx, reg.observer, event)
	}
	return nil
}

func (q *Queue) notifyOne(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Warn("Observer panicked", "queue", q.name, "observerID", observer.ObserverID(), "eventType", event.Type(), "panic", r)
		}
	}()
	if err := observer.OnEvent(ctx, event); err != nil {
		q.logger.Warn("Observer error", "queue", q.name, "observerID", observer.ObserverID(), "eventType", event.Type(), "error", err)
	}
}

func (q *Queue) hasObservers() bool {
	q.observers.mu.RLock()
	defer q.observers.mu.RUnlock()
	return len(q.observers.registrations) > 0
}

func (q *Queue) emit(ctx context.Context, eventType string, data map[string]any) {
	if !q.hasObservers() {
		return
	}
	event, err := NewCloudEvent(eventType, q.source(), data, map[string]any{"queue": q.name})
	if err != nil {
		q.logger.Warn("Observer payload not encodable, sending without data", "queue", q.name, "eventType", eventType, "error", err)
	}
	if err := q.NotifyObservers(ctx, event); err != nil {
		q.logger.Warn("Failed to notify observers", "queue", q.name, "eventType", eventType, "error", err)
	}
}

func (q *Queue) source() string {
	return "deq/" + q.name
}

func (q *Queue) emitRecorded(ctx context.Context, ev Event) {
	if ev.IsError() {
		data := map[string]any{
			"id":                          ev.ID,
			"name":                        ev.Name,
			ErrorFieldType:                ev.Data[ErrorFieldType],
			ErrorFieldMessage:             ev.Data[ErrorFieldMessage],
			ErrorFieldOriginatingEvent:    ev.Data[ErrorFieldOriginatingEvent],
			ErrorFieldOriginatingListener: ev.Data[ErrorFieldOriginatingListener],
		}
		if err := ev.Err(); err != nil {
			data[ErrorFieldError] = err.Error()
		}
		q.emit(ctx, EventTypeErrorRecorded, data)
		return
	}
	q.emit(ctx, EventTypeEventRecorded, map[string]any{
		"id":   ev.ID,
		"name": ev.Name,
		"data": ev.Data,
	})
}

func (q *Queue) emitListenerAdded(ctx context.Context, l *listener) {
	q.emit(ctx, EventTypeListenerAdded, map[string]any{
		"id":          l.id,
		"name":        l.name,
		"matchEvent":  l.pattern,
		"skipHistory": l.skipHistory,
	})
}

func (q *Queue) emitPropertiesPersisted(ctx context.Context, p persist.Properties) {
	keys := make([]string, 0, len(p.Data))
	for k := range p.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q.emit(ctx, EventTypePropertiesPersisted, map[string]any{
		"matchEvent": p.MatchEvent,
		"duration":   p.Duration.String(),
		"renew":      p.Renew,
		"keys":       keys,
	})
}
