// Package deq is an embeddable, synchronous event queue. Callers submit
// commands that record named events, register pattern listeners that are
// replayed over the event history, and attach property data that is merged
// into every later event whose name matches a pattern.
//
// Faults on the command path never reach the caller. They are recorded as
// ordinary events named "deq error", which listeners can subscribe to.
package deq

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/GoCodeAlone/deq/merge"
	"github.com/GoCodeAlone/deq/persist"
)

// PropertyStore is the persisted-property collaborator a Queue can be given.
// *persist.PropertyStore implements it.
type PropertyStore interface {
	AddProperties(ctx context.Context, p persist.Properties) error
	GetProperties(ctx context.Context, eventName string) (map[string]any, error)
}

// Stats holds cumulative queue counters
type Stats struct {
	Commands         uint64 `json:"commands"`
	Events           uint64 `json:"events"`
	Errors           uint64 `json:"errors"`
	Deliveries       uint64 `json:"deliveries"`
	ListenerFailures uint64 `json:"listenerFailures"`
	Suppressed       uint64 `json:"suppressed"`
}

type queueStats struct {
	commands         atomic.Uint64
	events           atomic.Uint64
	errors           atomic.Uint64
	deliveries       atomic.Uint64
	listenerFailures atomic.Uint64
	suppressed       atomic.Uint64
}

// Queue holds the events, listeners and command history of one named queue.
//
// A Queue is not safe for concurrent use. Handlers run synchronously inside
// Submit and may submit further commands, so all access to one queue must be
// serialized by the host. Stats and observer registration are the exception
// and may be used from any goroutine.
type Queue struct {
	name      string
	logger    Logger
	now       func() time.Time
	store     PropertyStore
	observers *observerSet

	events    []Event
	listeners []*listener
	history   []Command
	global    map[string]any

	stats queueStats
}

// NewQueue creates an empty queue. Prefer Registry.GetOrCreate, which keeps
// one queue per name.
func NewQueue(name string, opts ...QueueOption) *Queue {
	q := &Queue{
		name:      name,
		logger:    noopLogger{},
		now:       time.Now,
		observers: newObserverSet(),
		global:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name returns the queue name
func (q *Queue) Name() string {
	return q.name
}

// Submit dispatches cmd by its tag. It never fails: unknown tags and
// malformed payloads are reported as "deq error" events. Every submitted
// command, including the ones generated for error events, is appended to the
// history.
func (q *Queue) Submit(ctx context.Context, cmd Command) {
	q.history = append(q.history, cmd.clone())
	q.stats.commands.Add(1)

	defer func() {
		if r := recover(); r != nil {
			if isErrorCommand(cmd) {
				q.stats.suppressed.Add(1)
				q.logger.Warn("Dropping error event after panic", "queue", q.name, "panic", r)
				return
			}
			q.reportError(ctx, errorReport{
				typ:     ErrorTypeInvalidCommand,
				message: fmt.Sprintf("command %q panicked", cmd.Tag()),
				input:   cmd,
				err:     fmt.Errorf("%w: %v", ErrInvalidCommand, r),
			})
		}
	}()

	switch cmd.Tag() {
	case CommandAddEvent:
		q.addEvent(ctx, cmd)
	case CommandAddListener:
		q.addListener(ctx, cmd)
	case CommandGlobalData:
		q.addGlobalData(ctx, cmd)
	case CommandPersistData:
		q.persistData(ctx, cmd, false)
	case CommandDeferData:
		q.persistData(ctx, cmd, true)
	case "":
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidCommand,
			message: "missing command tag",
			input:   cmd,
			err:     ErrInvalidCommand,
		})
	default:
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidCommand,
			message: fmt.Sprintf("unknown command %q", cmd.Tag()),
			input:   cmd,
			err:     fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Tag()),
		})
	}
}

// SubmitBulk submits every command in *cmds in order and leaves the slice
// empty, so calling it again does not replay anything. Commands appended to
// *cmds by handlers while it drains are submitted too.
func (q *Queue) SubmitBulk(ctx context.Context, cmds *[]Command) {
	if cmds == nil {
		return
	}
	for len(*cmds) > 0 {
		cmd := (*cmds)[0]
		*cmds = (*cmds)[1:]
		q.Submit(ctx, cmd)
	}
	*cmds = nil
}

// AddEvent submits an ADD EVENT command
func (q *Queue) AddEvent(ctx context.Context, name string, data map[string]any) {
	q.Submit(ctx, NewAddEvent(name, data))
}

// AddListener submits an ADD LISTENER command
func (q *Queue) AddListener(ctx context.Context, name, matchEvent string, handler Handler, skipHistory bool) {
	q.Submit(ctx, NewAddListener(name, matchEvent, handler, skipHistory))
}

// AddGlobalData submits a GLOBAL DATA command
func (q *Queue) AddGlobalData(ctx context.Context, data map[string]any) {
	q.Submit(ctx, NewGlobalData(data))
}

// PersistData submits a PERSIST DATA command
func (q *Queue) PersistData(ctx context.Context, data map[string]any, matchEvent string, duration persist.Duration, renew bool) {
	q.Submit(ctx, NewPersistData(data, matchEvent, duration, renew))
}

// DeferData submits a DEFER DATA command
func (q *Queue) DeferData(ctx context.Context, data map[string]any, matchEvent string) {
	q.Submit(ctx, NewDeferData(data, matchEvent))
}

func (q *Queue) addEvent(ctx context.Context, cmd Command) {
	name, err := cmd.stringField(KeyName, true)
	if err == nil && name == "" {
		err = errors.New("name must not be empty")
	}
	if err != nil {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidEventInput,
			message: err.Error(),
			input:   cmd,
			err:     fmt.Errorf("%w: %w", ErrInvalidEventInput, err),
		})
		return
	}

	data, err := cmd.mapField(KeyData, false)
	if err != nil {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidEventInput,
			message: err.Error(),
			input:   cmd,
			event:   name,
			err:     fmt.Errorf("%w: %w", ErrInvalidEventInput, err),
		})
		return
	}

	q.recordEvent(ctx, name, data)
}

// recordEvent merges persisted or global data, caller data and the injected
// metadata, appends the event and dispatches it.
func (q *Queue) recordEvent(ctx context.Context, name string, data map[string]any) {
	isError := isErrorEventName(name)

	base := q.global
	if q.store != nil {
		base = nil
		if !isError {
			props, err := q.store.GetProperties(ctx, name)
			if err != nil {
				q.reportError(ctx, errorReport{
					typ:     ErrorTypePropertyStoreFailure,
					message: "could not load persisted properties, event dropped",
					input:   map[string]any{KeyName: name, KeyData: data},
					event:   name,
					err:     err,
				})
				return
			}
			base = props
		}
	}

	now := q.now()
	ev := Event{
		ID:   generateID(),
		Name: name,
		Data: merge.Merge(base, data, map[string]any{
			FieldEvent:          name,
			FieldEventTimestamp: now.UnixMilli(),
		}),
		CreatedAt: now,
	}

	q.events = append(q.events, ev)
	q.stats.events.Add(1)
	q.emitRecorded(ctx, ev)
	q.dispatch(ctx, ev)
}

func (q *Queue) addListener(ctx context.Context, cmd Command) {
	fail := func(message string, err error) {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidListenerInput,
			message: message,
			input:   cmd,
			err:     fmt.Errorf("%w: %w", ErrInvalidListenerInput, err),
		})
	}

	matchEvent, err := cmd.stringField(KeyMatchEvent, true)
	if err == nil && matchEvent == "" {
		err = errors.New("matchEvent must not be empty")
	}
	if err != nil {
		fail(err.Error(), err)
		return
	}
	handler, err := cmd.handlerField(KeyHandler)
	if err != nil {
		fail(err.Error(), err)
		return
	}
	name, err := cmd.stringField(KeyName, false)
	if err != nil {
		fail(err.Error(), err)
		return
	}
	if name == "" {
		name = DefaultListenerName
	}

	re, err := persist.CompilePattern(matchEvent)
	if err != nil {
		fail(err.Error(), err)
		return
	}

	l := &listener{
		id:           generateID(),
		name:         name,
		pattern:      matchEvent,
		re:           re,
		handler:      handler,
		skipHistory:  cmd.boolField(KeySkipHistory),
		registeredAt: q.now(),
	}
	q.listeners = append(q.listeners, l)
	q.emitListenerAdded(ctx, l)

	if l.skipHistory {
		return
	}
	n := len(q.events)
	for i := 0; i < n; i++ {
		q.evaluate(ctx, l, q.events[i])
	}
}

func (q *Queue) addGlobalData(ctx context.Context, cmd Command) {
	if q.store != nil {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidCommand,
			message: fmt.Sprintf("%s is unavailable when a property store is attached, use %s", cmd.Tag(), CommandPersistData),
			input:   cmd,
			err:     fmt.Errorf("%w: %w", ErrInvalidCommand, ErrGlobalDataWithStore),
		})
		return
	}

	data, err := cmd.mapField(KeyData, true)
	if err != nil {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidCommand,
			message: err.Error(),
			input:   cmd,
			err:     fmt.Errorf("%w: %w", ErrInvalidCommand, err),
		})
		return
	}

	q.global = merge.DeepMerge(q.global, data)
}

func (q *Queue) persistData(ctx context.Context, cmd Command, forceDefer bool) {
	if q.store == nil {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypeInvalidCommand,
			message: fmt.Sprintf("%s requires a property store", cmd.Tag()),
			input:   cmd,
			err:     ErrPersistenceDisabled,
		})
		return
	}

	fail := func(err error) {
		q.reportError(ctx, errorReport{
			typ:     ErrorTypePropertyStoreInput,
			message: err.Error(),
			input:   cmd,
			err:     fmt.Errorf("%w: %w", persist.ErrInvalidInput, err),
		})
	}

	data, err := cmd.mapField(KeyData, false)
	if err != nil {
		fail(err)
		return
	}
	matchEvent, err := cmd.stringField(KeyMatchEvent, false)
	if err != nil {
		fail(err)
		return
	}

	duration := persist.Defer
	if !forceDefer {
		if duration, err = persist.ParseDuration(cmd[KeyDuration]); err != nil {
			fail(err)
			return
		}
	}

	q.storeProperties(ctx, cmd, persist.Properties{
		Data:       data,
		MatchEvent: matchEvent,
		Duration:   duration,
		Renew:      cmd.boolField(KeyRenew),
	})
}

func (q *Queue) storeProperties(ctx context.Context, cmd Command, p persist.Properties) {
	if err := q.store.AddProperties(ctx, p); err != nil {
		typ := ErrorTypePropertyStoreFailure
		if errors.Is(err, persist.ErrInvalidInput) {
			typ = ErrorTypePropertyStoreInput
		}
		q.reportError(ctx, errorReport{
			typ:     typ,
			message: err.Error(),
			input:   cmd,
			err:     err,
		})
		return
	}
	q.emitPropertiesPersisted(ctx, p)
}

// dispatch offers ev to every listener registered when dispatch starts, in
// registration order.
func (q *Queue) dispatch(ctx context.Context, ev Event) {
	n := len(q.listeners)
	for i := 0; i < n; i++ {
		q.evaluate(ctx, q.listeners[i], ev)
	}
}

// evaluate matches ev against l and invokes the handler on a copy. Faults
// while an error event is dispatched are logged and dropped so reporting
// always terminates.
func (q *Queue) evaluate(ctx context.Context, l *listener, ev Event) {
	matched, err := matchListener(l, ev)
	if err != nil {
		if ev.IsError() {
			q.suppress("Match evaluation failed on error event", l, ev, err)
			return
		}
		q.reportError(ctx, errorReport{
			typ:      ErrorTypeMatchEvaluationFailure,
			message:  err.Error(),
			input:    map[string]any{"event": ev.Name, "listener": l.name, "matchEvent": l.pattern},
			event:    ev.Name,
			listener: l.name,
			err:      err,
		})
		return
	}
	if !matched {
		return
	}

	q.stats.deliveries.Add(1)
	if err := invokeListener(ctx, l, ev.clone()); err != nil {
		q.stats.listenerFailures.Add(1)
		if ev.IsError() {
			q.suppress("Listener failed on error event", l, ev, err)
			return
		}
		q.reportError(ctx, errorReport{
			typ:      ErrorTypeListenerFailure,
			message:  fmt.Sprintf("listener (%s) failed on '%s'", l.name, ev.Name),
			input:    ev.Data,
			event:    ev.Name,
			listener: l.name,
			err:      err,
		})
	}
}

func (q *Queue) suppress(msg string, l *listener, ev Event, err error) {
	q.stats.suppressed.Add(1)
	q.logger.Warn(msg, "queue", q.name, "listener", l.name, "event", ev.Name, "error", err)
}

func matchListener(l *listener, ev Event) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMatchEvaluation, r)
		}
	}()
	return l.matches(ev.Name), nil
}

func invokeListener(ctx context.Context, l *listener, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w: %v", ErrListenerFailure, ErrListenerPanic, r)
		}
	}()
	if herr := l.handler(ctx, ev); herr != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailure, herr)
	}
	return nil
}

// Events returns deep copies of the recorded events in order
func (q *Queue) Events() []Event {
	out := make([]Event, len(q.events))
	for i, ev := range q.events {
		out[i] = ev.clone()
	}
	return out
}

// Listeners describes the registered listeners in registration order
func (q *Queue) Listeners() []ListenerInfo {
	out := make([]ListenerInfo, len(q.listeners))
	for i, l := range q.listeners {
		out[i] = l.info()
	}
	return out
}

// History returns copies of every submitted command in order
func (q *Queue) History() []Command {
	out := make([]Command, len(q.history))
	for i, cmd := range q.history {
		out[i] = cmd.clone()
	}
	return out
}

// GlobalData returns a copy of the ambient data merged into every event when
// no property store is attached.
func (q *Queue) GlobalData() map[string]any {
	return merge.Copy(q.global)
}

// PropertyStore returns the attached store, or nil
func (q *Queue) PropertyStore() PropertyStore {
	return q.store
}

// Stats returns a snapshot of the queue counters
func (q *Queue) Stats() Stats {
	return Stats{
		Commands:         q.stats.commands.Load(),
		Events:           q.stats.events.Load(),
		Errors:           q.stats.errors.Load(),
		Deliveries:       q.stats.deliveries.Load(),
		ListenerFailures: q.stats.listenerFailures.Load(),
		Suppressed:       q.stats.suppressed.Load(),
	}
}
