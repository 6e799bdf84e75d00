// Package persist implements the layered property store: caller data keyed by
// an event-name pattern, held in one of four tiers with independent expiry,
// renewal and one-shot lifecycles, and merged into future matching events.
//
// Every operation reloads all tiers from the backend, sweeps expired keys,
// applies its change and writes every tier back. The store never holds state
// between calls beyond compiled patterns, so several stores sharing one
// backend observe each other's writes.
package persist

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/GoCodeAlone/deq/merge"
	"github.com/GoCodeAlone/deq/storage"
)

// Defaults for backend key naming and the durable tier lifetime.
const (
	DefaultKeyPrefix       = "deq_pers_"
	DefaultLastingLifetime = 2 * 365 * 24 * time.Hour
)

// Backend is the durable key-value store the tiers are persisted into.
// storage.Engine implementations satisfy it.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, lifetime time.Duration) error
}

// Properties describes one AddProperties call.
type Properties struct {
	// Data holds the keys to persist. Required.
	Data map[string]any

	// MatchEvent is the event-name pattern the data is merged into. Required.
	MatchEvent string

	// Duration selects the tier. The zero value is Session.
	Duration Duration

	// Renew slides the expiry of a durable property forward every time the
	// store is loaded.
	Renew bool
}

// PropertyStore holds the four property tiers for one queue.
type PropertyStore struct {
	name            string
	backend         Backend
	pageload        Backend
	keyPrefix       string
	lastingLifetime time.Duration
	now             func() time.Time
	logger          Logger

	mu       sync.Mutex
	tiers    []*tier // merge precedence order
	byKind   map[DurationKind]*tier
	patterns map[string]*regexp.Regexp
}

// Option configures a PropertyStore
type Option func(*PropertyStore)

// WithLogger sets the logger used for housekeeping warnings
func WithLogger(logger Logger) Option {
	return func(s *PropertyStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for expiry
func WithClock(now func() time.Time) Option {
	return func(s *PropertyStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyPrefix changes the prefix of every backend key
func WithKeyPrefix(prefix string) Option {
	return func(s *PropertyStore) {
		s.keyPrefix = prefix
	}
}

// WithLastingLifetime changes the backend lifetime of the durable tier
func WithLastingLifetime(lifetime time.Duration) Option {
	return func(s *PropertyStore) {
		s.lastingLifetime = lifetime
	}
}

// WithPageloadBackend replaces the in-process backend of the Pageload tier.
// Sharing one between stores lets them share pageload data.
func WithPageloadBackend(backend Backend) Option {
	return func(s *PropertyStore) {
		if backend != nil {
			s.pageload = backend
		}
	}
}

// NewPropertyStore creates the property store for the queue called name.
// The Session, Durable and Defer tiers are persisted into backend under
// <prefix><name>_s, _l and _d. The Pageload tier lives in process memory.
func NewPropertyStore(name string, backend Backend, opts ...Option) (*PropertyStore, error) {
	if backend == nil {
		return nil, ErrBackendNil
	}

	s := &PropertyStore{
		name:            name,
		backend:         backend,
		keyPrefix:       DefaultKeyPrefix,
		lastingLifetime: DefaultLastingLifetime,
		now:             time.Now,
		logger:          noopLogger{},
		patterns:        make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pageload == nil {
		s.pageload = storage.NewMemoryEngine()
	}

	base := s.keyPrefix + name
	durable := newTier(TierDurable, base+"_l", s.lastingLifetime, s.backend)
	session := newTier(TierSession, base+"_s", 0, s.backend)
	pageload := newTier(TierPageload, base+"_p", 0, s.pageload)
	deferred := newTier(TierDefer, base+"_d", 0, s.backend)

	s.tiers = []*tier{durable, session, pageload, deferred}
	s.byKind = map[DurationKind]*tier{
		KindSeconds:  durable,
		KindSession:  session,
		KindPageload: pageload,
		KindDefer:    deferred,
	}
	return s, nil
}

// Name returns the queue name the store belongs to
func (s *PropertyStore) Name() string {
	return s.name
}

// AddProperties stores p.Data in the tier selected by p.Duration. Every key
// in p.Data is first removed from all four tiers, so a key lives in exactly
// one tier at a time.
func (s *PropertyStore) AddProperties(ctx context.Context, p Properties) error {
	if p.Data == nil {
		return fmt.Errorf("%w: data is required", ErrInvalidInput)
	}
	if p.MatchEvent == "" {
		return fmt.Errorf("%w: matchEvent is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.compile(p.MatchEvent); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now := s.now()
	if err := s.loadAll(ctx, now); err != nil {
		return err
	}

	for key := range p.Data {
		for _, t := range s.tiers {
			t.remove(key)
		}
	}

	var attr Attribute
	if p.Duration.IsDurable() {
		lifetime := time.Duration(p.Duration.Seconds()) * time.Second
		attr.Expiry = now.Add(lifetime).UnixMilli()
		if p.Renew {
			attr.Renew = p.Duration.Seconds()
		}
	}

	dest := s.byKind[p.Duration.Kind()]
	dest.upsert(p.MatchEvent, p.Data, attr)

	s.logger.Debug("Properties stored",
		"queue", s.name, "tier", dest.name, "matchEvent", p.MatchEvent, "keys", len(p.Data))

	return s.saveAll(ctx)
}

// GetProperties returns the merged data of every stored pattern matching
// eventName, in precedence order Durable, Session, Pageload, Defer. Keys
// returned from the Defer tier are deleted, so the call is not idempotent.
func (s *PropertyStore) GetProperties(ctx context.Context, eventName string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadAll(ctx, s.now()); err != nil {
		return nil, err
	}

	matcher := func(pattern string) bool {
		re, err := s.compile(pattern)
		if err != nil {
			s.logger.Warn("Skipping stored property pattern", "queue", s.name, "pattern", pattern, "error", err)
			return false
		}
		return re.MatchString(eventName)
	}

	results := make([]map[string]any, 0, len(s.tiers))
	for _, t := range s.tiers {
		results = append(results, t.collect(matcher))
	}

	if err := s.saveAll(ctx); err != nil {
		return nil, err
	}
	return merge.Merge(results...), nil
}

// Clear removes every property from every tier.
func (s *PropertyStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tiers {
		t.entries = make(map[string]*Entry)
	}
	return s.saveAll(ctx)
}

// Snapshot returns a copy of every tier as currently persisted, after the
// expiry sweep. It does not consume Defer properties and writes nothing back.
func (s *PropertyStore) Snapshot(ctx context.Context) (map[Tier]map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadAll(ctx, s.now()); err != nil {
		return nil, err
	}

	out := make(map[Tier]map[string]Entry, len(s.tiers))
	for _, t := range s.tiers {
		entries := make(map[string]Entry, len(t.entries))
		for pattern, entry := range t.entries {
			entries[pattern] = entry.clone()
		}
		out[t.name] = entries
	}
	return out, nil
}

func (s *PropertyStore) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := s.patterns[pattern]; ok {
		return re, nil
	}
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	s.patterns[pattern] = re
	return re, nil
}

func (s *PropertyStore) loadAll(ctx context.Context, now time.Time) error {
	for _, t := range s.tiers {
		if err := t.load(ctx, now, s.logger); err != nil {
			return err
		}
	}
	return nil
}

func (s *PropertyStore) saveAll(ctx context.Context) error {
	for _, t := range s.tiers {
		if err := t.save(ctx); err != nil {
			return err
		}
	}
	return nil
}
