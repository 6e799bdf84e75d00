package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/GoCodeAlone/deq/merge"
)

// Tier names one of the four independently-lifecycled property maps.
type Tier string

// Tiers in merge precedence order: later tiers win leaf conflicts.
const (
	TierDurable  Tier = "durable"
	TierSession  Tier = "session"
	TierPageload Tier = "pageload"
	TierDefer    Tier = "defer"
)

// Attribute holds the lifecycle of one stored key.
type Attribute struct {
	// Expiry is the absolute expiry in unix milliseconds. Zero never expires.
	Expiry int64 `json:"expiry,omitempty"`

	// Renew is the sliding window in seconds. Zero disables renewal.
	Renew int `json:"renew,omitempty"`
}

// Entry is the data stored for one match pattern, plus per-key attributes.
type Entry struct {
	Data       map[string]any       `json:"data"`
	Attributes map[string]Attribute `json:"dataAttributes"`
}

func newEntry() *Entry {
	return &Entry{
		Data:       make(map[string]any),
		Attributes: make(map[string]Attribute),
	}
}

func (e *Entry) clone() Entry {
	attrs := make(map[string]Attribute, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return Entry{Data: merge.Copy(e.Data), Attributes: attrs}
}

// tier is one pattern -> Entry map mirrored into a backend key.
type tier struct {
	name     Tier
	key      string
	lifetime time.Duration
	backend  Backend
	oneShot  bool
	entries  map[string]*Entry
}

func newTier(name Tier, key string, lifetime time.Duration, backend Backend) *tier {
	return &tier{
		name:     name,
		key:      key,
		lifetime: lifetime,
		backend:  backend,
		oneShot:  name == TierDefer,
		entries:  make(map[string]*Entry),
	}
}

// load replaces the in-memory entries with the backend copy and runs the
// expiry sweep. A payload that cannot be decoded resets the tier.
func (t *tier) load(ctx context.Context, now time.Time, logger Logger) error {
	raw, ok, err := t.backend.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("%w: load %s tier: %w", ErrBackend, t.name, err)
	}

	t.entries = make(map[string]*Entry)
	if ok && raw != "" {
		entries, err := decodeEntries(raw)
		if err != nil {
			logger.Warn("Discarding unreadable property tier", "tier", t.name, "key", t.key, "error", err)
		} else {
			t.entries = entries
		}
	}

	t.sweep(now)
	return nil
}

func (t *tier) save(ctx context.Context) error {
	raw, err := json.Marshal(t.entries)
	if err != nil {
		return fmt.Errorf("%w: encode %s tier: %w", ErrBackend, t.name, err)
	}
	if err := t.backend.Set(ctx, t.key, string(raw), t.lifetime); err != nil {
		return fmt.Errorf("%w: save %s tier: %w", ErrBackend, t.name, err)
	}
	return nil
}

// sweep drops expired keys and slides the expiry of renewable ones.
func (t *tier) sweep(now time.Time) {
	nowMs := now.UnixMilli()
	for pattern, entry := range t.entries {
		for key, attr := range entry.Attributes {
			switch {
			case attr.Expiry != 0 && attr.Expiry < nowMs:
				delete(entry.Data, key)
				delete(entry.Attributes, key)
			case attr.Renew > 0:
				attr.Expiry = now.Add(time.Duration(attr.Renew) * time.Second).UnixMilli()
				entry.Attributes[key] = attr
			}
		}
		if len(entry.Data) == 0 {
			delete(t.entries, pattern)
		}
	}
}

func (t *tier) remove(key string) {
	for pattern, entry := range t.entries {
		t.removeFrom(pattern, entry, key)
	}
}

func (t *tier) removeFrom(pattern string, entry *Entry, key string) {
	delete(entry.Data, key)
	delete(entry.Attributes, key)
	if len(entry.Data) == 0 {
		delete(t.entries, pattern)
	}
}

func (t *tier) upsert(pattern string, data map[string]any, attr Attribute) {
	entry, ok := t.entries[pattern]
	if !ok {
		entry = newEntry()
		t.entries[pattern] = entry
	}
	for key, value := range data {
		entry.Data[key] = merge.Clone(value)
		entry.Attributes[key] = attr
	}
}

// collect merges the data of every pattern the matcher accepts. A one-shot
// tier deletes every key it returns.
func (t *tier) collect(matcher func(pattern string) bool) map[string]any {
	result := make(map[string]any)
	for _, pattern := range t.patterns() {
		if !matcher(pattern) {
			continue
		}
		entry := t.entries[pattern]
		result = merge.DeepMerge(result, entry.Data)
		if t.oneShot {
			for key := range entry.Data {
				t.removeFrom(pattern, entry, key)
			}
		}
	}
	return result
}

func (t *tier) patterns() []string {
	patterns := make([]string, 0, len(t.entries))
	for pattern := range t.entries {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	return patterns
}

func decodeEntries(raw string) (map[string]*Entry, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	entries := make(map[string]*Entry)
	if err := dec.Decode(&entries); err != nil {
		return nil, err
	}
	for pattern, entry := range entries {
		if entry == nil {
			delete(entries, pattern)
			continue
		}
		if entry.Data == nil {
			entry.Data = make(map[string]any)
		}
		if entry.Attributes == nil {
			entry.Attributes = make(map[string]Attribute)
		}
		for key, value := range entry.Data {
			entry.Data[key] = normalizeNumbers(value)
		}
	}
	return entries, nil
}

// normalizeNumbers turns decoded json.Number values back into int when they
// are integral and float64 otherwise, so stored data reads back with the same
// shape it was written with.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}
