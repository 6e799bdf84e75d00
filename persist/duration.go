package persist

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// DurationKind identifies the tier a property is stored in.
type DurationKind int

const (
	// KindSession keeps properties for the lifetime of the backing session.
	KindSession DurationKind = iota
	// KindPageload keeps properties in process memory only.
	KindPageload
	// KindSeconds keeps properties durably until an absolute expiry.
	KindSeconds
	// KindDefer keeps properties until they are returned by a match once.
	KindDefer
)

// Duration names for the non-numeric kinds, as accepted by ParseDuration.
const (
	DurationPageload = "PAGELOAD"
	DurationSession  = "SESSION"
	DurationDefer    = "DEFER"
)

// Duration governs how long a property lives and which tier holds it. The
// zero value is Session.
type Duration struct {
	kind    DurationKind
	seconds int
}

// Predefined durations
var (
	Pageload = Duration{kind: KindPageload}
	Session  = Duration{kind: KindSession}
	Defer    = Duration{kind: KindDefer}
)

// Seconds returns a durable duration expiring n seconds after it is stored.
func Seconds(n int) (Duration, error) {
	if n <= 0 {
		return Duration{}, fmt.Errorf("%w: %d seconds", ErrInvalidDuration, n)
	}
	return Duration{kind: KindSeconds, seconds: n}, nil
}

// MustSeconds is like Seconds but panics on a non-positive value.
func MustSeconds(n int) Duration {
	d, err := Seconds(n)
	if err != nil {
		panic(err)
	}
	return d
}

// Kind returns the duration kind
func (d Duration) Kind() DurationKind { return d.kind }

// Seconds returns the durable lifetime, or 0 for the non-numeric kinds
func (d Duration) Seconds() int { return d.seconds }

// IsDurable reports whether d carries a numeric lifetime
func (d Duration) IsDurable() bool { return d.kind == KindSeconds }

func (d Duration) String() string {
	switch d.kind {
	case KindPageload:
		return DurationPageload
	case KindDefer:
		return DurationDefer
	case KindSeconds:
		return fmt.Sprintf("%ds", d.seconds)
	default:
		return DurationSession
	}
}

// ParseDuration converts a loosely typed duration value, as found in a
// command payload, into a Duration. Recognised inputs are the names PAGELOAD,
// SESSION and DEFER (any case), integers, floats (truncated) and numeric
// strings. A missing value and any unrecognised value fall back to Session.
// Numeric values must be positive.
func ParseDuration(v any) (Duration, error) {
	switch val := v.(type) {
	case nil:
		return Session, nil
	case Duration:
		return val, nil
	case string:
		return parseDurationString(val)
	case json.Number:
		return parseDurationString(val.String())
	case bool:
		return Session, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Seconds(int(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Seconds(int(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Seconds(int(rv.Float()))
	default:
		return Session, nil
	}
}

func parseDurationString(s string) (Duration, error) {
	trimmed := strings.TrimSpace(s)
	switch strings.ToUpper(trimmed) {
	case DurationPageload:
		return Pageload, nil
	case DurationSession, "":
		return Session, nil
	case DurationDefer:
		return Defer, nil
	}

	if n, err := cast.FromType(trimmed, reflect.TypeOf(int(0))); err == nil {
		return Seconds(n.(int))
	}
	if f, err := cast.FromType(trimmed, reflect.TypeOf(float64(0))); err == nil {
		return Seconds(int(f.(float64)))
	}
	return Session, nil
}
