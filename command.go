package deq

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/GoCodeAlone/deq/merge"
	"github.com/GoCodeAlone/deq/persist"
	"github.com/golobby/cast"
)

// Command tags, compared case-insensitively.
const (
	CommandAddEvent    = "ADD EVENT"
	CommandAddListener = "ADD LISTENER"
	CommandGlobalData  = "GLOBAL DATA"
	CommandPersistData = "PERSIST DATA"
	CommandDeferData   = "DEFER DATA"
)

// Command payload keys
const (
	KeyCommand     = "command"
	KeyName        = "name"
	KeyData        = "data"
	KeyMatchEvent  = "matchEvent"
	KeyHandler     = "handler"
	KeySkipHistory = "skipHistory"
	KeyDuration    = "duration"
	KeyRenew       = "renew"
)

// Command is one entry of the command surface: the "command" key holds the tag
// and the remaining keys form the payload. Commands are plain maps so they can
// be decoded from YAML or JSON scripts as well as built in code.
type Command map[string]any

// Tag returns the normalized command tag
func (c Command) Tag() string {
	tag, _ := c[KeyCommand].(string)
	return strings.ToUpper(strings.TrimSpace(tag))
}

// NewAddEvent builds an ADD EVENT command. data may be nil.
func NewAddEvent(name string, data map[string]any) Command {
	cmd := Command{KeyCommand: CommandAddEvent, KeyName: name}
	if data != nil {
		cmd[KeyData] = data
	}
	return cmd
}

// NewAddListener builds an ADD LISTENER command. An empty name registers the
// listener as "unnamed listener".
func NewAddListener(name, matchEvent string, handler Handler, skipHistory bool) Command {
	cmd := Command{
		KeyCommand:     CommandAddListener,
		KeyMatchEvent:  matchEvent,
		KeyHandler:     handler,
		KeySkipHistory: skipHistory,
	}
	if name != "" {
		cmd[KeyName] = name
	}
	return cmd
}

// NewGlobalData builds a GLOBAL DATA command
func NewGlobalData(data map[string]any) Command {
	return Command{KeyCommand: CommandGlobalData, KeyData: data}
}

// NewPersistData builds a PERSIST DATA command
func NewPersistData(data map[string]any, matchEvent string, duration persist.Duration, renew bool) Command {
	return Command{
		KeyCommand:    CommandPersistData,
		KeyData:       data,
		KeyMatchEvent: matchEvent,
		KeyDuration:   duration,
		KeyRenew:      renew,
	}
}

// NewDeferData builds a DEFER DATA command
func NewDeferData(data map[string]any, matchEvent string) Command {
	return Command{
		KeyCommand:    CommandDeferData,
		KeyData:       data,
		KeyMatchEvent: matchEvent,
	}
}

// clone copies the command for the history. Payload maps are deep-copied,
// handlers are kept by reference.
func (c Command) clone() Command {
	out := make(Command, len(c))
	for k, v := range c {
		out[k] = merge.Clone(v)
	}
	return out
}

// payload returns the command without its tag, for error reports
func (c Command) payload() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		if k == KeyCommand {
			continue
		}
		out[k] = merge.Clone(v)
	}
	return out
}

func (c Command) stringField(key string, required bool) (string, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("%s is required", key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, raw)
	}
	return s, nil
}

func (c Command) mapField(key string, required bool) (map[string]any, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		if required {
			return nil, fmt.Errorf("%s is required", key)
		}
		return nil, nil
	}
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		return stringKeys(m)
	default:
		return nil, fmt.Errorf("%s must be a map, got %T", key, raw)
	}
}

// boolField accepts booleans and their textual forms. Anything else is false.
func (c Command) boolField(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		b, err := cast.FromType(strings.TrimSpace(v), reflect.TypeOf(false))
		if err != nil {
			return false
		}
		return b.(bool)
	default:
		return false
	}
}

func (c Command) handlerField(key string) (Handler, error) {
	switch h := c[key].(type) {
	case Handler:
		if h != nil {
			return h, nil
		}
	case func(context.Context, Event) error:
		if h != nil {
			return h, nil
		}
	case func(Event):
		if h != nil {
			return func(_ context.Context, e Event) error {
				h(e)
				return nil
			}, nil
		}
	case nil:
	default:
		return nil, fmt.Errorf("%s must be a handler function, got %T", key, h)
	}
	return nil, fmt.Errorf("%s is required", key)
}

func stringKeys(m map[any]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		ks, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("map key %v is not a string", k)
		}
		if nested, ok := v.(map[any]any); ok {
			converted, err := stringKeys(nested)
			if err != nil {
				return nil, err
			}
			v = converted
		}
		out[ks] = v
	}
	return out, nil
}
