package feeders

import (
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v11"
)

// DefaultEnvPrefix is prepended to every variable name read by NewEnvFeeder
const DefaultEnvPrefix = "DEQ_"

// EnvFeeder populates struct fields tagged `env:"NAME"` from environment
// variables. Nested structs tagged `envPrefix:"SECTION_"` extend the prefix.
// Unset variables leave the field untouched.
type EnvFeeder struct {
	Prefix string

	// Environment replaces the process environment when non-nil
	Environment map[string]string
}

// NewEnvFeeder creates an EnvFeeder reading DEQ_ prefixed variables
func NewEnvFeeder() *EnvFeeder {
	return &EnvFeeder{Prefix: DefaultEnvPrefix}
}

// NewEnvFeederWithPrefix creates an EnvFeeder with a custom prefix
func NewEnvFeederWithPrefix(prefix string) *EnvFeeder {
	return &EnvFeeder{Prefix: prefix}
}

// Feed populates target from the environment
func (e *EnvFeeder) Feed(target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrTargetNotStruct
	}

	opts := env.Options{Prefix: e.Prefix}
	if e.Environment != nil {
		opts.Environment = e.Environment
	}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrEnvParse, err)
	}
	return nil
}
