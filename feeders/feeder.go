// Package feeders populates configuration structs from files and the
// environment. Feeders are applied in order, so a later feeder overrides the
// fields an earlier one set.
package feeders

import (
	"fmt"
	"os"
)

// Feeder populates target, a pointer to a struct
type Feeder interface {
	Feed(target any) error
}

// KeyFeeder can populate target from one top-level section of its source
type KeyFeeder interface {
	Feeder
	FeedKey(key string, target any) error
}

// DebugLogger receives verbose feeder diagnostics
type DebugLogger interface {
	Debug(msg string, args ...any)
}

// fileFeeder holds the parts shared by the file based feeders
type fileFeeder struct {
	Path   string
	logger DebugLogger
}

// SetVerboseDebug routes feeder diagnostics to logger; nil disables them
func (f *fileFeeder) SetVerboseDebug(logger DebugLogger) {
	f.logger = logger
}

func (f *fileFeeder) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, append([]any{"filePath", f.Path}, args...)...)
	}
}

func (f *fileFeeder) read() ([]byte, error) {
	if f.Path == "" {
		return nil, ErrNoPath
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

// feedKey extracts one top-level key from the decoded document and decodes
// it again into target, so the target's own tags and types apply.
func feedKey(
	data []byte,
	key string,
	target any,
	marshalFunc func(any) ([]byte, error),
	unmarshalFunc func([]byte, any) error,
	fileType string,
) error {
	var allData map[string]any
	if err := unmarshalFunc(data, &allData); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, fileType, err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	valueBytes, err := marshalFunc(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}
	if err = unmarshalFunc(valueBytes, target); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, fileType, err)
	}
	return nil
}
