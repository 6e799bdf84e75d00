package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	fileFeeder
}

// NewTomlFeeder creates a new TomlFeeder that reads from the specified TOML file
func NewTomlFeeder(filePath string) *TomlFeeder {
	return &TomlFeeder{fileFeeder{Path: filePath}}
}

// Feed decodes the whole file into target
func (t *TomlFeeder) Feed(target any) error {
	data, err := t.read()
	if err != nil {
		return err
	}
	if _, err := toml.Decode(string(data), target); err != nil {
		return fmt.Errorf("%w: toml: %w", ErrDecode, err)
	}
	t.debug("TomlFeeder: fed configuration")
	return nil
}

// FeedKey reads a TOML file and extracts a specific key
func (t *TomlFeeder) FeedKey(key string, target any) error {
	data, err := t.read()
	if err != nil {
		return err
	}
	if err := feedKey(data, key, target, toml.Marshal, toml.Unmarshal, "TOML file"); err != nil {
		return err
	}
	t.debug("TomlFeeder: fed configuration key", "key", key)
	return nil
}
