package feeders

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	fileFeeder
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) *YamlFeeder {
	return &YamlFeeder{fileFeeder{Path: filePath}}
}

// Feed decodes the whole file into target
func (y *YamlFeeder) Feed(target any) error {
	data, err := y.read()
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: yaml: %w", ErrDecode, err)
	}
	y.debug("YamlFeeder: fed configuration")
	return nil
}

// FeedKey reads a YAML file and extracts a specific key
func (y *YamlFeeder) FeedKey(key string, target any) error {
	data, err := y.read()
	if err != nil {
		return err
	}
	if err := feedKey(data, key, target, yaml.Marshal, yaml.Unmarshal, "YAML file"); err != nil {
		return err
	}
	y.debug("YamlFeeder: fed configuration key", "key", key)
	return nil
}
