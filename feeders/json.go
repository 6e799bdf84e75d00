package feeders

import (
	"encoding/json"
	"fmt"
)

// JSONFeeder is a feeder that reads JSON files
type JSONFeeder struct {
	fileFeeder
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) *JSONFeeder {
	return &JSONFeeder{fileFeeder{Path: filePath}}
}

// Feed decodes the whole file into target
func (j *JSONFeeder) Feed(target any) error {
	data, err := j.read()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: json: %w", ErrDecode, err)
	}
	j.debug("JSONFeeder: fed configuration")
	return nil
}

// FeedKey reads a JSON file and extracts a specific key
func (j *JSONFeeder) FeedKey(key string, target any) error {
	data, err := j.read()
	if err != nil {
		return err
	}
	if err := feedKey(data, key, target, json.Marshal, json.Unmarshal, "JSON file"); err != nil {
		return err
	}
	j.debug("JSONFeeder: fed configuration key", "key", key)
	return nil
}
