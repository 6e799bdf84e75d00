package cmd

import "errors"

// CLI errors
var (
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
	ErrInvalidScript           = errors.New("invalid command script")
	ErrInvalidAssignment       = errors.New("expected key=value")
)
