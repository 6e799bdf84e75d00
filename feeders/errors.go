package feeders

import "errors"

// Feeder errors
var (
	ErrNoPath          = errors.New("feeder has no file path")
	ErrDecode          = errors.New("cannot decode configuration")
	ErrTargetNotStruct = errors.New("target must be a non-nil pointer to a struct")
	ErrEnvParse        = errors.New("cannot parse environment")
)
