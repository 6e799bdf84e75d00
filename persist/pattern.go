package persist

import "regexp"

// CompilePattern compiles an event-name pattern into an anchored,
// case-insensitive regular expression that must match the whole name.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return nil, &PatternCompileError{Pattern: pattern, Err: err}
	}
	return re, nil
}
