package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/GoCodeAlone/deq/feeders"
)

// Isolate removes every DEQ_ environment variable for the duration of the
// test and registers a t.Cleanup that restores them, so configuration loaded
// through feeders.NewEnvFeeder sees only what the test sets. Tests calling it
// must not run in parallel.
func Isolate(t *testing.T) {
	t.Helper()

	snapshot := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, feeders.DefaultEnvPrefix) {
			snapshot[key] = value
		}
	}
	for key := range snapshot {
		_ = os.Unsetenv(key)
	}

	t.Cleanup(func() {
		for _, kv := range os.Environ() {
			key, _, _ := strings.Cut(kv, "=")
			if _, ok := snapshot[key]; !ok && strings.HasPrefix(key, feeders.DefaultEnvPrefix) {
				_ = os.Unsetenv(key)
			}
		}
		for key, value := range snapshot {
			_ = os.Setenv(key, value)
		}
	})
}
