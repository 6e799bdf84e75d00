package cmd_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoCodeAlone/deq/cmd/deqcli/cmd"
	"github.com/GoCodeAlone/deq/internal/testutil"
	"github.com/stretchr/testify/require"
)

// writeSQLiteConfig writes a YAML config selecting a fresh SQLite database
// and returns its path.
func writeSQLiteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "keyPrefix: \"cli_\"\n" +
		"store:\n" +
		"  engine: sqlite\n" +
		"  sqlitePath: \"" + filepath.ToSlash(filepath.Join(dir, "props.db")) + "\"\n"
	path := filepath.Join(dir, "deq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

// run executes the root command with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	testutil.Isolate(t)
	rootCmd := cmd.NewRootCommand()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

type line struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

func parseLines(t *testing.T, out string) []line {
	t.Helper()
	var lines []line
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var l line
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &l), scanner.Text())
		lines = append(lines, l)
	}
	require.NoError(t, scanner.Err())
	return lines
}
