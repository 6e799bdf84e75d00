package cmd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GoCodeAlone/deq"
	"github.com/GoCodeAlone/deq/cmd/deqcli/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutScript = `
- command: PERSIST DATA
  matchEvent: "checkout.*"
  duration: 3600
  data:
    cart: c-42
- command: ADD EVENT
  name: checkout start
  data:
    step: 1
- command: ADD EVENT
  name: browse
`

func TestReplay_PrintsEventsFromStdin(t *testing.T) {
	cfg := writeSQLiteConfig(t)

	out, err := run(t, checkoutScript, "replay", "--config", cfg)
	require.NoError(t, err)

	lines := parseLines(t, out)
	require.Len(t, lines, 2)
	assert.Equal(t, "checkout start", lines[0].Name)
	assert.Equal(t, "c-42", lines[0].Data["cart"])
	assert.EqualValues(t, 1, lines[0].Data["step"])
	assert.Equal(t, "checkout start", lines[0].Data[deq.FieldEvent])
	assert.NotEmpty(t, lines[0].ID)

	assert.Equal(t, "browse", lines[1].Name)
	assert.NotContains(t, lines[1].Data, "cart")
}

func TestReplay_ListenFilter(t *testing.T) {
	cfg := writeSQLiteConfig(t)
	script := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(script, []byte(checkoutScript), 0o600))

	out, err := run(t, "", "replay", script, "--config", cfg, "--listen", "BROWSE")
	require.NoError(t, err)

	lines := parseLines(t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, "browse", lines[0].Name)
}

func TestReplay_PrintsErrorEvents(t *testing.T) {
	script := `
- command: DROP TABLE
- command: ADD EVENT
`
	out, err := run(t, script, "replay", "--listen", "nothing")
	require.NoError(t, err)

	lines := parseLines(t, out)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, deq.ErrorEventName, l.Name)
		assert.NotEmpty(t, l.Data[deq.ErrorFieldMessage])
	}
	assert.Equal(t, string(deq.ErrorTypeInvalidCommand), lines[0].Data[deq.ErrorFieldType])
	assert.Equal(t, string(deq.ErrorTypeInvalidEventInput), lines[1].Data[deq.ErrorFieldType])
}

func TestReplay_ErrorEventsPrintedOnce(t *testing.T) {
	out, err := run(t, "- command: ADD EVENT\n", "replay")
	require.NoError(t, err)
	assert.Len(t, parseLines(t, out), 1)
}

func TestReplay_PersistsAcrossRuns(t *testing.T) {
	cfg := writeSQLiteConfig(t)

	_, err := run(t, checkoutScript, "replay", "--config", cfg)
	require.NoError(t, err)

	out, err := run(t, "- command: ADD EVENT\n  name: checkout done\n", "replay", "--config", cfg)
	require.NoError(t, err)
	lines := parseLines(t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, "c-42", lines[0].Data["cart"])
}

func TestReplay_InvalidScript(t *testing.T) {
	_, err := run(t, "command: ADD EVENT\n", "replay")
	assert.ErrorIs(t, err, cmd.ErrInvalidScript)

	_, err = run(t, "- \n", "replay")
	assert.ErrorIs(t, err, cmd.ErrInvalidScript)
}

func TestReplay_MissingFile(t *testing.T) {
	_, err := run(t, "", "replay", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
