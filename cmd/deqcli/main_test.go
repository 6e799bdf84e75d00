package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/GoCodeAlone/deq/cmd/deqcli/cmd"
)

func TestMainVersionFlag(t *testing.T) {
	originalArgs := os.Args
	originalExit := cmd.OsExit
	defer func() {
		os.Args = originalArgs
		cmd.OsExit = originalExit
	}()

	exitCode := -1
	cmd.OsExit = func(code int) {
		exitCode = code
	}

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	os.Args = []string{"deqcli", "--version"}
	main()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)

	if exitCode != -1 {
		t.Errorf("unexpected exit with code %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("DEQ CLI v")) {
		t.Errorf("version output missing, got %q", buf.String())
	}
}

func TestMainExitsOnError(t *testing.T) {
	originalArgs := os.Args
	originalExit := cmd.OsExit
	originalStderr := os.Stderr
	defer func() {
		os.Args = originalArgs
		cmd.OsExit = originalExit
		os.Stderr = originalStderr
	}()

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err == nil {
		os.Stderr = devNull
		defer devNull.Close()
	}

	exitCode := -1
	cmd.OsExit = func(code int) {
		exitCode = code
	}

	os.Args = []string{"deqcli", "props", "set", "novalue"}
	main()

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
}
