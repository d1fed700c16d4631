package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/table-importer/internal/model"
)

// writeScript installs a shell script standing in for the conversion tool.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "converter.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func convJob(t *testing.T) *model.ImportJob {
	t.Helper()
	job := widgetsJob()
	job.StagingDir = t.TempDir()
	return job
}

func TestExecConverterSuccess(t *testing.T) {
	script := writeScript(t, `tr a-z A-Z < "$IMPORT_INPUT_FILE" > "$IMPORT_OUTPUT_DIR/$1.csv"`)
	job := convJob(t)
	require.NoError(t, os.WriteFile(job.InputPath(), []byte("a,b\n"), 0o644))

	conv := &ExecConverter{Path: script, OutputWait: time.Second}
	require.NoError(t, conv.Convert(context.Background(), job))

	out, err := os.ReadFile(job.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, "A,B\n", string(out))
}

func TestExecConverterPassesArguments(t *testing.T) {
	script := writeScript(t, `printf '%s %s %s' "$1" "$2" "$3" > "$IMPORT_OUTPUT_DIR/$1.csv"`)
	job := convJob(t)

	conv := &ExecConverter{Path: script, OutputWait: time.Second}
	require.NoError(t, conv.Convert(context.Background(), job))

	out, err := os.ReadFile(job.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, "widgets 42 csv", string(out))
}

func TestExecConverterNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "bad input" >&2; exit 3`)
	job := convJob(t)

	conv := &ExecConverter{Path: script, OutputWait: time.Second}
	err := conv.Convert(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")
}

func TestExecConverterNoOutput(t *testing.T) {
	script := writeScript(t, `exit 0`)
	job := convJob(t)

	conv := &ExecConverter{Path: script, OutputWait: 300 * time.Millisecond}
	err := conv.Convert(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not produce output")
}

func TestExecConverterLateOutput(t *testing.T) {
	// Output appearing shortly after exit still counts; the wait loop covers
	// the tool's flush-at-exit behavior.
	script := writeScript(t, `( sleep 0.2; echo "a" > "$IMPORT_OUTPUT_DIR/$1.csv" ) &`)
	job := convJob(t)

	conv := &ExecConverter{Path: script, OutputWait: 2 * time.Second}
	require.NoError(t, conv.Convert(context.Background(), job))
}
