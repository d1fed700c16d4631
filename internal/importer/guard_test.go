package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardMissingExecutable(t *testing.T) {
	guard := ExecutableGuard{Path: filepath.Join(t.TempDir(), "converter")}
	assert.Error(t, guard.Verify())
}

func TestGuardNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))

	guard := ExecutableGuard{Path: path}
	assert.Error(t, guard.Verify())
}

func TestGuardDirectory(t *testing.T) {
	guard := ExecutableGuard{Path: t.TempDir()}
	assert.Error(t, guard.Verify())
}

func TestGuardOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	guard := ExecutableGuard{Path: path}
	assert.NoError(t, guard.Verify())
}
