package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFromEnvAppliesLoggerSettingsFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_TO_STDOUT=true\n"), 0o600))

	t.Setenv("LOG_TO_STDOUT", "")
	require.NoError(t, os.Unsetenv("LOG_TO_STDOUT"))

	previous := Logger
	t.Cleanup(func() { Logger = previous })

	stdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = stdout })

	require.NoError(t, InitFromEnv())
	Logger.Info("logger ready")
	_ = Logger.Sync()
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "logger ready")
	assert.DirExists(t, filepath.Join(dir, "logs"))
}

func TestInitFromEnvWithoutEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	previous := Logger
	t.Cleanup(func() { Logger = previous })

	assert.Error(t, InitFromEnv())
	assert.NotNil(t, Logger)
}
