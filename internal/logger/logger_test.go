package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classmate.log")

	log, err := New("dev", path)
	require.NoError(t, err)

	log.With("lesson_id", "l-1").Info("session started", "user_id", "u-1")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.True(t, strings.Contains(out, "session started"), "log output: %s", out)
	require.True(t, strings.Contains(out, "l-1"), "log output: %s", out)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Warn("ignored", "k", "v")
	log.Sync()
}
