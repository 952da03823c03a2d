package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLASSMATE_USER", "ada")
	t.Setenv("CLASSMATE_TUTOR", "")
	os.Unsetenv("CLASSMATE_TUTOR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ada", cfg.UserID)
	assert.Equal(t, TutorLLM, cfg.Tutor)
	assert.Equal(t, 900*time.Millisecond, cfg.FeedbackDelay)
	assert.Equal(t, 10*time.Second, cfg.ProgressInterval)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CLASSMATE_USER", "ada")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CLASSMATE_FEEDBACK_DELAY=250\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CLASSMATE_FEEDBACK_DELAY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.FeedbackDelay)
}

func TestValidate(t *testing.T) {
	base := Config{UserID: "u", Tutor: TutorLLM, ToastDuration: time.Second, ProgressInterval: time.Second}

	ok := base
	require.NoError(t, ok.Validate())

	ws := base
	ws.Tutor = TutorWS
	assert.Error(t, ws.Validate(), "ws tutor without url")

	ws.TutorURL = "http://example.com"
	assert.Error(t, ws.Validate(), "non-websocket url")

	ws.TutorURL = "ws://localhost:8787/session"
	assert.NoError(t, ws.Validate())

	bad := base
	bad.Tutor = "carrier-pigeon"
	assert.Error(t, bad.Validate())

	noUser := base
	noUser.UserID = ""
	assert.Error(t, noUser.Validate())
}
