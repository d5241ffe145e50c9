package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskdesk/internal/db"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"API_URL", "TIMEOUT", "DATA_DIR", "LOG_FILE", "DEBUG"} {
		t.Setenv("TASKDESK_"+k, "")
		os.Unsetenv("TASKDESK_" + k)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := appVersion, appCommit, appDate
	defer func() {
		appVersion, appCommit, appDate = origVersion, origCommit, origDate
	}()

	SetVersionInfo("1.2.3", "abc1234", "2026-10-18")
	assert.Equal(t, "1.2.3", appVersion)
	assert.Equal(t, "abc1234", appCommit)
	assert.Equal(t, "2026-10-18", appDate)
}

func TestVersionCommand(t *testing.T) {
	origVersion := appVersion
	defer func() { appVersion = origVersion }()
	appVersion = "test-ver"

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taskdesk test-ver")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "nonexistent-command")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestConfigCommandDefaults(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url:  http://127.0.0.1:8000")
	assert.Contains(t, out, "timeout:  10s")
	assert.Contains(t, out, "debug:    false")
}

func TestConfigCommandPrecedence(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://file.example.com\ntimeout: 4s\n"), 0o644))
	t.Setenv("TASKDESK_TIMEOUT", "7s")

	out, err := execute(t, "--config", path, "--api-url", "https://flag.example.com", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url:  https://flag.example.com")
	assert.Contains(t, out, "timeout:  7s")
}

func TestConfigCommandRejectsBadURL(t *testing.T) {
	isolate(t)

	_, err := execute(t, "--api-url", "ftp://example.com", "config")
	assert.Error(t, err)
}

func TestLogoutClearsStoredSession(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	database, err := db.New(dir)
	require.NoError(t, err)
	require.NoError(t, database.SaveSession("tok", "ada"))
	require.NoError(t, database.Close())

	out, err := execute(t, "--data-dir", dir, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	database, err = db.New(dir)
	require.NoError(t, err)
	defer database.Close()

	token, err := database.AccessToken()
	require.NoError(t, err)
	assert.Empty(t, token)
	name, err := database.LastUsername()
	require.NoError(t, err)
	assert.Equal(t, "ada", name)
}
