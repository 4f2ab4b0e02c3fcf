package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/auth"
)

const testConfig = `
database:
  driver: "sqlite"
  dsn: "file::memory:"
auth:
  jwt_secret: "cli-secret"
  issuer: "timekeeping"
log:
  format: "console"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, testConfig)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--worker", "w1", "--company", "c1", "--roles", "worker,manager"})
	require.NoError(t, cmd.Execute())

	m := auth.NewManager(&config.AuthConfig{JWTSecret: "cli-secret", Issuer: "timekeeping"})
	actor, err := m.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "w1", actor.WorkerID)
	assert.True(t, actor.CanReview())
}

func TestTokenCommand_RejectsUnknownRole(t *testing.T) {
	path := writeConfig(t, testConfig)

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", path, "--worker", "w1", "--company", "c1", "--roles", "Manager"})
	assert.ErrorContains(t, cmd.Execute(), "unknown role")
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: \"mysql\"\n")
	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load configuration")
}

func TestMigrateUp_SQLite(t *testing.T) {
	path := writeConfig(t, testConfig)

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "up", "--config", path})
	assert.NoError(t, cmd.Execute())

	cmd = newRootCommand()
	cmd.SetArgs([]string{"migrate", "down", "--config", path})
	assert.ErrorContains(t, cmd.Execute(), "only supported on postgres")
}
