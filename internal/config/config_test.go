package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.toml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, "service_account.json", cfg.Google.CredentialsFile)
	assert.Equal(t, "invoice", cfg.Google.Worksheet)
	assert.Equal(t, 5*time.Minute, cfg.Poll.Window.Duration)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[google]
credentials_file = "creds.json"
spreadsheet_id = "sheet123"
folder_id = "folder456"
worksheet = "tracking"

[poll]
window = "10m"
interval = "2m"

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "creds.json", cfg.Google.CredentialsFile)
	assert.Equal(t, "sheet123", cfg.Google.SpreadsheetID)
	assert.Equal(t, "folder456", cfg.Google.FolderID)
	assert.Equal(t, "tracking", cfg.Google.Worksheet)
	assert.Equal(t, 10*time.Minute, cfg.Poll.Window.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Poll.Interval.Duration)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset fields fall back to defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "logs/drivewatch.log", cfg.Logging.Path)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[google]
spreadsheet_id = "from_file"
folder_id = "folder456"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("DRIVEWATCH_GOOGLE_SPREADSHEET_ID", "from_env")
	t.Setenv("DRIVEWATCH_POLL_WINDOW", "30m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Google.SpreadsheetID)
	assert.Equal(t, 30*time.Minute, cfg.Poll.Window.Duration)
	assert.Equal(t, "folder456", cfg.Google.FolderID, "env does not clobber file values it does not set")
}

func TestLoadConfigIgnoresHostEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[google]
spreadsheet_id = "sheet123"
folder_id = "folder456"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// Variables any shell or PaaS runtime sets must not bleed into the
	// config; only DRIVEWATCH_-prefixed keys are honored.
	t.Setenv("PATH", "/decoy/bin:/usr/bin")
	t.Setenv("PORT", "9999")
	t.Setenv("WORKSHEET", "decoy")
	t.Setenv("LEVEL", "error")
	t.Setenv("WINDOW", "1h")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "logs/drivewatch.log", cfg.Logging.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "invoice", cfg.Google.Worksheet)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Poll.Window.Duration)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.Validate(), "spreadsheet and folder IDs have no default")

	cfg.Google.SpreadsheetID = "sheet123"
	assert.Error(t, cfg.Validate())

	cfg.Google.FolderID = "folder456"
	assert.NoError(t, cfg.Validate())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	original := defaultConfig()
	original.Google.SpreadsheetID = "sheet123"
	original.Google.FolderID = "folder456"
	require.NoError(t, SaveConfig(path, original))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
