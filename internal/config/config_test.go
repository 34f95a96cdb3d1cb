package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PREDICTION_HISTORY_PATH", "")
	t.Setenv("SOURCE_POLL_INTERVAL", "")
	t.Setenv("REDIS_URL", "")

	cfg := FromEnv()
	assert.Equal(t, "CSVFiles/prediction_history.json", cfg.PredictionHistoryPath)
	assert.Equal(t, 30*time.Second, cfg.SourcePollInterval)
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.EnableSourceWatch)
	assert.False(t, cfg.EnableInjuryRefresh)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REST_PORT", "9090")
	t.Setenv("SOURCE_POLL_INTERVAL", "5s")
	t.Setenv("INJURY_REFRESH_HOUR", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.RESTPort)
	assert.Equal(t, 5*time.Second, cfg.SourcePollInterval)
	assert.Equal(t, 9, cfg.InjuryRefreshHour)
}

func TestApplyTOMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoopsight.toml")
	content := `
[sources]
prediction_history = "/srv/history.json"

[server]
cache_ttl = "2m"

[schedule]
source_poll_interval = "1m"
injury_refresh_hour = 6
enable_injury_refresh = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fileCfg, err := LoadFile(path)
	require.NoError(t, err)

	cfg := FromEnv()
	cfg.RESTPort = "8080"
	require.NoError(t, cfg.Apply(fileCfg))

	assert.Equal(t, "/srv/history.json", cfg.PredictionHistoryPath)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.SourcePollInterval)
	assert.Equal(t, 6, cfg.InjuryRefreshHour)
	assert.True(t, cfg.EnableInjuryRefresh)
	assert.Equal(t, "8080", cfg.RESTPort, "unset keys keep env value")
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	fileCfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Nil(t, fileCfg.Sources.PredictionHistory)
}

func TestApplyRejectsBadDuration(t *testing.T) {
	bad := "soon"
	cfg := FromEnv()
	err := cfg.Apply(FileConfig{Schedule: ScheduleConfig{SourcePollInterval: &bad}})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()
	cfg.InjuryRefreshHour = 24
	assert.Error(t, cfg.Validate())

	cfg = FromEnv()
	cfg.SourcePollInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hoopsight.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nws_port = \"7001\"\n"), 0o644))
	t.Setenv("HOOPSIGHT_CONFIG", path)

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.WSPort)
}
