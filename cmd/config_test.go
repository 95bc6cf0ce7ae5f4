package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkstash/internal/config"
)

func TestConfigSetBaseURL(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := runCLI(t, nil, "--config-dir", dir, "config", "set-base-url", "https://stash.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "Base URL set to https://stash.example.com\n", stdout.String())

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://stash.example.com", cfg.BaseURL)

	stdout, _, err = runCLI(t, nil, "--config-dir", dir, "config", "set-base-url", "")
	require.NoError(t, err)
	assert.Equal(t, "Base URL set to "+config.DefaultBaseURL+"\n", stdout.String())
}

func TestConfigSetBaseURL_Invalid(t *testing.T) {
	_, _, err := runCLI(t, nil, "--config-dir", t.TempDir(), "config", "set-base-url", "ftp://nope")
	assert.Error(t, err)
}

func TestConfigShow_JSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LINKSTASH_TOKEN_STORE_REDIS_PASSWORD", "hunter2")

	stdout, _, err := runCLI(t, nil, "--config-dir", dir, "-o", "json", "config", "show")
	require.NoError(t, err)

	var shown map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout.String()), &shown))
	assert.Equal(t, config.DefaultBaseURL, shown["baseUrl"])
	assert.Equal(t, "30s", shown["httpTimeout"])
	assert.Equal(t, filepath.Join(dir, "config.yaml"), shown["configFile"])
	assert.Equal(t, "********", shown["tokenStore.redisPassword"])
	assert.NotContains(t, stdout.String(), "hunter2")
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := runCLI(t, nil, "--config-dir", dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), strings.TrimSpace(stdout.String()))
}
