package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultProxyListen, cfg.Proxy.Listen)
	assert.Equal(t, 24*time.Hour, cfg.Daemon.GenerationInterval())
	assert.True(t, cfg.Daemon.RestartEnabled())
	assert.Equal(t, "https://gerrit.wikimedia.org/r", cfg.Endpoints().GerritREST)
	assert.Equal(t, "mediawiki/tools/release", cfg.Endpoints().SettingsProject)
	assert.Equal(t, 30*time.Second, cfg.Endpoints().Timeout)
	assert.Equal(t, "https://gerrit-replica.wikimedia.org/r", cfg.HoundHosts().GerritReplica)
	assert.Equal(t, filepath.Join(DefaultDataDir, "codesearch.db"), cfg.RunLogPath())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codesearch.yaml")
	raw := `data_dir: /tmp/hound
hosts:
  gerrit_replica: http://gerrit.local/r/
upstream:
  timeout: 10s
daemon:
  interval: 2h
  restart: false
  runlog: /tmp/runs.db
proxy:
  listen: ":8080"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/hound", cfg.DataDir)
	assert.Equal(t, "http://gerrit.local/r", cfg.HoundHosts().GerritReplica, "trailing slash is trimmed")
	assert.Equal(t, "https://gerrit.wikimedia.org/g", cfg.HoundHosts().Gitiles, "untouched values keep defaults")
	assert.Equal(t, 2*time.Hour, cfg.Daemon.GenerationInterval())
	assert.False(t, cfg.Daemon.RestartEnabled())
	assert.Equal(t, "/tmp/runs.db", cfg.RunLogPath())
	assert.Equal(t, ":8080", cfg.Proxy.Listen)
	assert.Equal(t, 10*time.Second, cfg.Endpoints().Timeout)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("CODESEARCH_TEST_DATA", "/srv/hound-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "codesearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: ${CODESEARCH_TEST_DATA}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/hound-test", cfg.DataDir)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"relative host", func(c *Config) { c.Hosts.Gitiles = "gerrit.wikimedia.org/g" }},
		{"bad scheme", func(c *Config) { c.Upstream.MediaWikiAPI = "ftp://example.org/api" }},
		{"bad interval", func(c *Config) { c.Daemon.Interval = "often" }},
		{"zero interval", func(c *Config) { c.Daemon.Interval = "0s" }},
		{"bad timeout", func(c *Config) { c.Upstream.Timeout = "soonish" }},
		{"zero timeout", func(c *Config) { c.Upstream.Timeout = "0s" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, cserrors.IsCategory(err, cserrors.CategoryConfig))
		})
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codesearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [broken\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryConfig))
}
