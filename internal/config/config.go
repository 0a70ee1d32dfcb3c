// Package config loads the codesearch tool configuration.
//
// Every default matches the production Wikimedia deployment, so a stock
// install needs no config file at all. The YAML file overrides individual
// values; ${VAR} references in it are expanded from the environment, and a
// .env file in the working directory is loaded first.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
)

const (
	DefaultDataDir     = "/srv/hound"
	DefaultProxyListen = ":3002"
	DefaultAdminListen = ":6099"
	DefaultBackendHost = "localhost"
	DefaultInterval    = "24h"
	DefaultNATSSubject = "codesearch.runs"
	DefaultNATSStream  = "CODESEARCH"
)

// Config is the top-level codesearch configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Hosts    HostsConfig    `yaml:"hosts"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Daemon   DaemonConfig   `yaml:"daemon"`
}

// HostsConfig sets the bases used when writing repository entries.
type HostsConfig struct {
	GerritReplica string `yaml:"gerrit_replica"`
	Gitiles       string `yaml:"gitiles"`
	Phabricator   string `yaml:"phabricator"`
}

// UpstreamConfig sets the services queried during generation.
type UpstreamConfig struct {
	GerritREST      string `yaml:"gerrit_rest"`
	Gitiles         string `yaml:"gitiles"`
	MediaWikiAPI    string `yaml:"mediawiki_api"`
	SettingsProject string `yaml:"settings_project"`
	SettingsPath    string `yaml:"settings_path"`
	Timeout         string `yaml:"timeout"`

	timeout time.Duration
}

// ProxyConfig configures the public search proxy.
type ProxyConfig struct {
	Listen      string `yaml:"listen"`
	BackendHost string `yaml:"backend_host"`
}

// DaemonConfig configures the scheduled generation daemon.
type DaemonConfig struct {
	Interval    string     `yaml:"interval"`
	Restart     *bool      `yaml:"restart"`
	AdminListen string     `yaml:"admin_listen"`
	RunLog      string     `yaml:"runlog"`
	NATS        NATSConfig `yaml:"nats"`

	interval time.Duration
}

// NATSConfig configures run event publishing. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Hosts: HostsConfig{
			GerritReplica: "https://gerrit-replica.wikimedia.org/r",
			Gitiles:       "https://gerrit.wikimedia.org/g",
			Phabricator:   "https://phabricator.wikimedia.org",
		},
		Upstream: UpstreamConfig{
			GerritREST:      upstream.DefaultGerritREST,
			Gitiles:         upstream.DefaultGitiles,
			MediaWikiAPI:    upstream.DefaultMediaWikiAPI,
			SettingsProject: upstream.DefaultSettingsProject,
			SettingsPath:    upstream.DefaultSettingsPath,
			Timeout:         upstream.DefaultTimeout.String(),
		},
		Proxy: ProxyConfig{
			Listen:      DefaultProxyListen,
			BackendHost: DefaultBackendHost,
		},
		Daemon: DaemonConfig{
			Interval:    DefaultInterval,
			AdminListen: DefaultAdminListen,
			NATS: NATSConfig{
				Subject: DefaultNATSSubject,
				Stream:  DefaultNATSStream,
			},
		},
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; an unreadable or invalid one is an error.
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, cserrors.WrapError(err, cserrors.CategoryConfig, "reading config file").
			WithContext("path", path)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryConfig, "parsing config file").
			WithContext("path", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile loads the first available .env file. Existing environment
// variables are never overridden.
func loadEnvFile() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			return
		}
	}
}

// Validate checks the configuration and resolves derived values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return cserrors.New(cserrors.CategoryConfig, cserrors.SeverityError, "data_dir must not be empty")
	}
	for _, base := range []struct{ name, value string }{
		{"hosts.gerrit_replica", c.Hosts.GerritReplica},
		{"hosts.gitiles", c.Hosts.Gitiles},
		{"hosts.phabricator", c.Hosts.Phabricator},
		{"upstream.gerrit_rest", c.Upstream.GerritREST},
		{"upstream.gitiles", c.Upstream.Gitiles},
		{"upstream.mediawiki_api", c.Upstream.MediaWikiAPI},
	} {
		if err := validateBaseURL(base.name, base.value); err != nil {
			return err
		}
	}
	interval, err := time.ParseDuration(c.Daemon.Interval)
	if err != nil {
		return cserrors.WrapError(err, cserrors.CategoryConfig, "invalid daemon.interval")
	}
	if interval <= 0 {
		return cserrors.New(cserrors.CategoryConfig, cserrors.SeverityError, "daemon.interval must be positive")
	}
	c.Daemon.interval = interval

	timeout, err := time.ParseDuration(c.Upstream.Timeout)
	if err != nil {
		return cserrors.WrapError(err, cserrors.CategoryConfig, "invalid upstream.timeout")
	}
	if timeout <= 0 {
		return cserrors.New(cserrors.CategoryConfig, cserrors.SeverityError, "upstream.timeout must be positive")
	}
	c.Upstream.timeout = timeout
	return nil
}

func validateBaseURL(name, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cserrors.New(cserrors.CategoryConfig, cserrors.SeverityError,
			fmt.Sprintf("%s must be an absolute http(s) URL", name))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return cserrors.New(cserrors.CategoryConfig, cserrors.SeverityError,
			fmt.Sprintf("%s must use http or https", name))
	}
	return nil
}

// HoundHosts returns the adapter host set used for repository entries.
func (c *Config) HoundHosts() hound.Hosts {
	return hound.Hosts{
		GerritReplica: strings.TrimRight(c.Hosts.GerritReplica, "/"),
		Gitiles:       strings.TrimRight(c.Hosts.Gitiles, "/"),
		Phabricator:   strings.TrimRight(c.Hosts.Phabricator, "/"),
	}
}

// Endpoints returns the upstream query endpoints. Only valid after
// Validate.
func (c *Config) Endpoints() upstream.Endpoints {
	return upstream.Endpoints{
		GerritREST:      strings.TrimRight(c.Upstream.GerritREST, "/"),
		Gitiles:         strings.TrimRight(c.Upstream.Gitiles, "/"),
		MediaWikiAPI:    c.Upstream.MediaWikiAPI,
		SettingsProject: c.Upstream.SettingsProject,
		SettingsPath:    c.Upstream.SettingsPath,
		Timeout:         c.Upstream.timeout,
	}
}

// RunLogPath returns the sqlite run log location.
func (c *Config) RunLogPath() string {
	if c.Daemon.RunLog != "" {
		return c.Daemon.RunLog
	}
	return filepath.Join(c.DataDir, "codesearch.db")
}

// GenerationInterval returns the parsed daemon interval. Only valid after
// Validate.
func (d *DaemonConfig) GenerationInterval() time.Duration {
	return d.interval
}

// RestartEnabled reports whether scheduled runs restart units on change.
// Defaults to true.
func (d *DaemonConfig) RestartEnabled() bool {
	if d.Restart == nil {
		return true
	}
	return *d.Restart
}
