// Package hound models the configuration file consumed by the hound code
// search daemon. One config file drives one index instance: a fixed envelope
// of indexer settings plus a map from display name to repository descriptor.
package hound

import (
	"encoding/json"
	"os"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
)

// PollInterval is how often hound polls each repository for new commits,
// in milliseconds (90 minutes).
const PollInterval = 90 * 60 * 1000

// Repo describes a single repository for hound to index.
type Repo struct {
	URL        string      `json:"url"`
	URLPattern *URLPattern `json:"url-pattern,omitempty"`
	PollMS     int         `json:"ms-between-poll"`
}

// URLPattern tells hound how to build browse links into a repository's web
// viewer. Anchor is serialized even when empty: an empty anchor means the
// host has a pattern but no generatable line anchor, which is different
// from having no pattern at all.
type URLPattern struct {
	BaseURL string `json:"base-url"`
	Anchor  string `json:"anchor"`
}

// Config is the envelope written to each hound-<profile>/config.json.
type Config struct {
	MaxConcurrentIndexers int             `json:"max-concurrent-indexers"`
	DBPath                string          `json:"dbpath"`
	VCSConfig             VCSConfig       `json:"vcs-config"`
	Repos                 map[string]Repo `json:"repos"`
}

// VCSConfig holds per-VCS indexer settings.
type VCSConfig struct {
	Git GitConfig `json:"git"`
}

// GitConfig holds git-specific indexer settings.
type GitConfig struct {
	DetectRef bool `json:"detect-ref"`
}

// NewConfig returns the standard envelope with an empty repository map.
func NewConfig() *Config {
	return &Config{
		MaxConcurrentIndexers: 2,
		DBPath:                "data",
		VCSConfig:             VCSConfig{Git: GitConfig{DetectRef: true}},
		Repos:                 map[string]Repo{},
	}
}

// Set inserts or overwrites one repository entry.
func (c *Config) Set(name string, repo Repo) {
	c.Repos[name] = repo
}

// Merge inserts every entry of repos, overwriting existing display names.
func (c *Config) Merge(repos map[string]Repo) {
	for name, repo := range repos {
		c.Repos[name] = repo
	}
}

// Marshal renders the config as tab-indented JSON. Map keys serialize in
// sorted order, so repeated runs over the same inputs are byte-identical
// and diffs stay readable.
func (c *Config) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryInternal, "marshal hound config")
	}
	return data, nil
}

// LoadFile reads a previously written config. Only the envelope shape is
// required; unknown fields are ignored.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryStorage, "read hound config").
			WithContext("path", path)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryStorage, "parse hound config").
			WithContext("path", path)
	}
	return &c, nil
}
