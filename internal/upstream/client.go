// Package upstream queries the remote services that feed config generation:
// the Gerrit REST API, gitiles, the MediaWiki action API and raw .gitmodules
// manifests.
//
// Successful responses are memoized per Client so that profiles sharing a
// listing reuse a single request. Create one Client per generation run to get
// fresh data.
package upstream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/metrics"
)

const (
	DefaultGerritREST   = "https://gerrit.wikimedia.org/r"
	DefaultGitiles      = "https://gerrit.wikimedia.org/g"
	DefaultMediaWikiAPI = "https://www.mediawiki.org/w/api.php"

	// The release tooling settings file carries the repository bundles.
	DefaultSettingsProject = "mediawiki/tools/release"
	DefaultSettingsPath    = "make-release/settings.yaml"

	DefaultTimeout = 30 * time.Second

	userAgent = "Codesearch/1.0"
)

// Gerrit prepends this to JSON responses to defuse XSSI.
var xssiPrefix = []byte(")]}'")

// Endpoints holds the upstream service base URLs. Zero values fall back to
// the production Wikimedia endpoints.
type Endpoints struct {
	GerritREST   string
	Gitiles      string
	MediaWikiAPI string

	SettingsProject string
	SettingsPath    string

	Timeout time.Duration
}

// DefaultEndpoints returns the production Wikimedia endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		GerritREST:      DefaultGerritREST,
		Gitiles:         DefaultGitiles,
		MediaWikiAPI:    DefaultMediaWikiAPI,
		SettingsProject: DefaultSettingsProject,
		SettingsPath:    DefaultSettingsPath,
		Timeout:         DefaultTimeout,
	}
}

// ExtDist lists the extension and skin repositories published through the
// MediaWiki extension distributor.
type ExtDist struct {
	Extensions []string
	Skins      []string
}

// Bundles holds the repository bundles from the MediaWiki release settings.
type Bundles struct {
	Base    []string
	WMFCore []string
}

// Client fetches upstream listings with per-run memoization.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	recorder   metrics.Recorder

	mu   sync.Mutex
	memo map[string][]byte
}

// NewClient creates an upstream client. A nil recorder disables metrics.
func NewClient(endpoints Endpoints, recorder metrics.Recorder) *Client {
	if endpoints.GerritREST == "" {
		endpoints.GerritREST = DefaultGerritREST
	}
	if endpoints.Gitiles == "" {
		endpoints.Gitiles = DefaultGitiles
	}
	if endpoints.MediaWikiAPI == "" {
		endpoints.MediaWikiAPI = DefaultMediaWikiAPI
	}
	if endpoints.SettingsProject == "" {
		endpoints.SettingsProject = DefaultSettingsProject
	}
	if endpoints.SettingsPath == "" {
		endpoints.SettingsPath = DefaultSettingsPath
	}
	if endpoints.Timeout <= 0 {
		endpoints.Timeout = DefaultTimeout
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: endpoints.Timeout},
		endpoints:  endpoints,
		recorder:   recorder,
		memo:       make(map[string][]byte),
	}
}

// GerritProjects lists the active Gerrit projects under a prefix, sorted by
// name. Inactive and read-only projects are dropped.
func (c *Client) GerritProjects(ctx context.Context, prefix string) ([]string, error) {
	listURL := fmt.Sprintf("%s/projects/?p=%s", c.endpoints.GerritREST, url.QueryEscape(prefix))
	body, err := c.fetch(ctx, listURL)
	if err != nil {
		return nil, err
	}

	var projects map[string]gerritProject
	if err := json.Unmarshal(bytes.TrimPrefix(body, xssiPrefix), &projects); err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "decoding gerrit project listing").
			WithContext(logfields.KeyPrefix, prefix)
	}

	names := make([]string, 0, len(projects))
	for name, info := range projects {
		if info.State != "ACTIVE" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type gerritProject struct {
	State string `json:"state"`
}

// ExtDistRepos queries the extension distributor listing from the MediaWiki
// action API.
func (c *Client) ExtDistRepos(ctx context.Context) (ExtDist, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("list", "extdistrepos")
	body, err := c.fetch(ctx, c.endpoints.MediaWikiAPI+"?"+q.Encode())
	if err != nil {
		return ExtDist{}, err
	}

	var payload struct {
		Query struct {
			ExtDistRepos struct {
				Extensions []string `json:"extensions"`
				Skins      []string `json:"skins"`
			} `json:"extdistrepos"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ExtDist{}, cserrors.WrapError(err, cserrors.CategoryFetch, "decoding extdistrepos response")
	}
	return ExtDist{
		Extensions: payload.Query.ExtDistRepos.Extensions,
		Skins:      payload.Query.ExtDistRepos.Skins,
	}, nil
}

// GitilesFile fetches a single file from a Gerrit project at master. The
// TEXT format wraps file content in base64.
func (c *Client) GitilesFile(ctx context.Context, project, path string) ([]byte, error) {
	fileURL := fmt.Sprintf("%s/%s/+/master/%s?format=TEXT", c.endpoints.Gitiles, project, path)
	body, err := c.fetch(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "decoding gitiles payload").
			WithContext(logfields.KeyPath, path)
	}
	return decoded, nil
}

// ReleaseBundles loads the repository bundles from the MediaWiki release
// tooling settings file.
func (c *Client) ReleaseBundles(ctx context.Context) (Bundles, error) {
	raw, err := c.GitilesFile(ctx, c.endpoints.SettingsProject, c.endpoints.SettingsPath)
	if err != nil {
		return Bundles{}, err
	}

	var settings struct {
		Bundles struct {
			Base    []string `yaml:"base"`
			WMFCore []string `yaml:"wmf_core"`
		} `yaml:"bundles"`
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Bundles{}, cserrors.WrapError(err, cserrors.CategoryFetch, "parsing release settings")
	}
	return Bundles{Base: settings.Bundles.Base, WMFCore: settings.Bundles.WMFCore}, nil
}

// GitModules fetches a raw .gitmodules manifest.
func (c *Client) GitModules(ctx context.Context, rawURL string) (string, error) {
	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// fetch performs a GET with memoization by URL. Only successful responses
// are cached, so a failed listing is retried on the next use.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	host := hostLabel(rawURL)

	c.mu.Lock()
	body, ok := c.memo[rawURL]
	c.mu.Unlock()
	if ok {
		c.recorder.IncFetchMemoHit(host)
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "building upstream request").
			WithContext(logfields.KeyURL, rawURL)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recorder.ObserveFetchDuration(host, time.Since(start))
	if err != nil {
		c.recorder.IncFetchResult(host, metrics.ResultFailed)
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "querying upstream").
			WithContext(logfields.KeyURL, rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.recorder.IncFetchResult(host, metrics.ResultFailed)
		return nil, cserrors.New(cserrors.CategoryFetch, cserrors.SeverityError,
			fmt.Sprintf("upstream returned %s", resp.Status)).WithContext(logfields.KeyURL, rawURL)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		c.recorder.IncFetchResult(host, metrics.ResultFailed)
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "reading upstream response").
			WithContext(logfields.KeyURL, rawURL)
	}
	c.recorder.IncFetchResult(host, metrics.ResultSuccess)

	c.mu.Lock()
	c.memo[rawURL] = body
	c.mu.Unlock()
	return body, nil
}

func hostLabel(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "unknown"
}
