// Package gitmodules resolves .gitmodules manifests into hound repository
// entries.
//
// The MWStake non-WMF extension and skin lists are published as .gitmodules
// files. Every listed URL is classified by hosting provider and mapped
// through the matching hound adapter. Unknown providers are an error rather
// than a silent drop so that new hosts surface as soon as they appear in a
// manifest.
package gitmodules

import (
	"log/slog"
	"strings"

	gitcfg "github.com/go-git/go-git/v5/plumbing/format/config"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
)

// Entry is one resolved manifest line. Name is the URL path with the host
// prefix stripped, which keeps entries from different manifests disjoint.
type Entry struct {
	Name string
	Repo hound.Repo
}

// hostRule classifies a single hosting provider. Rules run in order and the
// first URL substring match wins.
type hostRule struct {
	match    string
	prefixes []string
	skip     bool
	resolve  func(hosts hound.Hosts, name string) hound.Repo
}

var hostRules = []hostRule{
	{
		match:    "gerrit.wikimedia.org",
		prefixes: []string{"https://gerrit.wikimedia.org/r/p/", "https://gerrit.wikimedia.org/r/"},
		resolve:  func(h hound.Hosts, name string) hound.Repo { return h.Gerrit(name) },
	},
	{
		match:    "github.com",
		prefixes: []string{"git@github.com:", "https://github.com/"},
		resolve:  func(h hound.Hosts, name string) hound.Repo { return h.GitHub(name) },
	},
	{
		match:    "bitbucket.org",
		prefixes: []string{"https://bitbucket.org/"},
		resolve:  func(h hound.Hosts, name string) hound.Repo { return h.Bitbucket(name) },
	},
	{
		match:    "gitlab.com",
		prefixes: []string{"https://gitlab.com/"},
		resolve:  func(h hound.Hosts, name string) hound.Repo { return h.GitLab(name) },
	},
	{
		match:    "invent.kde.org",
		prefixes: []string{"https://invent.kde.org/"},
		resolve:  func(h hound.Hosts, name string) hound.Repo { return h.GitHost("invent.kde.org", name) },
	},
	{
		// Requires authentication, nothing we can index.
		match: "phabricator.nichework.com",
		skip:  true,
	},
}

// Resolve parses a .gitmodules document and returns its indexable entries in
// document order. A URL on an unrecognized host fails the whole manifest.
func Resolve(text string, hosts hound.Hosts) ([]Entry, error) {
	cfg := gitcfg.New()
	if err := gitcfg.NewDecoder(strings.NewReader(text)).Decode(cfg); err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryClassify, "parsing gitmodules manifest")
	}

	var entries []Entry
	for _, sec := range cfg.Sections {
		if sec.HasOption("url") {
			entry, ok, err := classify(sec.Option("url"), hosts)
			if err != nil {
				return nil, err
			}
			if ok {
				entries = append(entries, entry)
			}
		}
		for _, sub := range sec.Subsections {
			if !sub.HasOption("url") {
				continue
			}
			entry, ok, err := classify(sub.Option("url"), hosts)
			if err != nil {
				return nil, err
			}
			if ok {
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

// classify maps a submodule URL onto a hound repository. The boolean is false
// for hosts that are deliberately skipped.
func classify(url string, hosts hound.Hosts) (Entry, bool, error) {
	url = strings.TrimSuffix(url, ".git")
	for _, rule := range hostRules {
		if !strings.Contains(url, rule.match) {
			continue
		}
		if rule.skip {
			slog.Debug("Skipping manifest entry on unindexable host", logfields.URL(url))
			return Entry{}, false, nil
		}
		name := url
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(name, prefix) {
				name = strings.TrimPrefix(name, prefix)
				break
			}
		}
		return Entry{Name: name, Repo: rule.resolve(hosts, name)}, true, nil
	}
	return Entry{}, false, cserrors.New(cserrors.CategoryClassify, cserrors.SeverityError,
		"no known hosting provider for manifest URL").WithContext(logfields.KeyURL, url)
}
