package profile

import (
	"context"
	"fmt"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/gitmodules"
	"git.home.luguber.info/inful/codesearch/internal/hound"
)

// Manifest locations for extensions and skins hosted outside Wikimedia Gerrit.
const (
	NonWMFExtensionsManifest = "https://raw.githubusercontent.com/MWStake/nonwmf-extensions/master/.gitmodules"
	NonWMFSkinsManifest      = "https://raw.githubusercontent.com/MWStake/nonwmf-skins/master/.gitmodules"
)

// Rule contributes repository entries to a config under construction.
type Rule interface {
	Apply(ctx context.Context, src Source, hosts hound.Hosts, conf *hound.Config) error
}

// Static includes a single repository under a fixed display name.
type Static struct {
	Name    string
	Resolve func(hound.Hosts) hound.Repo
}

func (r Static) Apply(_ context.Context, _ Source, hosts hound.Hosts, conf *hound.Config) error {
	conf.Set(r.Name, r.Resolve(hosts))
	return nil
}

// GerritList expands to every active Gerrit project under a prefix, each
// keyed by its project name.
type GerritList struct {
	Prefix string
}

func (r GerritList) Apply(ctx context.Context, src Source, hosts hound.Hosts, conf *hound.Config) error {
	names, err := src.GerritProjects(ctx, r.Prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		conf.Set(name, hosts.Gerrit(name))
	}
	return nil
}

// ExtDistKind selects which extension distributor listing to expand.
type ExtDistKind string

const (
	ExtDistExtensions ExtDistKind = "extensions"
	ExtDistSkins      ExtDistKind = "skins"
)

var extDistPrefixes = map[ExtDistKind]struct{ display, project string }{
	ExtDistExtensions: {"Extension:", "mediawiki/extensions/"},
	ExtDistSkins:      {"Skin:", "mediawiki/skins/"},
}

// ExtDistList expands an extension distributor listing into Gerrit
// repositories. An empty listing fails the build: the API answering with
// nothing means it is broken, and accepting it would silently gut the
// profile.
type ExtDistList struct {
	Kind ExtDistKind
}

func (r ExtDistList) Apply(ctx context.Context, src Source, hosts hound.Hosts, conf *hound.Config) error {
	data, err := src.ExtDistRepos(ctx)
	if err != nil {
		return err
	}
	var names []string
	switch r.Kind {
	case ExtDistExtensions:
		names = data.Extensions
	case ExtDistSkins:
		names = data.Skins
	default:
		return cserrors.New(cserrors.CategoryInternal, cserrors.SeverityError,
			fmt.Sprintf("unknown extdist kind %q", r.Kind))
	}
	if len(names) == 0 {
		return cserrors.New(cserrors.CategoryListing, cserrors.SeverityError,
			fmt.Sprintf("extension distributor returned no %s", r.Kind))
	}
	prefixes := extDistPrefixes[r.Kind]
	for _, name := range names {
		conf.Set(prefixes.display+name, hosts.Gerrit(prefixes.project+name))
	}
	return nil
}

// BundleKind selects a bundle from the MediaWiki release settings.
type BundleKind string

const (
	BundleBase    BundleKind = "base"
	BundleWMFCore BundleKind = "wmf_core"
)

// BundleList expands a release settings bundle, each entry keyed by its
// Gerrit project name.
type BundleList struct {
	Bundle BundleKind
}

func (r BundleList) Apply(ctx context.Context, src Source, hosts hound.Hosts, conf *hound.Config) error {
	bundles, err := src.ReleaseBundles(ctx)
	if err != nil {
		return err
	}
	var names []string
	switch r.Bundle {
	case BundleBase:
		names = bundles.Base
	case BundleWMFCore:
		names = bundles.WMFCore
	default:
		return cserrors.New(cserrors.CategoryInternal, cserrors.SeverityError,
			fmt.Sprintf("unknown bundle %q", r.Bundle))
	}
	for _, name := range names {
		conf.Set(name, hosts.Gerrit(name))
	}
	return nil
}

// ManifestList expands a remote .gitmodules manifest.
type ManifestList struct {
	URL string
}

func (r ManifestList) Apply(ctx context.Context, src Source, hosts hound.Hosts, conf *hound.Config) error {
	text, err := src.GitModules(ctx, r.URL)
	if err != nil {
		return err
	}
	entries, err := gitmodules.Resolve(text, hosts)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		conf.Set(entry.Name, entry.Repo)
	}
	return nil
}

// Helpers for declaring static rules.

func static(name string, resolve func(hound.Hosts) hound.Repo) Static {
	return Static{Name: name, Resolve: resolve}
}

func gerrit(name string) func(hound.Hosts) hound.Repo {
	return func(h hound.Hosts) hound.Repo { return h.Gerrit(name) }
}

func github(name string) func(hound.Hosts) hound.Repo {
	return func(h hound.Hosts) hound.Repo { return h.GitHub(name) }
}

func githost(host, name string) func(hound.Hosts) hound.Repo {
	return func(h hound.Hosts) hound.Repo { return h.GitHost(host, name) }
}

func phab(name string) func(hound.Hosts) hound.Repo {
	return func(h hound.Hosts) hound.Repo { return h.Phab(name) }
}
