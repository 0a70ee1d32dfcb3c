// Package profile composes hound configurations from flag-driven rule sets.
//
// Each hound instance (a "profile") is described by a Flags value selecting
// repository groups. Flags expand into an ordered rule list; applying the
// rules against a Source yields the final repository map. Order matters:
// when two rules produce the same display name the later one wins, which is
// how the curated entries override listing results.
package profile

import (
	"context"

	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
)

// Source answers the remote queries rule expansion needs. *upstream.Client
// satisfies it; tests substitute a fake.
type Source interface {
	GerritProjects(ctx context.Context, prefix string) ([]string, error)
	ExtDistRepos(ctx context.Context) (upstream.ExtDist, error)
	ReleaseBundles(ctx context.Context) (upstream.Bundles, error)
	GitModules(ctx context.Context, url string) (string, error)
}

// Build expands a flag set into a complete hound configuration.
func Build(ctx context.Context, src Source, hosts hound.Hosts, flags Flags) (*hound.Config, error) {
	conf := hound.NewConfig()
	for _, rule := range flags.Rules() {
		if err := rule.Apply(ctx, src, hosts, conf); err != nil {
			return nil, err
		}
	}
	return conf, nil
}
