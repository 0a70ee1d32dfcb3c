package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
)

type fakeSource struct {
	extdist   upstream.ExtDist
	bundles   upstream.Bundles
	gerrit    map[string][]string
	manifests map[string]string
	errs      map[string]error
	calls     map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		gerrit:    map[string][]string{},
		manifests: map[string]string{},
		errs:      map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeSource) GerritProjects(_ context.Context, prefix string) ([]string, error) {
	f.calls["gerrit:"+prefix]++
	if err := f.errs["gerrit:"+prefix]; err != nil {
		return nil, err
	}
	return f.gerrit[prefix], nil
}

func (f *fakeSource) ExtDistRepos(context.Context) (upstream.ExtDist, error) {
	f.calls["extdist"]++
	if err := f.errs["extdist"]; err != nil {
		return upstream.ExtDist{}, err
	}
	return f.extdist, nil
}

func (f *fakeSource) ReleaseBundles(context.Context) (upstream.Bundles, error) {
	f.calls["bundles"]++
	if err := f.errs["bundles"]; err != nil {
		return upstream.Bundles{}, err
	}
	return f.bundles, nil
}

func (f *fakeSource) GitModules(_ context.Context, url string) (string, error) {
	f.calls["manifest:"+url]++
	text, ok := f.manifests[url]
	if !ok {
		return "", cserrors.New(cserrors.CategoryFetch, cserrors.SeverityError, "no manifest configured")
	}
	return text, nil
}

func TestBuildCoreOnly(t *testing.T) {
	src := newFakeSource()
	conf, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Core: true})
	require.NoError(t, err)

	require.Len(t, conf.Repos, 1)
	repo, ok := conf.Repos["MediaWiki core"]
	require.True(t, ok)
	assert.Equal(t, "https://gerrit-replica.wikimedia.org/r/mediawiki/core.git", repo.URL)
	assert.Empty(t, src.calls, "a static-only profile needs no remote queries")
}

func TestBuildExtensions(t *testing.T) {
	src := newFakeSource()
	src.extdist = upstream.ExtDist{Extensions: []string{"AbuseFilter", "Cite"}, Skins: []string{"Vector"}}
	src.manifests[NonWMFExtensionsManifest] = `[submodule "SemanticMediaWiki"]
	url = https://github.com/SemanticMediaWiki/SemanticMediaWiki.git
`

	conf, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Exts: true})
	require.NoError(t, err)

	assert.Contains(t, conf.Repos, "Extension:AbuseFilter")
	assert.Contains(t, conf.Repos, "Extension:Cite")
	assert.Contains(t, conf.Repos, "VisualEditor core")
	assert.Contains(t, conf.Repos, "SemanticMediaWiki/SemanticMediaWiki")
	assert.NotContains(t, conf.Repos, "Skin:Vector")

	assert.Equal(t, "https://gerrit-replica.wikimedia.org/r/mediawiki/extensions/AbuseFilter.git",
		conf.Repos["Extension:AbuseFilter"].URL)
	assert.Equal(t, 1, src.calls["extdist"])
	assert.Equal(t, 1, src.calls["manifest:"+NonWMFExtensionsManifest])
}

func TestBuildThingsCoversSkins(t *testing.T) {
	src := newFakeSource()
	src.extdist = upstream.ExtDist{Extensions: []string{"Cite"}, Skins: []string{"Vector", "Timeless"}}
	src.manifests[NonWMFExtensionsManifest] = ""
	src.manifests[NonWMFSkinsManifest] = `[submodule "chameleon"]
	url = https://github.com/ProfessionalWiki/chameleon.git
`

	conf, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Exts: true, Skins: true})
	require.NoError(t, err)

	assert.Contains(t, conf.Repos, "Skin:Vector")
	assert.Contains(t, conf.Repos, "Skin:Timeless")
	assert.Contains(t, conf.Repos, "ProfessionalWiki/chameleon")
	assert.Equal(t, "https://gerrit-replica.wikimedia.org/r/mediawiki/skins/Vector.git",
		conf.Repos["Skin:Vector"].URL)
}

func TestEmptyExtensionListingFails(t *testing.T) {
	src := newFakeSource()
	src.extdist = upstream.ExtDist{Skins: []string{"Vector"}}
	src.manifests[NonWMFExtensionsManifest] = ""

	_, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Exts: true})
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryListing))
}

func TestEmptySkinListingFails(t *testing.T) {
	src := newFakeSource()
	src.extdist = upstream.ExtDist{Extensions: []string{"Cite"}}
	src.manifests[NonWMFSkinsManifest] = ""

	_, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Skins: true})
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryListing))
}

func TestEmptyGerritListingIsAccepted(t *testing.T) {
	// Prefix listings have no floor: an empty answer just contributes
	// nothing.
	src := newFakeSource()
	conf, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Analytics: true})
	require.NoError(t, err)
	assert.Empty(t, conf.Repos)
	assert.Equal(t, 1, src.calls["gerrit:analytics/"])
}

func TestBuildDeployed(t *testing.T) {
	src := newFakeSource()
	src.bundles = upstream.Bundles{
		Base:    []string{"mediawiki/extensions/Cite"},
		WMFCore: []string{"mediawiki/extensions/Wikibase", "mediawiki/extensions/EventBus"},
	}
	src.gerrit["mediawiki/services/"] = []string{"mediawiki/services/citoid", "mediawiki/services/parsoid"}

	flags := Flags{Core: true, Wikimedia: true, Vendor: true, Services: true}
	conf, err := Build(context.Background(), src, hound.DefaultHosts(), flags)
	require.NoError(t, err)

	assert.Contains(t, conf.Repos, "MediaWiki core")
	assert.Contains(t, conf.Repos, "mediawiki/extensions/Wikibase")
	assert.Contains(t, conf.Repos, "mediawiki/extensions/EventBus")
	assert.NotContains(t, conf.Repos, "mediawiki/extensions/Cite", "base bundle is not part of deployed")
	assert.Contains(t, conf.Repos, "Wikimedia MediaWiki config")
	assert.Contains(t, conf.Repos, "WikimediaDebug")
	assert.Contains(t, conf.Repos, "mediawiki/vendor")
	assert.Contains(t, conf.Repos, "mediawiki/services/citoid")
	assert.Contains(t, conf.Repos, "mwaddlink")
	assert.Contains(t, conf.Repos, "Wikidata Query GUI")
	assert.Contains(t, conf.Repos, "Wikidata Query RDF")
}

func TestBuildFailsOnListingError(t *testing.T) {
	src := newFakeSource()
	src.errs["gerrit:mediawiki/libs/"] = cserrors.New(cserrors.CategoryFetch, cserrors.SeverityError, "gerrit down")

	_, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Libs: true})
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryFetch))
}

func TestBuildFailsOnUnknownManifestHost(t *testing.T) {
	src := newFakeSource()
	src.extdist = upstream.ExtDist{Extensions: []string{"Cite"}}
	src.manifests[NonWMFExtensionsManifest] = `[submodule "mystery"]
	url = https://example.org/acme/mystery.git
`

	_, err := Build(context.Background(), src, hound.DefaultHosts(), Flags{Exts: true})
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryClassify))
}

func TestLaterRulesOverwriteEarlier(t *testing.T) {
	hosts := hound.DefaultHosts()
	conf := hound.NewConfig()

	first := static("Wikimedia MediaWiki config", gerrit("operations/mediawiki-config"))
	second := static("Wikimedia MediaWiki config", gerrit("operations/mediawiki-config-next"))
	require.NoError(t, first.Apply(context.Background(), nil, hosts, conf))
	require.NoError(t, second.Apply(context.Background(), nil, hosts, conf))

	require.Len(t, conf.Repos, 1)
	assert.Equal(t, "https://gerrit-replica.wikimedia.org/r/operations/mediawiki-config-next.git",
		conf.Repos["Wikimedia MediaWiki config"].URL)
}
