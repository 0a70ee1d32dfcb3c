package gitmodules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
)

func TestResolveSubmoduleSections(t *testing.T) {
	manifest := `[submodule "VisualEditor"]
	path = VisualEditor
	url = https://github.com/wikimedia/VisualEditor.git
[submodule "SemanticMediaWiki"]
	path = SemanticMediaWiki
	url = git@github.com:SemanticMediaWiki/SemanticMediaWiki.git
`
	entries, err := Resolve(manifest, hound.DefaultHosts())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "wikimedia/VisualEditor", entries[0].Name)
	assert.Equal(t, "https://github.com/wikimedia/VisualEditor.git", entries[0].Repo.URL)
	assert.Nil(t, entries[0].Repo.URLPattern)

	assert.Equal(t, "SemanticMediaWiki/SemanticMediaWiki", entries[1].Name)
	assert.Equal(t, "https://github.com/SemanticMediaWiki/SemanticMediaWiki.git", entries[1].Repo.URL)
}

func TestResolveOtherHosts(t *testing.T) {
	manifest := `[submodule "widgets"]
	url = https://bitbucket.org/acme/widgets.git
[submodule "tools"]
	url = https://gitlab.com/acme/tools.git
[submodule "falkon"]
	url = https://invent.kde.org/network/falkon.git
`
	entries, err := Resolve(manifest, hound.DefaultHosts())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "acme/widgets", entries[0].Name)
	require.NotNil(t, entries[0].Repo.URLPattern)
	assert.Equal(t, "", entries[0].Repo.URLPattern.Anchor)

	assert.Equal(t, "acme/tools", entries[1].Name)
	assert.Equal(t, "https://gitlab.com/acme/tools.git", entries[1].Repo.URL)

	assert.Equal(t, "network/falkon", entries[2].Name)
	assert.Equal(t, "https://invent.kde.org/network/falkon.git", entries[2].Repo.URL)
}

func TestResolveGerritHost(t *testing.T) {
	manifest := `[submodule "Minify"]
	url = https://gerrit.wikimedia.org/r/mediawiki/libs/Minify.git
`
	entries, err := Resolve(manifest, hound.DefaultHosts())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Clones are redirected through the replica like every other gerrit
	// repository.
	assert.Equal(t, "mediawiki/libs/Minify", entries[0].Name)
	assert.Equal(t, "https://gerrit-replica.wikimedia.org/r/mediawiki/libs/Minify.git", entries[0].Repo.URL)
	require.NotNil(t, entries[0].Repo.URLPattern)
	assert.Contains(t, entries[0].Repo.URLPattern.BaseURL, "gerrit.wikimedia.org/g/mediawiki/libs/Minify")
}

func TestResolveSkipsUnindexableHosts(t *testing.T) {
	manifest := `[submodule "keep"]
	url = https://github.com/acme/keep.git
[submodule "private"]
	url = https://phabricator.nichework.com/source/private.git
`
	entries, err := Resolve(manifest, hound.DefaultHosts())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme/keep", entries[0].Name)
}

func TestResolveUnknownHostFails(t *testing.T) {
	manifest := `[submodule "mystery"]
	url = https://example.org/acme/mystery.git
`
	_, err := Resolve(manifest, hound.DefaultHosts())
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryClassify))

	var cse *cserrors.CodesearchError
	require.ErrorAs(t, err, &cse)
	v, ok := cse.ContextValue("url")
	require.True(t, ok)
	assert.Equal(t, "https://example.org/acme/mystery", v)
}

func TestResolvePlainSections(t *testing.T) {
	// Manifests occasionally carry bare sections without a subsection name.
	manifest := `[coretools]
	url = https://github.com/acme/core-tools
`
	entries, err := Resolve(manifest, hound.DefaultHosts())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme/core-tools", entries[0].Name)
	assert.Equal(t, "https://github.com/acme/core-tools.git", entries[0].Repo.URL)
}

func TestResolveIgnoresSectionsWithoutURL(t *testing.T) {
	manifest := `[submodule "nourl"]
	path = somewhere
[submodule "ok"]
	url = https://github.com/acme/ok.git
`
	entries, err := Resolve(manifest, hound.DefaultHosts())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme/ok", entries[0].Name)
}
