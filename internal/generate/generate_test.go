package generate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/profile"
	"git.home.luguber.info/inful/codesearch/internal/publish"
	"git.home.luguber.info/inful/codesearch/internal/systemd"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
)

type fakeSource struct {
	extdist    upstream.ExtDist
	extdistErr error
	bundles    upstream.Bundles
	gerrit     map[string][]string
}

func (f *fakeSource) GerritProjects(_ context.Context, prefix string) ([]string, error) {
	return f.gerrit[prefix], nil
}

func (f *fakeSource) ExtDistRepos(context.Context) (upstream.ExtDist, error) {
	if f.extdistErr != nil {
		return upstream.ExtDist{}, f.extdistErr
	}
	return f.extdist, nil
}

func (f *fakeSource) ReleaseBundles(context.Context) (upstream.Bundles, error) {
	return f.bundles, nil
}

func (f *fakeSource) GitModules(context.Context, string) (string, error) {
	return "", nil
}

type noopRunner struct{}

func (noopRunner) Run(context.Context, ...string) (string, error) { return "", nil }

func newTestRunner(t *testing.T, src *fakeSource) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	publisher := publish.NewPublisher(dir, systemd.NewManager(noopRunner{}), nil)
	return NewRunner(src, hound.DefaultHosts(), publisher, nil), dir
}

func populatedSource() *fakeSource {
	return &fakeSource{
		extdist: upstream.ExtDist{Extensions: []string{"Cite"}, Skins: []string{"Vector"}},
		bundles: upstream.Bundles{Base: []string{"mediawiki/extensions/Cite"}, WMFCore: []string{"mediawiki/extensions/Wikibase"}},
		gerrit:  map[string][]string{},
	}
}

func TestRunAllProfiles(t *testing.T) {
	runner, dir := newTestRunner(t, populatedSource())

	outcomes, err := runner.Run(context.Background(), nil, false)
	require.NoError(t, err)
	require.Len(t, outcomes, len(profile.Profiles()))

	for i, prof := range profile.Profiles() {
		assert.Equal(t, prof.Name, outcomes[i].Profile)
		assert.NoError(t, outcomes[i].Err)
		assert.True(t, outcomes[i].Changed, "first run writes every profile fresh")

		path := filepath.Join(dir, publish.UnitName(prof.Name), "config.json")
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, "missing config for %s", prof.Name)
	}
}

func TestRunIsolatesProfileFailures(t *testing.T) {
	src := populatedSource()
	src.extdistErr = cserrors.New(cserrors.CategoryFetch, cserrors.SeverityError, "api down")
	runner, dir := newTestRunner(t, src)

	outcomes, err := runner.Run(context.Background(), nil, false)
	require.Error(t, err)
	assert.True(t, cserrors.IsCategory(err, cserrors.CategoryFetch),
		"aggregate error keeps the first failure's category")

	byName := map[string]Outcome{}
	for _, o := range outcomes {
		byName[o.Profile] = o
	}

	// Profiles that need the extension distributor fail.
	for _, name := range []string{"search", "extensions", "skins", "things"} {
		assert.Error(t, byName[name].Err, name)
	}
	// Everything else still publishes.
	for _, name := range []string{"core", "pywikibot", "ooui", "operations", "bundled", "deployed", "shouthow"} {
		assert.NoError(t, byName[name].Err, name)
		_, statErr := os.Stat(filepath.Join(dir, publish.UnitName(name), "config.json"))
		assert.NoError(t, statErr, name)
	}
	// Failed profiles leave no config behind.
	_, statErr := os.Stat(filepath.Join(dir, publish.UnitName("extensions"), "config.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSubset(t *testing.T) {
	runner, dir := newTestRunner(t, populatedSource())

	core, ok := profile.Find("core")
	require.True(t, ok)
	outcomes, err := runner.Run(context.Background(), []profile.Profile{core}, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "core", outcomes[0].Profile)
	assert.Equal(t, 1, outcomes[0].Repos)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunCanceledContext(t *testing.T) {
	runner, _ := newTestRunner(t, populatedSource())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, err := runner.Run(ctx, nil, false)
	require.Error(t, err)
	assert.Empty(t, outcomes)
}
