package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesOrder(t *testing.T) {
	want := []string{
		"search", "core", "pywikibot", "extensions", "skins", "things",
		"ooui", "operations", "armchairgm", "milkshake", "bundled",
		"deployed", "services", "libraries", "analytics", "wmcs",
		"puppet", "shouthow",
	}
	assert.Equal(t, want, Names())
}

func TestSearchProfileFlags(t *testing.T) {
	search, ok := Find("search")
	require.True(t, ok)

	f := search.Flags
	assert.True(t, f.Core)
	assert.True(t, f.Exts)
	assert.True(t, f.Skins)
	assert.True(t, f.OOUI)
	assert.True(t, f.Operations)
	assert.True(t, f.Puppet)
	assert.True(t, f.TWN)
	assert.True(t, f.Pywikibot)
	assert.True(t, f.Services)
	assert.True(t, f.Libs)
	assert.True(t, f.Analytics)
	assert.True(t, f.WMCS)
	assert.True(t, f.Schemas)

	assert.False(t, f.ArmchairGM)
	assert.False(t, f.Milkshake)
	assert.False(t, f.Bundled)
	assert.False(t, f.Vendor)
	assert.False(t, f.Wikimedia)
	assert.False(t, f.ShoutHow)
}

func TestFind(t *testing.T) {
	p, ok := Find("operations")
	require.True(t, ok)
	assert.True(t, p.Flags.Operations)
	assert.True(t, p.Flags.Puppet)

	_, ok = Find("doesnotexist")
	assert.False(t, ok)
}
