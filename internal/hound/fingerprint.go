package hound

import "git.home.luguber.info/inful/codesearch/internal/util/sets"

// Fingerprint is the set of remote URLs in a config. Hound re-clones and
// re-indexes only when this set changes; renaming a display name while the
// URL stays the same is invisible to it, so a restart would be wasted.
type Fingerprint = sets.Set[string]

// URLSet extracts the fingerprint of a config. A nil config yields the
// empty set, which is what a missing previous file means.
func (c *Config) URLSet() Fingerprint {
	fp := sets.New[string]()
	if c == nil {
		return fp
	}
	for _, repo := range c.Repos {
		fp.Add(repo.URL)
	}
	return fp
}
