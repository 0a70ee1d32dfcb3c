package hound

import "fmt"

// Hosts holds the base locations of the repository hosts descriptors are
// generated for. Construct with DefaultHosts and override fields as needed;
// github.com, gitlab.com and bitbucket.org are fixed public hosts and not
// configurable.
type Hosts struct {
	// GerritReplica is the anonymous clone endpoint for the primary Gerrit
	// install, e.g. https://gerrit-replica.wikimedia.org/r.
	GerritReplica string
	// Gitiles is the web viewer used for url-pattern browse links,
	// e.g. https://gerrit.wikimedia.org/g.
	Gitiles string
	// Phabricator is the base of the Phabricator install whose diffusion
	// browser mirrors a few special repositories.
	Phabricator string
}

// DefaultHosts returns the canonical Wikimedia host bases.
func DefaultHosts() Hosts {
	return Hosts{
		GerritReplica: "https://gerrit-replica.wikimedia.org/r",
		Gitiles:       "https://gerrit.wikimedia.org/g",
		Phabricator:   "https://phabricator.wikimedia.org",
	}
}

// Gerrit builds a descriptor for a repository on the primary Gerrit install.
// Clones go through the replica to keep load off the main server; browse
// links go through gitiles.
func (h Hosts) Gerrit(name string) Repo {
	return Repo{
		URL: fmt.Sprintf("%s/%s.git", h.GerritReplica, name),
		URLPattern: &URLPattern{
			BaseURL: fmt.Sprintf("%s/%s/+/{rev}/{path}{anchor}", h.Gitiles, name),
			Anchor:  "#{line}",
		},
		PollMS: PollInterval,
	}
}

// GitHost builds a descriptor for a repository on a GitHub-style host.
// No url-pattern is emitted; hound derives browse links for these hosts on
// its own.
func (h Hosts) GitHost(host, name string) Repo {
	return Repo{
		URL:    fmt.Sprintf("https://%s/%s", host, name),
		PollMS: PollInterval,
	}
}

// GitHub builds a descriptor for a repository on github.com.
func (h Hosts) GitHub(name string) Repo {
	return h.GitHost("github.com", name)
}

// GitLab builds a descriptor for a repository on gitlab.com.
func (h Hosts) GitLab(name string) Repo {
	return h.GitHost("gitlab.com", name)
}

// Bitbucket builds a descriptor for a repository on bitbucket.org. The
// anchor is empty because bitbucket's line anchor syntax is
// #basename({path})-{line}, which hound cannot generate; links degrade to
// file level.
func (h Hosts) Bitbucket(name string) Repo {
	return Repo{
		URL: fmt.Sprintf("https://bitbucket.org/%s.git", name),
		URLPattern: &URLPattern{
			BaseURL: fmt.Sprintf("https://bitbucket.org/%s/src/{rev}/{path}", name),
			Anchor:  "",
		},
		PollMS: PollInterval,
	}
}

// Phab builds a descriptor for a repository served from Phabricator's
// diffusion browser.
func (h Hosts) Phab(name string) Repo {
	return Repo{
		URL: fmt.Sprintf("%s/source/%s", h.Phabricator, name),
		URLPattern: &URLPattern{
			BaseURL: fmt.Sprintf("%s/source/%s/browse/master/{path};{rev}{anchor}", h.Phabricator, name),
			Anchor:  "${line}",
		},
		PollMS: PollInterval,
	}
}
