// Package verify probes every repository URL in a generated configuration
// by listing its remote references, the same check `git ls-remote` makes.
// It catches typo'd adapters and dead manifest entries before hound trips
// over them.
package verify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"

	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/util/sets"
)

const (
	defaultWorkers = 8
	defaultTimeout = 30 * time.Second
)

// Lister enumerates a remote's references. Tests substitute a fake.
type Lister interface {
	List(ctx context.Context, url string) error
}

type gitLister struct{}

func (gitLister) List(ctx context.Context, rawURL string) error {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{rawURL},
	})
	_, err := remote.ListContext(ctx, &git.ListOptions{})
	return err
}

// Failure is one unreachable repository.
type Failure struct {
	Name string
	URL  string
	Err  error
}

// Verifier checks repository reachability with bounded concurrency.
type Verifier struct {
	lister  Lister
	Workers int
	Timeout time.Duration
}

// NewVerifier creates a Verifier backed by real git remotes.
func NewVerifier() *Verifier {
	return &Verifier{
		lister:  gitLister{},
		Workers: defaultWorkers,
		Timeout: defaultTimeout,
	}
}

// Check probes every repository in the configuration and returns the
// unreachable ones sorted by display name. Repositories sharing a URL are
// probed once.
func (v *Verifier) Check(ctx context.Context, conf *hound.Config) []Failure {
	type job struct {
		name string
		url  string
	}

	names := make([]string, 0, len(conf.Repos))
	for name := range conf.Repos {
		names = append(names, name)
	}
	sort.Strings(names)

	jobs := make(chan job)
	var mu sync.Mutex
	var failures []Failure

	var wg sync.WaitGroup
	for range v.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := v.probe(ctx, j.url); err != nil {
					mu.Lock()
					failures = append(failures, Failure{Name: j.name, URL: j.url, Err: err})
					mu.Unlock()
				}
			}
		}()
	}

	seen := sets.New[string]()
submit:
	for _, name := range names {
		url := conf.Repos[name].URL
		if seen.Has(url) {
			continue
		}
		seen.Add(url)
		select {
		case <-ctx.Done():
			break submit
		case jobs <- job{name: name, url: url}:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Name < failures[j].Name })
	return failures
}

func (v *Verifier) probe(ctx context.Context, url string) error {
	probeCtx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	start := time.Now()
	if err := v.lister.List(probeCtx, url); err != nil {
		slog.Debug("Repository unreachable", logfields.URL(url), logfields.Error(err))
		return err
	}
	slog.Debug("Repository reachable",
		logfields.URL(url),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}
