// Package generate orchestrates a full config generation run: build every
// profile, publish the results and restart units as needed.
//
// Profiles fail independently. A broken upstream listing takes down only the
// profiles that use it; everything else still gets a fresh config. The run
// as a whole reports failure when any profile failed.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/metrics"
	"git.home.luguber.info/inful/codesearch/internal/profile"
	"git.home.luguber.info/inful/codesearch/internal/publish"
)

// Runner executes generation runs against one source and publisher.
type Runner struct {
	source    profile.Source
	hosts     hound.Hosts
	publisher *publish.Publisher
	recorder  metrics.Recorder
}

// Outcome describes one profile's result within a run.
type Outcome struct {
	Profile   string
	Repos     int
	Changed   bool
	Restarted bool
	Duration  time.Duration
	Err       error
}

// NewRunner creates a Runner. A nil recorder disables metrics.
func NewRunner(source profile.Source, hosts hound.Hosts, publisher *publish.Publisher, recorder metrics.Recorder) *Runner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Runner{source: source, hosts: hosts, publisher: publisher, recorder: recorder}
}

// Run processes the given profiles in order, or every known profile when
// profiles is nil. The returned outcomes always cover the processed profiles
// in order.
func (r *Runner) Run(ctx context.Context, profiles []profile.Profile, restart bool) ([]Outcome, error) {
	if profiles == nil {
		profiles = profile.Profiles()
	}

	outcomes := make([]Outcome, 0, len(profiles))
	for _, prof := range profiles {
		if ctx.Err() != nil {
			return outcomes, cserrors.WrapError(ctx.Err(), cserrors.CategoryInternal, "generation interrupted")
		}
		outcomes = append(outcomes, r.runProfile(ctx, prof, restart))
	}
	return outcomes, aggregateError(outcomes)
}

func (r *Runner) runProfile(ctx context.Context, prof profile.Profile, restart bool) Outcome {
	start := time.Now()
	outcome := Outcome{Profile: prof.Name}

	conf, err := profile.Build(ctx, r.source, r.hosts, prof.Flags)
	if err == nil {
		outcome.Repos = len(conf.Repos)
		r.recorder.SetProfileRepos(prof.Name, outcome.Repos)

		var result publish.Result
		result, err = r.publisher.Publish(ctx, prof.Name, conf, restart)
		outcome.Changed = result.Changed
		outcome.Restarted = result.Restarted
	}
	outcome.Duration = time.Since(start)
	outcome.Err = err

	r.recorder.ObserveProfileDuration(prof.Name, outcome.Duration)
	if err != nil {
		r.recorder.IncProfileResult(prof.Name, metrics.ResultFailed)
		slog.Error("Profile generation failed", logfields.Profile(prof.Name), logfields.Error(err))
		return outcome
	}
	r.recorder.IncProfileResult(prof.Name, metrics.ResultSuccess)
	slog.Info("Profile generated",
		logfields.Profile(prof.Name),
		logfields.Repos(outcome.Repos),
		logfields.DurationMS(float64(outcome.Duration.Milliseconds())))
	return outcome
}

// aggregateError summarizes a run. The first failure's category carries
// through so the CLI exit code reflects what actually went wrong.
func aggregateError(outcomes []Outcome) error {
	var first error
	failures := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failures++
			if first == nil {
				first = o.Err
			}
		}
	}
	if failures == 0 {
		return nil
	}
	return cserrors.Wrap(first, cserrors.GetCategory(first), cserrors.SeverityError,
		fmt.Sprintf("%d of %d profiles failed", failures, len(outcomes)))
}
