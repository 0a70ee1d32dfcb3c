// Package publish writes generated hound configs to disk and restarts the
// matching systemd units when the repository set changed.
package publish

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/hound"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/metrics"
	"git.home.luguber.info/inful/codesearch/internal/systemd"
)

// Publisher owns the hound data directory and the unit lifecycle around
// config replacement.
type Publisher struct {
	dataDir  string
	manager  *systemd.Manager
	recorder metrics.Recorder
}

// Result reports what publishing one profile did.
type Result struct {
	Path      string
	Changed   bool
	Restarted bool
}

// NewPublisher creates a Publisher rooted at dataDir. A nil recorder
// disables metrics.
func NewPublisher(dataDir string, manager *systemd.Manager, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Publisher{dataDir: dataDir, manager: manager, recorder: recorder}
}

// UnitName returns the systemd unit (and directory name) for a profile.
func UnitName(profile string) string {
	return "hound-" + profile
}

// Publish writes the profile's config.json and, when restart is set,
// restarts its unit if the repository set changed. The config is always
// written even when nothing changed, in case display names or patterns
// moved.
func (p *Publisher) Publish(ctx context.Context, profile string, conf *hound.Config, restart bool) (Result, error) {
	unit := UnitName(profile)
	dir := filepath.Join(p.dataDir, unit)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, cserrors.WrapError(err, cserrors.CategoryStorage, "creating instance directory").
			WithContext(logfields.KeyPath, dir)
	}
	dest := filepath.Join(dir, "config.json")

	// Fingerprint the previous config before overwriting it.
	oldSet := p.previousURLs(dest)

	data, err := conf.Marshal()
	if err != nil {
		return Result{}, err
	}
	slog.Info("Writing config", logfields.Profile(profile), logfields.Path(dest), logfields.Repos(len(conf.Repos)))
	tmpPath := dest + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return Result{}, cserrors.WrapError(err, cserrors.CategoryStorage, "writing config").
			WithContext(logfields.KeyPath, dest)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return Result{}, cserrors.WrapError(err, cserrors.CategoryStorage, "replacing config").
			WithContext(logfields.KeyPath, dest)
	}

	result := Result{Path: dest, Changed: !conf.URLSet().Equal(oldSet)}
	if !restart {
		return result, nil
	}
	if !result.Changed {
		slog.Info("Repository set unchanged, skipping restart", logfields.Profile(profile), logfields.Unit(unit))
		p.recorder.IncRestart(unit, metrics.ResultSkipped)
		return result, nil
	}
	if err := p.manager.Status(ctx, unit); err != nil {
		slog.Info("Unit not in systemd yet, skipping restart", logfields.Unit(unit))
		p.recorder.IncRestart(unit, metrics.ResultSkipped)
		return result, nil
	}
	slog.Info("Restarting unit", logfields.Unit(unit))
	if err := p.manager.Restart(ctx, unit); err != nil {
		p.recorder.IncRestart(unit, metrics.ResultFailed)
		return result, err
	}
	p.recorder.IncRestart(unit, metrics.ResultSuccess)
	result.Restarted = true
	return result, nil
}

// previousURLs fingerprints the config currently on disk. A missing file is
// the normal first-run case; an unreadable one is treated as new so the
// fresh write can repair it.
func (p *Publisher) previousURLs(dest string) hound.Fingerprint {
	previous, err := hound.LoadFile(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Previous config unreadable, treating as new", logfields.Path(dest), logfields.Error(err))
		}
		previous = nil
	}
	return previous.URLSet()
}
