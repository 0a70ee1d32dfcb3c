// Package daemon keeps the generated hound configurations fresh. It
// regenerates every profile on a schedule, reloads its own configuration
// file when it changes, and serves an admin surface with health, metrics,
// and run history.
package daemon

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/codesearch/internal/config"
	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/events"
	"git.home.luguber.info/inful/codesearch/internal/generate"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/metrics"
	"git.home.luguber.info/inful/codesearch/internal/publish"
	"git.home.luguber.info/inful/codesearch/internal/runlog"
	"git.home.luguber.info/inful/codesearch/internal/systemd"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
)

// Daemon owns the periodic generation loop and the admin HTTP server.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string

	scheduler gocron.Scheduler
	watcher   *ConfigWatcher
	admin     *http.Server

	registry  *prometheus.Registry
	recorder  metrics.Recorder
	store     *runlog.Store
	publisher *events.Publisher
	manager   *systemd.Manager

	startTime time.Time
}

// New creates a daemon from a loaded configuration. An empty configPath
// disables configuration reloading.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryDaemon, "creating scheduler")
	}

	store, err := runlog.NewStore(cfg.RunLogPath())
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryStorage, "opening run log").
			WithContext(logfields.KeyPath, cfg.RunLogPath())
	}

	publisher, err := events.NewPublisher(cfg.Daemon.NATS)
	if err != nil {
		_ = store.Close()
		return nil, cserrors.WrapError(err, cserrors.CategoryDaemon, "connecting to NATS")
	}

	registry := prometheus.NewRegistry()
	d := &Daemon{
		cfg:        cfg,
		configPath: configPath,
		scheduler:  scheduler,
		registry:   registry,
		recorder:   metrics.NewPrometheusRecorder(registry),
		store:      store,
		publisher:  publisher,
		manager:    systemd.NewManager(nil),
	}

	if configPath != "" {
		watcher, err := NewConfigWatcher(configPath, d)
		if err != nil {
			_ = store.Close()
			_ = publisher.Close()
			return nil, err
		}
		d.watcher = watcher
	}

	return d, nil
}

// Start boots the scheduler, the config watcher, and the admin server. It
// returns once everything is running; waiting is the caller's job.
func (d *Daemon) Start(ctx context.Context) error {
	d.startTime = time.Now()
	cfg := d.config()

	_, err := d.scheduler.NewJob(
		gocron.DurationJob(cfg.Daemon.GenerationInterval()),
		gocron.NewTask(d.runGeneration, ctx),
		gocron.WithName("generate"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return cserrors.WrapError(err, cserrors.CategoryDaemon, "scheduling generation job")
	}
	d.scheduler.Start()
	slog.Info("Generation scheduled", slog.Duration("interval", cfg.Daemon.GenerationInterval()))

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	d.startAdminServer(cfg.Daemon.AdminListen)
	return nil
}

// Stop shuts everything down in reverse start order.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error

	if d.admin != nil {
		if err := d.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("config watcher stop: %w", err))
		}
	}
	if err := d.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
	}
	if err := d.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event publisher close: %w", err))
	}
	if err := d.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("run log close: %w", err))
	}

	if len(errs) > 0 {
		return cserrors.WrapError(stderrors.Join(errs...), cserrors.CategoryDaemon, "daemon shutdown")
	}
	slog.Info("Daemon stopped")
	return nil
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Reload swaps in a new configuration. Host and endpoint changes take
// effect on the next generation run; listen address and interval changes
// need a daemon restart.
func (d *Daemon) Reload(ctx context.Context, cfg *config.Config) error {
	d.mu.Lock()
	previous := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if cfg.Daemon.AdminListen != previous.Daemon.AdminListen {
		slog.Warn("Admin listen address change requires a daemon restart")
	}
	if cfg.Daemon.GenerationInterval() != previous.Daemon.GenerationInterval() {
		slog.Warn("Generation interval change requires a daemon restart")
	}

	slog.Info("Configuration reloaded")
	return nil
}

// runGeneration performs one full generation run over all profiles. Each
// run gets a fresh upstream client so remote listings are fetched once per
// run and never leak across runs.
func (d *Daemon) runGeneration(ctx context.Context) {
	cfg := d.config()
	runID := uuid.NewString()
	started := time.Now()

	slog.Info("Starting generation run", logfields.RunID(runID))

	source := upstream.NewClient(cfg.Endpoints(), d.recorder)
	publisher := publish.NewPublisher(cfg.DataDir, d.manager, d.recorder)
	runner := generate.NewRunner(source, cfg.HoundHosts(), publisher, d.recorder)

	outcomes, err := runner.Run(ctx, nil, cfg.Daemon.RestartEnabled())
	if err != nil {
		slog.Error("Generation run finished with failures",
			logfields.RunID(runID),
			logfields.Error(err))
	} else {
		slog.Info("Generation run finished",
			logfields.RunID(runID),
			logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	}

	d.recordOutcomes(ctx, runID, started, outcomes)
}

// recordOutcomes writes one run log row and one event per profile. Failures
// here are logged, never fatal; the generated configs are already on disk.
func (d *Daemon) recordOutcomes(ctx context.Context, runID string, started time.Time, outcomes []generate.Outcome) {
	for _, out := range outcomes {
		outcome := runlog.OutcomeSuccess
		errText := ""
		if out.Err != nil {
			outcome = runlog.OutcomeFailed
			errText = out.Err.Error()
		}

		rec := runlog.Record{
			RunID:     runID,
			Profile:   out.Profile,
			StartedAt: started,
			Duration:  out.Duration,
			Outcome:   outcome,
			Repos:     out.Repos,
			Changed:   out.Changed,
			Restarted: out.Restarted,
			Error:     errText,
		}
		if err := d.store.Append(ctx, rec); err != nil {
			slog.Error("Failed to record run outcome",
				logfields.RunID(runID),
				logfields.Profile(out.Profile),
				logfields.Error(err))
		}

		event := &events.RunEvent{
			RunID:      runID,
			Profile:    out.Profile,
			Outcome:    outcome,
			Repos:      out.Repos,
			Changed:    out.Changed,
			Restarted:  out.Restarted,
			Error:      errText,
			DurationMS: out.Duration.Milliseconds(),
		}
		if err := d.publisher.PublishRun(event); err != nil {
			slog.Error("Failed to publish run event",
				logfields.RunID(runID),
				logfields.Profile(out.Profile),
				logfields.Error(err))
		}
	}
}
