// Package systemd shells out to systemctl for managing hound units.
package systemd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
)

// Runner executes a systemctl invocation and returns its stdout. Tests
// substitute a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "systemctl", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return stdout.String(), fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return stdout.String(), nil
}

// Manager wraps the systemctl operations the generator and proxy need.
type Manager struct {
	runner Runner
}

// NewManager creates a Manager. A nil runner uses the real systemctl binary.
func NewManager(runner Runner) *Manager {
	if runner == nil {
		runner = execRunner{}
	}
	return &Manager{runner: runner}
}

// Status reports whether the unit is installed and running. Any non-zero
// exit comes back as an error; callers treat that as "unit not set up yet".
func (m *Manager) Status(ctx context.Context, unit string) error {
	_, err := m.runner.Run(ctx, "status", unit)
	return err
}

// Restart restarts the unit.
func (m *Manager) Restart(ctx context.Context, unit string) error {
	if _, err := m.runner.Run(ctx, "restart", unit); err != nil {
		return cserrors.WrapError(err, cserrors.CategoryRestart, "restarting unit").
			WithContext(logfields.KeyUnit, unit)
	}
	return nil
}

// Show returns the requested unit properties as a key/value map.
func (m *Manager) Show(ctx context.Context, unit string, properties ...string) (map[string]string, error) {
	args := []string{"show", unit}
	if len(properties) > 0 {
		args = append(args, "--property="+strings.Join(properties, ","))
	}
	out, err := m.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[key] = value
	}
	return values, nil
}

// MainPID returns the unit's main process ID, or 0 when it is not running.
func (m *Manager) MainPID(ctx context.Context, unit string) (int, error) {
	values, err := m.Show(ctx, unit, "MainPID")
	if err != nil {
		return 0, err
	}
	raw, ok := values["MainPID"]
	if !ok {
		return 0, nil
	}
	pid, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("unexpected MainPID value %q: %w", raw, err)
	}
	return pid, nil
}
