package systemd

import (
	"context"
	"errors"
	"strings"
	"testing"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
)

type fakeRunner struct {
	calls  [][]string
	stdout string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	return f.stdout, f.err
}

func TestStatus(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager(runner)

	if err := m.Status(context.Background(), "hound-search"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.calls) != 1 || strings.Join(runner.calls[0], " ") != "status hound-search" {
		t.Errorf("unexpected invocation: %v", runner.calls)
	}

	runner.err = errors.New("Unit hound-search.service could not be found.")
	if err := m.Status(context.Background(), "hound-search"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestRestart(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager(runner)

	if err := m.Restart(context.Background(), "hound-search"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(runner.calls[0], " ") != "restart hound-search" {
		t.Errorf("unexpected invocation: %v", runner.calls)
	}
}

func TestRestartFailureCategory(t *testing.T) {
	runner := &fakeRunner{err: errors.New("Job for hound-search.service failed")}
	m := NewManager(runner)

	err := m.Restart(context.Background(), "hound-search")
	if err == nil {
		t.Fatal("expected error")
	}
	if !cserrors.IsCategory(err, cserrors.CategoryRestart) {
		t.Errorf("expected restart category, got %v", cserrors.GetCategory(err))
	}
}

func TestShow(t *testing.T) {
	runner := &fakeRunner{stdout: "MainPID=1234\nActiveState=active\n"}
	m := NewManager(runner)

	values, err := m.Show(context.Background(), "hound-search", "MainPID", "ActiveState")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["MainPID"] != "1234" || values["ActiveState"] != "active" {
		t.Errorf("unexpected values: %v", values)
	}
	if got := strings.Join(runner.calls[0], " "); got != "show hound-search --property=MainPID,ActiveState" {
		t.Errorf("unexpected invocation: %s", got)
	}
}

func TestMainPID(t *testing.T) {
	runner := &fakeRunner{stdout: "MainPID=4321\n"}
	m := NewManager(runner)

	pid, err := m.MainPID(context.Background(), "hound-search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid != 4321 {
		t.Errorf("expected 4321, got %d", pid)
	}

	runner.stdout = "MainPID=0\n"
	pid, err = m.MainPID(context.Background(), "hound-search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid != 0 {
		t.Errorf("expected 0 for stopped unit, got %d", pid)
	}
}
