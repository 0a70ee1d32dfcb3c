package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/codesearch/internal/waiter"
)

// WaitCmd implements the 'wait' command. It blocks until no hound instance
// reports that it is still starting up, which makes it usable as a systemd
// ExecStartPost step.
type WaitCmd struct {
	URL  string `help:"Health endpoint to poll (defaults to the local proxy)"`
	Name string `help:"Instance name used in log lines (defaults to $HOUND_NAME)"`
}

func (w *WaitCmd) Run(_ *Global, _ *CLI) error {
	url := w.URL
	if url == "" {
		url = waiter.DefaultHealthURL
	}
	name := w.Name
	if name == "" {
		name = os.Getenv("HOUND_NAME")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return waiter.New(url, name).Wait(ctx)
}
