package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/codesearch/internal/config"
	"git.home.luguber.info/inful/codesearch/internal/proxy"
	"git.home.luguber.info/inful/codesearch/internal/systemd"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Listen string `short:"l" help:"Address to listen on (overrides config)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Listen != "" {
		cfg.Proxy.Listen = s.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := proxy.NewServer(cfg.Proxy, systemd.NewManager(nil), nil)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}
