package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/codesearch/internal/config"
	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/generate"
	"git.home.luguber.info/inful/codesearch/internal/profile"
	"git.home.luguber.info/inful/codesearch/internal/publish"
	"git.home.luguber.info/inful/codesearch/internal/systemd"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Restart  bool     `help:"Restart hound instances whose repository set changed"`
	Profiles []string `arg:"" optional:"" help:"Profiles to generate (default: all)"`
}

func (g *GenerateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	profiles, err := resolveProfiles(g.Profiles)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source := upstream.NewClient(cfg.Endpoints(), nil)
	publisher := publish.NewPublisher(cfg.DataDir, systemd.NewManager(nil), nil)
	runner := generate.NewRunner(source, cfg.HoundHosts(), publisher, nil)

	_, err = runner.Run(ctx, profiles, g.Restart)
	return err
}

// resolveProfiles maps names to profiles, nil meaning all of them.
func resolveProfiles(names []string) ([]profile.Profile, error) {
	if len(names) == 0 {
		return nil, nil
	}

	profiles := make([]profile.Profile, 0, len(names))
	for _, name := range names {
		prof, ok := profile.Find(name)
		if !ok {
			return nil, cserrors.New(cserrors.CategoryValidation, cserrors.SeverityError,
				fmt.Sprintf("unknown profile %q (known: %s)", name, strings.Join(profile.Names(), ", ")))
		}
		profiles = append(profiles, prof)
	}
	return profiles, nil
}
