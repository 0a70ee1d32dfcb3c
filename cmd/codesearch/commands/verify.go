package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/codesearch/internal/config"
	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/profile"
	"git.home.luguber.info/inful/codesearch/internal/upstream"
	"git.home.luguber.info/inful/codesearch/internal/verify"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Profile string `arg:"" optional:"" default:"search" help:"Profile whose repositories to check"`
	Workers int    `help:"Concurrent probes" default:"8"`
}

func (v *VerifyCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	profiles, err := resolveProfiles([]string{v.Profile})
	if err != nil {
		return err
	}
	prof := profiles[0]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source := upstream.NewClient(cfg.Endpoints(), nil)
	conf, err := profile.Build(ctx, source, cfg.HoundHosts(), prof.Flags)
	if err != nil {
		return err
	}

	verifier := verify.NewVerifier()
	if v.Workers > 0 {
		verifier.Workers = v.Workers
	}

	failures := verifier.Check(ctx, conf)
	for _, failure := range failures {
		fmt.Fprintf(os.Stderr, "%s: %s: %v\n", failure.Name, failure.URL, failure.Err)
	}
	if len(failures) > 0 {
		return cserrors.New(cserrors.CategoryListing, cserrors.SeverityError,
			fmt.Sprintf("%d of %d repositories unreachable", len(failures), len(conf.Repos)))
	}

	fmt.Printf("all %d repositories reachable\n", len(conf.Repos))
	return nil
}
