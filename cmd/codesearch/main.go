package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codesearch/cmd/codesearch/commands"
	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("codesearch"),
		kong.Description("Generate and serve hound configuration for MediaWiki code search"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{}, cli)
	cserrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
