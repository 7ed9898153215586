package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/refgen/cmd/refgen/commands"
	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
	"git.home.luguber.info/inful/refgen/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("refgen"),
		kong.Description("Generate Markdown API reference pages from tagged Python repositories."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Out: os.Stdout}
	err := parser.Run(global, cli)
	os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, nil).Handle(err))
}
