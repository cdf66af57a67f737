package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/streamsite/cmd/streamsite/commands"
	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("streamsite"),
		kong.Description("Static site generator for stream archives and music listings."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := parser.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
