package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the multiplayer room server"`
	Play     PlayCmd          `cmd:"" default:"withargs" help:"Play a local game against three bots"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot-only games and report outcomes"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("nomercy"),
		kong.Description("UNO-family card game engine with Classic and No Mercy rules"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
