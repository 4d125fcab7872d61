package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Relay   RelayCmd         `cmd:"" help:"Run the relay that rooms live on"`
	Host    HostCmd          `cmd:"" help:"Create a room and host a game"`
	Join    JoinCmd          `cmd:"" help:"Join a room as an interactive player"`
	Bot     BotCmd           `cmd:"" help:"Join a room as a built-in bot"`
	Demo    DemoCmd          `cmd:"" help:"Play a full bot game against an in-process relay"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hautemonde"),
		kong.Description("Status auction card game played over a websocket relay"),
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
