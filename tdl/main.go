package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/tdledger/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	cmd.LoadEnv()
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
