package main

import (
	"context"
	"os"

	"github.com/dukex/leadflow/pkg/cmd"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "leadflow-worker",
		Usage:                 "Advance leads through their flows",
		EnableShellCompletion: true,
		Flags:                 cmd.Flags(),
		Commands: []*cli.Command{
			NewRunCommand(),
			NewProcessCommand(),
			NewValidateCommand(),
			NewEventsCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
