package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-insight/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "insight",
		Usage:   "Technical analysis, backtesting and market commentary for A-share, futures and crypto bars",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("INSIGHT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error). Overrides the configuration",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
			backtestCommand(),
			downloadCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
