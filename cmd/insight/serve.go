package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-insight/internal/analysis"
	"github.com/rxtech-lab/argo-insight/internal/server"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the analysis HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address, overrides the configuration",
			},
			&cli.DurationFlag{
				Name:  "request-timeout",
				Usage: "Upper bound for one analysis request",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := s.provider(ctx, "")
	if err != nil {
		return err
	}

	st, err := s.store()
	if err != nil {
		return err
	}

	service := s.service(p, st, s.completer(false), analysis.WithStrictDates())

	addr := s.config.Server.ListenAddr
	if listen := cmd.String("listen"); listen != "" {
		addr = listen
	}

	srv := server.NewServer(service, st, server.Config{
		BaseURL:        s.config.Server.BaseURL,
		RequestTimeout: cmd.Duration("request-timeout"),
	}, server.NewMetrics(), s.logger)

	return srv.ListenAndServe(ctx, addr)
}
