package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/backtest"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run the signal strategy over one or more symbols",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Read bars from a csv file",
			},
			&cli.StringFlag{
				Name:  "parquet",
				Usage: "Read bars from a parquet file",
			},
			&cli.StringFlag{
				Name:  "backtest-config",
				Usage: "YAML file with the simulator settings",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for the exported results. Defaults to the configured output directory",
			},
			&cli.BoolFlag{
				Name:  "export-csv",
				Usage: "Write the enriched series and portfolio as <symbol>.csv",
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Write portfolio and trades as parquet",
			},
		),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	file := cmd.String("csv")
	if path := cmd.String("parquet"); path != "" {
		if file != "" {
			return errors.New(errors.ErrCodeInvalidParameter, "--csv and --parquet are mutually exclusive")
		}

		file = path
	}

	cfg := s.config.Backtest
	if path := cmd.String("backtest-config"); path != "" {
		if cfg, err = backtest.LoadConfig(path); err != nil {
			return err
		}
	}

	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = s.config.Storage.OutputDir
	}

	p, err := s.provider(ctx, file)
	if err != nil {
		return err
	}

	service := s.service(p, nil, nil)
	recorder := backtest.NewRecorder(outputDir, s.logger)
	reqs := requestsFromFlags(cmd, time.Now())
	w := cmd.Root().Writer

	bar := progressbar.NewOptions(len(reqs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Backtesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	summaries := make([]string, 0, len(reqs))

	for _, req := range reqs {
		req.Backtest = optional.Some(cfg)

		series, run, err := service.Backtest(ctx, req)
		if err != nil {
			return errors.Wrapf(errors.GetCode(err), err, "backtest of %s failed", req.Symbol)
		}

		if cmd.Bool("export-csv") {
			if err := exportCSV(filepath.Join(outputDir, run.Symbol+".csv"), series, run); err != nil {
				return err
			}
		}

		if cmd.Bool("record") {
			files, err := recorder.Record(run.Symbol, run)
			if err != nil {
				return err
			}

			s.logger.Debug("Recorded backtest", zap.String("portfolio", files.Portfolio), zap.String("trades", files.Trades))
		}

		report := run.Report
		summaries = append(summaries, fmt.Sprintf("%-14s return %s  max drawdown %.2f%%  sharpe %.2f  win rate %.0f%%  trades %d  final %.2f",
			run.Symbol, FormatReturn(report.TotalReturn), report.MaxDrawdown*100, report.SharpeRatio,
			report.WinRate*100, report.NumberOfTrades, report.FinalAsset))

		_ = bar.Add(1)
	}

	_ = bar.Finish()

	fmt.Fprintln(w, TitleStyle.Render("Backtest results"))

	for _, line := range summaries {
		fmt.Fprintln(w, line)
	}

	return nil
}

func exportCSV(path string, series types.EnrichedSeries, run backtest.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create output directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", path)
	}
	defer f.Close()

	return backtest.WriteCSV(f, series, run)
}
