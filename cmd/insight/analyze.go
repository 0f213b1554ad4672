package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rxtech-lab/argo-insight/internal/analysis"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

// rangeFlags are shared by analyze and backtest.
func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "symbol",
			Aliases:  []string{"s"},
			Usage:    "Symbol to process, repeat for several",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "data-type",
			Aliases: []string{"t"},
			Usage:   "Instrument class: stock, futures, index or crypto",
			Value:   string(types.DataTypeStock),
		},
		&cli.StringFlag{
			Name:  "start",
			Usage: "Start date in `YYYY-MM-DD` format. Defaults to one year before the end",
		},
		&cli.StringFlag{
			Name:  "end",
			Usage: "End date in `YYYY-MM-DD` format. Defaults to today",
		},
		&cli.StringFlag{
			Name:  "interval",
			Usage: "Bar size (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w, 1M)",
		},
	}
}

// requestsFromFlags builds one request per --symbol.
func requestsFromFlags(cmd *cli.Command, now time.Time) []analysis.Request {
	end := cmd.String("end")
	if end == "" {
		end = now.Format(types.DateLayout)
	}

	start := cmd.String("start")
	if start == "" {
		if t, err := time.Parse(types.DateLayout, end); err == nil {
			start = t.AddDate(-1, 0, 0).Format(types.DateLayout)
		}
	}

	symbols := cmd.StringSlice("symbol")
	reqs := make([]analysis.Request, len(symbols))

	for i, symbol := range symbols {
		reqs[i] = analysis.Request{
			Symbol:    symbol,
			DataType:  types.DataType(cmd.String("data-type")),
			StartDate: start,
			EndDate:   end,
			Interval:  provider.Interval(cmd.String("interval")),
		}
	}

	return reqs
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Compute indicators, backtest and write the commentary for one or more symbols",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read bars from a csv or parquet file instead of the configured provider",
			},
			&cli.BoolFlag{
				Name:  "no-llm",
				Usage: "Keep the template commentary even when a completion endpoint is configured",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Print the analyses without writing them to the output directory",
			},
		),
		Action: analyzeAction,
	}
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.provider(ctx, cmd.String("file"))
	if err != nil {
		return err
	}

	var service *analysis.Service

	if cmd.Bool("no-save") {
		service = s.service(p, nil, s.completer(cmd.Bool("no-llm")))
	} else {
		st, err := s.store()
		if err != nil {
			return err
		}

		service = s.service(p, st, s.completer(cmd.Bool("no-llm")))
	}

	results, err := service.AnalyzeBatch(ctx, requestsFromFlags(cmd, time.Now()))
	if err != nil {
		return err
	}

	for _, result := range results {
		printAnalysis(cmd.Root().Writer, result)
	}

	return nil
}

func printAnalysis(w io.Writer, result analysis.Result) {
	a := result.Analysis
	report := a.Report

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s  %s to %s", a.Symbol, a.StartDate, a.EndDate)))
	fmt.Fprintln(w, Box(a.Analysis))
	fmt.Fprintf(w, "Return %s  Max drawdown %.2f%%  Sharpe %.2f  Trades %d\n",
		FormatReturn(report.TotalReturn), report.MaxDrawdown*100, report.SharpeRatio, report.NumberOfTrades)

	if result.Location != "" {
		fmt.Fprintln(w, HelpStyle.Render("Saved to "+result.Location))
	}

	fmt.Fprintln(w)
}
