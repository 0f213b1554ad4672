package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download bars from a provider into parquet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s, %s or %s)", provider.ProviderTushare, provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderTushare),
			},
			&cli.StringFlag{
				Name:     "download-config",
				Aliases:  []string{"dc"},
				Usage:    "Download configuration as JSON, or @path to read it from a file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
			&cli.BoolFlag{
				Name:  "merge",
				Usage: "Merge into one archive file per symbol and interval instead of one file per download",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	raw, err := readConfigArg(cmd.String("download-config"))
	if err != nil {
		return err
	}

	providerName := cmd.String("provider")

	downloadConfig, err := marketdata.ParseDownloadConfig(providerName, raw)
	if err != nil {
		return err
	}

	params, err := downloadConfig.ToDownloadParams()
	if err != nil {
		return err
	}

	clientConfig := downloadConfig.ToClientConfig(cmd.String("data"))
	if cmd.Bool("merge") {
		clientConfig.WriterType = marketdata.WriterArchive
	}

	var bar *progressbar.ProgressBar

	client, err := marketdata.NewClient(clientConfig, func(current, total float64, _ string) {
		if bar == nil {
			bar = progressbar.NewOptions64(int64(total),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("Writing "+params.Symbol),
				progressbar.OptionShowCount(),
			)
		}

		_ = bar.Set64(int64(current))
	}, s.logger)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Fprintln(cmd.Root().Writer)
	fmt.Fprintln(cmd.Root().Writer, TitleStyle.Render("Downloaded "+params.Symbol)+" "+HelpStyle.Render(path))

	return nil
}

// readConfigArg returns arg itself, or the file content when arg starts with @.
func readConfigArg(arg string) (string, error) {
	path, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return arg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read %s", path)
	}

	return string(data), nil
}
