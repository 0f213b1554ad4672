package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rxtech-lab/argo-insight/internal/backtest"
	"github.com/rxtech-lab/argo-insight/internal/version"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the JSON schema of the backtest settings or of a provider's download configuration",
		ArgsUsage: "[backtest | download]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Provider whose download configuration to describe",
			},
			&cli.StringFlag{
				Name:  "sample",
				Usage: "Also write a sample backtest YAML to this path when it does not exist",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	switch target := cmd.Args().First(); target {
	case "", "backtest":
		schema, err := backtest.GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Fprintln(w, schema)

		if path := cmd.String("sample"); path != "" {
			return writeSampleConfig(path)
		}

		return nil
	case "download":
		name := cmd.String("provider")
		if name == "" {
			fmt.Fprintln(w, TitleStyle.Render("Providers"))

			for _, p := range marketdata.GetSupportedProviders() {
				info, _ := marketdata.GetProviderInfo(p)
				fmt.Fprintf(w, "  %-8s %s\n", info.Name, HelpStyle.Render(info.Description))
			}

			return nil
		}

		schema, err := marketdata.GetDownloadConfigSchema(name)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, schema)

		if fields, err := marketdata.GetDownloadKeychainFields(name); err == nil && len(fields) > 0 {
			fmt.Fprintln(w, HelpStyle.Render("Secret fields: "+strings.Join(fields, ", ")))
		}

		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown schema target %q", target)
	}
}

// writeSampleConfig writes the default backtest settings with a schema hint
// for YAML language servers.
func writeSampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(backtest.DefaultConfig())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal sample config", err)
	}

	data = append([]byte("# yaml-language-server: $schema=backtest-config.json\n"), data...)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to write %s", path)
	}

	return nil
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return nil
		},
	}
}
