package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-insight/mocks"
	"github.com/stretchr/testify/suite"
	"github.com/urfave/cli/v3"
)

type CLITestSuite struct {
	suite.Suite
	dir string
	csv string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	for _, key := range []string{"API_URL", "REDIS_ADDR", "OUTPUT_DIR", "SQLITE_PATH", "LOG_LEVEL", "INSIGHT_CONFIG", "MAX_WORKERS"} {
		suite.T().Setenv(key, "")
	}

	var b strings.Builder

	b.WriteString("date,open,high,low,close,volume\n")

	for _, bar := range mocks.GenerateTrend("600000.SH", 60, 0.2) {
		fmt.Fprintf(&b, "%s,%g,%g,%g,%g,%g\n", bar.Date(), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	suite.csv = filepath.Join(suite.dir, "bars.csv")
	suite.Require().NoError(os.WriteFile(suite.csv, []byte(b.String()), 0644))
}

func (suite *CLITestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out

	err := app.Run(context.Background(), append([]string{"insight", "--log-level", "error"}, args...))

	return out.String(), err
}

func (suite *CLITestSuite) TestVersion() {
	out, err := suite.run("version")
	suite.Require().NoError(err)
	suite.Contains(out, "v")
}

func (suite *CLITestSuite) TestSchema() {
	sample := filepath.Join(suite.dir, "backtest.yaml")

	out, err := suite.run("schema", "--sample", sample, "backtest")
	suite.Require().NoError(err)
	suite.Contains(out, "initial_capital")

	data, err := os.ReadFile(sample)
	suite.Require().NoError(err)
	suite.Contains(string(data), "position_ratio: 0.3")

	out, err = suite.run("schema", "download")
	suite.Require().NoError(err)
	suite.Contains(out, "tushare")
	suite.Contains(out, "binance")

	out, err = suite.run("schema", "--provider", "tushare", "download")
	suite.Require().NoError(err)
	suite.Contains(out, "token")

	_, err = suite.run("schema", "strategy")
	suite.Error(err)
}

func (suite *CLITestSuite) TestBacktestFromCSV() {
	out, err := suite.run("backtest",
		"--csv", suite.csv,
		"--symbol", "600000",
		"--start", "2024-01-01",
		"--end", "2024-03-31",
		"--output", suite.dir,
		"--export-csv",
		"--record",
	)
	suite.Require().NoError(err)
	suite.Contains(out, "Backtest results")
	suite.Contains(out, "600000.SH")

	exported, err := os.ReadFile(filepath.Join(suite.dir, "600000.SH.csv"))
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(exported)), "\n")
	suite.Len(lines, 61)
	suite.True(strings.HasPrefix(lines[0], "date,open,high,low,close,volume"))

	_, err = os.Stat(filepath.Join(suite.dir, "600000.SH", "portfolio.parquet"))
	suite.NoError(err)
}

func (suite *CLITestSuite) TestBacktestRejectsTwoFiles() {
	_, err := suite.run("backtest", "--csv", suite.csv, "--parquet", "bars.parquet", "--symbol", "600000")
	suite.Error(err)
}

func (suite *CLITestSuite) TestAnalyzeFromCSV() {
	out, err := suite.run("analyze",
		"--file", suite.csv,
		"--symbol", "600000.SH",
		"--start", "2024-01-01",
		"--end", "2024-03-31",
		"--no-save",
	)
	suite.Require().NoError(err)
	suite.Contains(out, "600000.SH")
	suite.Contains(out, "Return")
	suite.NotContains(out, "Saved to")
}

func (suite *CLITestSuite) TestAnalyzeSavesToOutputDir() {
	suite.T().Setenv("OUTPUT_DIR", suite.dir)

	out, err := suite.run("analyze", "--file", suite.csv, "--symbol", "600000", "--start", "2024-01-01", "--end", "2024-03-31")
	suite.Require().NoError(err)
	suite.Contains(out, "Saved to")

	_, err = os.Stat(filepath.Join(suite.dir, "600000.SH_2024-01-01_2024-03-31_analysis.json"))
	suite.NoError(err)
}

func (suite *CLITestSuite) TestRequestsFromFlagsDefaults() {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	app := newApp()
	app.Writer = &bytes.Buffer{}

	var captured []string

	for _, cmd := range app.Commands {
		if cmd.Name == "analyze" {
			cmd.Action = func(_ context.Context, c *cli.Command) error {
				for _, req := range requestsFromFlags(c, now) {
					captured = append(captured, req.Symbol+" "+req.StartDate+" "+req.EndDate)
				}

				return nil
			}
		}
	}

	err := app.Run(context.Background(), []string{"insight", "analyze", "--symbol", "600000", "--symbol", "000001"})
	suite.Require().NoError(err)
	suite.Equal([]string{"600000 2023-06-15 2024-06-15", "000001 2023-06-15 2024-06-15"}, captured)
}

func (suite *CLITestSuite) TestReadConfigArg() {
	raw, err := readConfigArg(`{"symbol":"600000"}`)
	suite.NoError(err)
	suite.Equal(`{"symbol":"600000"}`, raw)

	path := filepath.Join(suite.dir, "download.json")
	suite.Require().NoError(os.WriteFile(path, []byte(`{"symbol":"IF2406"}`), 0644))

	raw, err = readConfigArg("@" + path)
	suite.NoError(err)
	suite.Equal(`{"symbol":"IF2406"}`, raw)

	_, err = readConfigArg("@" + filepath.Join(suite.dir, "missing.json"))
	suite.Error(err)
}

func (suite *CLITestSuite) TestDownloadRejectsBadConfig() {
	_, err := suite.run("download", "--provider", "binance", "--download-config", `{"symbol":"BTCUSDT"}`, "--data", suite.dir)
	suite.Error(err)
}
