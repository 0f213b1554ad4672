package backtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"go.uber.org/zap"
)

// RecordedFiles are the parquet files written for one result.
type RecordedFiles struct {
	Portfolio string
	Trades    string
}

// Recorder exports backtest results to parquet through an in-memory DuckDB.
type Recorder struct {
	outputDir string
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
}

// NewRecorder creates a recorder writing under outputDir.
func NewRecorder(outputDir string, log *logger.Logger) *Recorder {
	return &Recorder{
		outputDir: outputDir,
		logger:    log,
		sq:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Record writes <outputDir>/<name>/portfolio.parquet and trades.parquet.
func (r *Recorder) Record(name string, result Result) (RecordedFiles, error) {
	dir := filepath.Join(r.outputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return RecordedFiles{}, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create result directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return RecordedFiles{}, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to open DuckDB connection", err)
	}
	defer db.Close()

	if err := r.createTables(db); err != nil {
		return RecordedFiles{}, err
	}

	if err := r.insertPortfolio(db, result); err != nil {
		return RecordedFiles{}, err
	}

	if err := r.insertTrades(db, result); err != nil {
		return RecordedFiles{}, err
	}

	files := RecordedFiles{
		Portfolio: filepath.Join(dir, "portfolio.parquet"),
		Trades:    filepath.Join(dir, "trades.parquet"),
	}

	if err := exportToParquet(db, "portfolio", "date", files.Portfolio); err != nil {
		return RecordedFiles{}, err
	}

	if err := exportToParquet(db, "trades", "entry_time", files.Trades); err != nil {
		return RecordedFiles{}, err
	}

	r.logger.Debug("Recorded backtest result",
		zap.String("symbol", result.Symbol),
		zap.String("dir", dir),
		zap.Int("bars", len(result.Portfolio)),
		zap.Int("trades", len(result.Trades)),
	)

	return files, nil
}

func (r *Recorder) createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE portfolio (
			date TIMESTAMP,
			symbol TEXT,
			close DOUBLE,
			cash DOUBLE,
			shares_held BIGINT,
			position_value DOUBLE,
			total_asset DOUBLE,
			state TEXT,
			daily_return DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create portfolio table", err)
	}

	_, err = db.Exec(`
		CREATE TABLE trades (
			symbol TEXT,
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			shares BIGINT,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			exit_reason TEXT,
			pnl DOUBLE,
			trade_return DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create trades table", err)
	}

	return nil
}

func (r *Recorder) insertPortfolio(db *sql.DB, result Result) error {
	if len(result.Portfolio) == 0 {
		return nil
	}

	query := r.sq.Insert("portfolio").Columns(
		"date", "symbol", "close", "cash", "shares_held", "position_value", "total_asset", "state", "daily_return",
	)

	for _, p := range result.Portfolio {
		var dailyReturn sql.NullFloat64
		if v, err := p.DailyReturn.Take(); err == nil {
			dailyReturn = sql.NullFloat64{Float64: v, Valid: true}
		}

		query = query.Values(p.Time, result.Symbol, p.Close, p.Cash, p.SharesHeld, p.PositionValue,
			p.TotalAsset, string(p.State), dailyReturn)
	}

	if _, err := query.RunWith(db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert portfolio", err)
	}

	return nil
}

func (r *Recorder) insertTrades(db *sql.DB, result Result) error {
	if len(result.Trades) == 0 {
		return nil
	}

	query := r.sq.Insert("trades").Columns(
		"symbol", "entry_time", "entry_price", "shares", "exit_time", "exit_price", "exit_reason", "pnl", "trade_return",
	)

	for _, t := range result.Trades {
		var (
			exitTime  sql.NullTime
			exitPrice sql.NullFloat64
		)

		if v, err := t.ExitTime.Take(); err == nil {
			exitTime = sql.NullTime{Time: v, Valid: true}
		}

		if v, err := t.ExitPrice.Take(); err == nil {
			exitPrice = sql.NullFloat64{Float64: v, Valid: true}
		}

		query = query.Values(t.Symbol, t.EntryTime, t.EntryPrice, t.Shares, exitTime, exitPrice,
			string(t.ExitReason), t.PnL, t.Return)
	}

	if _, err := query.RunWith(db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert trades", err)
	}

	return nil
}

func exportToParquet(db *sql.DB, table, orderBy, path string) error {
	_, err := db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM %s ORDER BY %s ASC)
		TO '%s' (FORMAT PARQUET)
	`, table, orderBy, path))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to export %s to parquet", table)
	}

	return nil
}
