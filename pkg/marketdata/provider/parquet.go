package provider

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// ParquetProvider reads bars from a parquet file in the layout written by
// writer.DuckDBWriter.
type ParquetProvider struct {
	path string
	sq   squirrel.StatementBuilderType
}

// NewParquetProvider creates a provider for path.
func NewParquetProvider(path string) (*ParquetProvider, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "parquet provider needs a file path")
	}

	return &ParquetProvider{
		path: path,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// FetchBars queries the file with an in-memory DuckDB connection.
func (p *ParquetProvider) FetchBars(ctx context.Context, req Request) ([]types.Bar, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", p.path)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}
	defer db.Close()

	query := p.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume", "amount", "open_interest", "settle").
		From(fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(p.path, "'", "''"))).
		OrderBy("time", "symbol")

	if req.Symbol != "" {
		query = query.Where(squirrel.Eq{"symbol": req.Symbol})
	}

	if !req.Start.IsZero() {
		query = query.Where(squirrel.GtOrEq{"time": startOfDay(req.Start)})
	}

	if !req.End.IsZero() {
		query = query.Where(squirrel.Lt{"time": startOfDay(req.End).AddDate(0, 0, 1)})
	}

	rows, err := query.RunWith(db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query %s", p.path)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var (
			bar                types.Bar
			amount, oi, settle sql.NullFloat64
		)

		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume,
			&amount, &oi, &settle); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan parquet row", err)
		}

		bar.Time = bar.Time.UTC()
		bar.Amount = nullable(amount)
		bar.OpenInterest = nullable(oi)
		bar.Settle = nullable(settle)
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read parquet rows", err)
	}

	bars = normalize(bars, req)
	if len(bars) == 0 {
		return nil, notFound(req)
	}

	return bars, nil
}

func nullable(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}

	return optional.Some(v.Float64)
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
