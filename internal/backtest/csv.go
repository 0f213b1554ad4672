package backtest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// WriteCSV writes one row per bar with prices, every indicator column, the
// signals and the portfolio state. Undefined values are left empty.
func WriteCSV(w io.Writer, series types.EnrichedSeries, result Result) error {
	if len(result.Portfolio) != series.Len() {
		return errors.Newf(errors.ErrCodeMalformedInput,
			"portfolio has %d rows but series has %d bars", len(result.Portfolio), series.Len())
	}

	out := csv.NewWriter(w)

	header := []string{"date", "open", "high", "low", "close", "volume"}
	for _, c := range (types.IndicatorSet{}).Columns() {
		header = append(header, c.Name)
	}

	header = append(header, "buy_signal", "sell_signal",
		"cash", "shares_held", "position_value", "total_asset", "state", "daily_return")

	if err := out.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write csv header", err)
	}

	for i, bar := range series.Bars {
		row := series.Rows[i]
		p := result.Portfolio[i]

		record := []string{
			bar.Date(),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
		}

		for _, c := range row.Columns() {
			record = append(record, formatOptional(c.Value))
		}

		record = append(record,
			strconv.Itoa(row.BuySignal),
			strconv.Itoa(row.SellSignal),
			formatFloat(p.Cash),
			strconv.FormatInt(p.SharesHeld, 10),
			formatFloat(p.PositionValue),
			formatFloat(p.TotalAsset),
			string(p.State),
			formatOptional(p.DailyReturn),
		)

		if err := out.Write(record); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write csv row %d", i)
		}
	}

	out.Flush()

	if err := out.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to flush csv", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(o optional.Option[float64]) string {
	if v, err := o.Take(); err == nil {
		return formatFloat(v)
	}

	return ""
}
