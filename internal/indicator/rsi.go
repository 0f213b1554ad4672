package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-insight/internal/types"
)

// RSI represents the Relative Strength Index indicator.
//
// Average gain and loss are simple means over the period. When the average
// loss is zero the value is 100 if there was any gain and 50 when the window
// had no movement at all.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() *RSI {
	return &RSI{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if err := expectParams(r.Name(), params, 1, 1); err != nil {
		return err
	}

	period, err := periodParam("period", params[0])
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Lookback counts the first bar, which has no price change.
func (r *RSI) Lookback() int {
	return r.period
}

// Compute calculates RSI over the close series.
func (r *RSI) Compute(prices types.Series) types.Series {
	delta := Diff(prices)
	avgGain := SMA(Map(delta, func(d float64) float64 { return math.Max(d, 0) }), r.period)
	avgLoss := SMA(Map(delta, func(d float64) float64 { return math.Max(-d, 0) }), r.period)

	return Combine(avgGain, avgLoss, rsiValue)
}

func rsiValue(gain, loss float64) (float64, bool) {
	if loss == 0 {
		if gain == 0 {
			return 50, true
		}

		return 100, true
	}

	rs := gain / loss

	return 100 - 100/(1+rs), true
}

func (r *RSI) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	values := r.Compute(closes(bars))
	for i := range rows {
		rows[i].RSI = values[i]
	}
}
