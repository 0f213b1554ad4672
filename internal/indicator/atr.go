package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// ATRResult holds the true range and its average.
type ATRResult struct {
	TR  types.Series
	ATR types.Series
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() *ATR {
	return &ATR{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	if err := expectParams(a.Name(), params, 1, 1); err != nil {
		return err
	}

	period, err := periodParam("period", params[0])
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

func (a *ATR) Lookback() int {
	return a.period - 1
}

// Compute calculates the true range and its simple average.
func (a *ATR) Compute(bars []types.Bar) ATRResult {
	tr := TrueRange(bars)

	return ATRResult{TR: tr, ATR: SMA(tr, a.period)}
}

func (a *ATR) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	r := a.Compute(bars)
	for i := range rows {
		rows[i].TR = r.TR[i]
		rows[i].ATR = r.ATR[i]
	}
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|). The first bar
// has no previous close and uses high-low alone.
func TrueRange(bars []types.Bar) types.Series {
	out := types.NewSeries(len(bars))

	for i, b := range bars {
		tr := b.High - b.Low

		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
		}

		out[i] = optional.Some(tr)
	}

	return out
}
