package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// BollingerBands represents the Bollinger Bands indicator (MIDA/UPPERA/LOWERA).
type BollingerBands struct {
	period     int
	stdDevMult float64
}

// BandsResult holds the aligned band columns.
type BandsResult struct {
	Middle types.Series
	Upper  types.Series
	Lower  types.Series
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() *BollingerBands {
	return &BollingerBands{
		period:     20,
		stdDevMult: 2,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator.
// Expected parameters: period (int), optional stdDevMultiplier (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if err := expectParams(bb.Name(), params, 1, 2); err != nil {
		return err
	}

	period, err := periodParam("period", params[0])
	if err != nil {
		return err
	}

	if period < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be at least 2 for a sample deviation, got %d", period)
	}

	mult := bb.stdDevMult

	if len(params) == 2 {
		mult, err = floatParam("stdDevMultiplier", params[1])
		if err != nil {
			return err
		}

		if mult <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "stdDevMultiplier must be positive, got %v", mult)
		}
	}

	bb.period = period
	bb.stdDevMult = mult

	return nil
}

func (bb *BollingerBands) Lookback() int {
	return bb.period - 1
}

// Compute calculates the bands with a sample (n-1) standard deviation.
func (bb *BollingerBands) Compute(prices types.Series) BandsResult {
	middle := SMA(prices, bb.period)
	std := RollingStd(prices, bb.period)

	upper := Combine(middle, std, func(m, s float64) (float64, bool) { return m + bb.stdDevMult*s, true })
	lower := Combine(middle, std, func(m, s float64) (float64, bool) { return m - bb.stdDevMult*s, true })

	return BandsResult{Middle: middle, Upper: upper, Lower: lower}
}

func (bb *BollingerBands) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	r := bb.Compute(closes(bars))
	for i := range rows {
		rows[i].MIDA = r.Middle[i]
		rows[i].UPPERA = r.Upper[i]
		rows[i].LOWERA = r.Lower[i]
	}
}
