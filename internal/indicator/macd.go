package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// MACDResult holds the aligned MACD columns.
type MACDResult struct {
	FastEMA types.Series
	SlowEMA types.Series
	DIF     types.Series
	DEA     types.Series
	// Histogram is 2*(DIF-DEA), the bar column of Chinese charting packages.
	Histogram types.Series
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() *MACD {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator. Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if err := expectParams(m.Name(), params, 3, 3); err != nil {
		return err
	}

	fastPeriod, err := periodParam("fastPeriod", params[0])
	if err != nil {
		return err
	}

	slowPeriod, err := periodParam("slowPeriod", params[1])
	if err != nil {
		return err
	}

	signalPeriod, err := periodParam("signalPeriod", params[2])
	if err != nil {
		return err
	}

	if fastPeriod >= slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"fastPeriod (%d) must be less than slowPeriod (%d)", fastPeriod, slowPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// Lookback is zero: every EMA is seeded with the first close.
func (m *MACD) Lookback() int {
	return 0
}

// Compute calculates MACD over the close series.
func (m *MACD) Compute(prices types.Series) MACDResult {
	fast := EMA(prices, m.fastPeriod)
	slow := EMA(prices, m.slowPeriod)
	dif := Combine(fast, slow, func(f, s float64) (float64, bool) { return f - s, true })
	dea := EMA(dif, m.signalPeriod)
	hist := Combine(dif, dea, func(d, e float64) (float64, bool) { return 2 * (d - e), true })

	return MACDResult{FastEMA: fast, SlowEMA: slow, DIF: dif, DEA: dea, Histogram: hist}
}

func (m *MACD) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	r := m.Compute(closes(bars))
	for i := range rows {
		rows[i].EMA12 = r.FastEMA[i]
		rows[i].EMA26 = r.SlowEMA[i]
		rows[i].DIF = r.DIF[i]
		rows[i].DEA = r.DEA[i]
		rows[i].MACD = r.Histogram[i]
	}
}
