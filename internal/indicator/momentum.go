package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// Momentum is the volume-weighted momentum chain (VID/LONG family):
//
//	VID  = sum(volume, 2) / ((max(high, 2) - min(low, 2)) * 100)
//	RC   = (close - prevClose) * VID
//	LONG = cumulative RC
//	LON  = SMA(LONG, 10) - SMA(LONG, 20)
//	V2   = LON, V3..V6 = EMA(previous, 3)
//
// The buy signal fires when V2 rises and the sell signal when it falls.
// LONG accumulates from the first bar passed to Compute, so the same
// instrument computed over a shorter history yields different values.
type Momentum struct {
	vidWindow  int
	fastPeriod int
	slowPeriod int
	lllPeriod  int
	smoothSpan int
}

// MomentumResult holds the momentum chain and its signals.
type MomentumResult struct {
	VID  types.Series
	RC   types.Series
	LONG types.Series
	DIFF types.Series
	DEA2 types.Series
	LON  types.Series
	LLL  types.Series
	V2   types.Series
	V3   types.Series
	V4   types.Series
	V5   types.Series
	V6   types.Series

	BuySignal  []int
	SellSignal []int
}

// NewMomentum creates the momentum chain with default windows.
func NewMomentum() *Momentum {
	return &Momentum{
		vidWindow:  2,
		fastPeriod: 10,
		slowPeriod: 20,
		lllPeriod:  10,
		smoothSpan: 3,
	}
}

// Name returns the name of the indicator.
func (m *Momentum) Name() types.IndicatorType {
	return types.IndicatorTypeMomentum
}

// Config configures the chain. Expected parameters: fastPeriod (int), slowPeriod (int), optional smoothSpan (int).
func (m *Momentum) Config(params ...any) error {
	if err := expectParams(m.Name(), params, 2, 3); err != nil {
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

	if fastPeriod >= slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"fastPeriod (%d) must be less than slowPeriod (%d)", fastPeriod, slowPeriod)
	}

	smoothSpan := m.smoothSpan

	if len(params) == 3 {
		smoothSpan, err = periodParam("smoothSpan", params[2])
		if err != nil {
			return err
		}
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.smoothSpan = smoothSpan

	return nil
}

// Lookback is the first bar with a defined LON: RC starts at bar 1 and the
// slow average needs a full window of it.
func (m *Momentum) Lookback() int {
	return m.slowPeriod
}

// Compute runs the chain over the bars.
func (m *Momentum) Compute(bars []types.Bar) MomentumResult {
	high := highs(bars)
	low := lows(bars)
	prices := closes(bars)

	span := Combine(RollingMax(high, m.vidWindow), RollingMin(low, m.vidWindow), func(h, l float64) (float64, bool) {
		return h - l, true
	})

	vid := Combine(RollingSum(volumes(bars), m.vidWindow), span, func(v, rng float64) (float64, bool) {
		if rng == 0 {
			return 0, false
		}

		return v / (rng * 100), true
	})

	change := Diff(prices)
	rc := Combine(change, vid, func(c, v float64) (float64, bool) { return c * v, true })
	long := CumSum(rc)
	diff := SMA(long, m.fastPeriod)
	dea := SMA(long, m.slowPeriod)
	lon := Combine(diff, dea, func(d, e float64) (float64, bool) { return d - e, true })

	v2 := EMA(lon, 1)
	v3 := EMA(v2, m.smoothSpan)
	v4 := EMA(v3, m.smoothSpan)
	v5 := EMA(v4, m.smoothSpan)
	v6 := EMA(v5, m.smoothSpan)

	buy, sell := crossSignals(v2)

	return MomentumResult{
		VID:        vid,
		RC:         rc,
		LONG:       long,
		DIFF:       diff,
		DEA2:       dea,
		LON:        lon,
		LLL:        SMA(lon, m.lllPeriod),
		V2:         v2,
		V3:         v3,
		V4:         v4,
		V5:         v5,
		V6:         v6,
		BuySignal:  buy,
		SellSignal: sell,
	}
}

// crossSignals compares each value with the previous one. Either side being
// undefined, or the two being equal, gives no signal.
func crossSignals(s types.Series) (buy, sell []int) {
	buy = make([]int, len(s))
	sell = make([]int, len(s))

	for t := 1; t < len(s); t++ {
		cur, errCur := s[t].Take()
		prev, errPrev := s[t-1].Take()

		if errCur != nil || errPrev != nil {
			continue
		}

		switch {
		case cur > prev:
			buy[t] = 1
		case cur < prev:
			sell[t] = 1
		}
	}

	return buy, sell
}

func (m *Momentum) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	r := m.Compute(bars)
	for i := range rows {
		rows[i].VID = r.VID[i]
		rows[i].RC = r.RC[i]
		rows[i].LONG = r.LONG[i]
		rows[i].DIFF = r.DIFF[i]
		rows[i].DEA2 = r.DEA2[i]
		rows[i].LON = r.LON[i]
		rows[i].LLL = r.LLL[i]
		rows[i].V2 = r.V2[i]
		rows[i].V3 = r.V3[i]
		rows[i].V4 = r.V4[i]
		rows[i].V5 = r.V5[i]
		rows[i].V6 = r.V6[i]
		rows[i].BuySignal = r.BuySignal[i]
		rows[i].SellSignal = r.SellSignal[i]
	}
}
