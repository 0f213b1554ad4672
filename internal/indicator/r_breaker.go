package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// RBreaker derives pivot, breakout and scrutiny levels from each bar's
// high/low range and the previous close.
type RBreaker struct {
	breakFactor    float64
	scrutinyFactor float64
}

// RBreakerResult holds the R-Breaker levels.
type RBreakerResult struct {
	Pivot           types.Series
	BreakSupport    types.Series
	BreakResistance types.Series
	ScrutinyBuy     types.Series
	ScrutinySell    types.Series
}

// NewRBreaker creates R-Breaker levels with 0.25 breakout and 0.1 scrutiny factors.
func NewRBreaker() *RBreaker {
	return &RBreaker{
		breakFactor:    0.25,
		scrutinyFactor: 0.1,
	}
}

// Name returns the name of the indicator.
func (r *RBreaker) Name() types.IndicatorType {
	return types.IndicatorTypeRBreaker
}

// Config configures the factors. Expected parameters: breakFactor (float64), scrutinyFactor (float64).
func (r *RBreaker) Config(params ...any) error {
	if err := expectParams(r.Name(), params, 2, 2); err != nil {
		return err
	}

	breakFactor, err := floatParam("breakFactor", params[0])
	if err != nil {
		return err
	}

	scrutinyFactor, err := floatParam("scrutinyFactor", params[1])
	if err != nil {
		return err
	}

	if breakFactor <= 0 || scrutinyFactor <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "R-Breaker factors must be positive")
	}

	r.breakFactor = breakFactor
	r.scrutinyFactor = scrutinyFactor

	return nil
}

// Lookback is one bar: the first bar has no previous close.
func (r *RBreaker) Lookback() int {
	return 1
}

// Compute calculates the levels for every bar after the first.
func (r *RBreaker) Compute(bars []types.Bar) RBreakerResult {
	n := len(bars)
	res := RBreakerResult{
		Pivot:           types.NewSeries(n),
		BreakSupport:    types.NewSeries(n),
		BreakResistance: types.NewSeries(n),
		ScrutinyBuy:     types.NewSeries(n),
		ScrutinySell:    types.NewSeries(n),
	}

	for i := 1; i < n; i++ {
		b := bars[i]
		rng := b.High - b.Low
		pivot := (b.High + b.Low + bars[i-1].Close) / 3

		res.Pivot[i] = optional.Some(pivot)
		res.BreakSupport[i] = optional.Some(pivot - r.breakFactor*rng)
		res.BreakResistance[i] = optional.Some(pivot + r.breakFactor*rng)
		res.ScrutinyBuy[i] = optional.Some(pivot + r.scrutinyFactor*rng)
		res.ScrutinySell[i] = optional.Some(pivot - r.scrutinyFactor*rng)
	}

	return res
}

func (r *RBreaker) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	res := r.Compute(bars)
	for i := range rows {
		rows[i].Pivot = res.Pivot[i]
		rows[i].BreakSupport = res.BreakSupport[i]
		rows[i].BreakResistance = res.BreakResistance[i]
		rows[i].ScrutinyBuy = res.ScrutinyBuy[i]
		rows[i].ScrutinySell = res.ScrutinySell[i]
	}
}
