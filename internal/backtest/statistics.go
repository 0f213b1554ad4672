package backtest

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// TradingDaysPerYear annualises the Sharpe ratio.
const TradingDaysPerYear = 252

// Evaluate computes the performance report over the total asset curve.
// Degenerate inputs give 0 rather than NaN or Inf.
func Evaluate(portfolio []types.PortfolioState, initialCapital float64, numberOfTrades int) types.PerformanceReport {
	assets := make([]float64, len(portfolio))
	for i, p := range portfolio {
		assets[i] = p.TotalAsset
	}

	final := initialCapital
	if len(assets) > 0 {
		final = assets[len(assets)-1]
	}

	returns := DailyReturns(assets)

	return types.PerformanceReport{
		InitialCapital: initialCapital,
		TotalReturn:    finiteOrZero((final - initialCapital) / initialCapital),
		MaxDrawdown:    MaxDrawdown(assets),
		SharpeRatio:    SharpeRatio(returns),
		WinRate:        WinRate(returns),
		FinalAsset:     final,
		NumberOfTrades: numberOfTrades,
	}
}

// DailyReturns is assets[t]/assets[t-1] - 1, undefined at t=0 and after a
// zero asset value.
func DailyReturns(assets []float64) types.Series {
	out := types.NewSeries(len(assets))

	for t := 1; t < len(assets); t++ {
		if assets[t-1] == 0 {
			continue
		}

		out[t] = optional.Some(assets[t]/assets[t-1] - 1)
	}

	return out
}

// MaxDrawdown is the most negative distance from the running peak, as a
// fraction of that peak. It is 0 for a non-decreasing curve.
func MaxDrawdown(assets []float64) float64 {
	drawdown := 0.0
	peak := math.Inf(-1)

	for _, a := range assets {
		peak = math.Max(peak, a)
		if peak <= 0 {
			continue
		}

		drawdown = math.Min(drawdown, a/peak-1)
	}

	return drawdown
}

// SharpeRatio is sqrt(252)*mean/stddev over the defined daily returns, with a
// sample standard deviation. Fewer than two returns or zero deviation give 0.
func SharpeRatio(returns types.Series) float64 {
	values := definedValues(returns)
	if len(values) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range values {
		mean += r
	}

	mean /= float64(len(values))

	variance := 0.0
	for _, r := range values {
		variance += (r - mean) * (r - mean)
	}

	std := math.Sqrt(variance / float64(len(values)-1))
	if std == 0 {
		return 0
	}

	return finiteOrZero(math.Sqrt(TradingDaysPerYear) * mean / std)
}

// WinRate is the share of positive returns among the non-zero ones.
func WinRate(returns types.Series) float64 {
	wins, moves := 0, 0

	for _, r := range definedValues(returns) {
		if r == 0 {
			continue
		}

		moves++

		if r > 0 {
			wins++
		}
	}

	if moves == 0 {
		return 0
	}

	return float64(wins) / float64(moves)
}

func fillDailyReturns(portfolio []types.PortfolioState) {
	assets := make([]float64, len(portfolio))
	for i, p := range portfolio {
		assets[i] = p.TotalAsset
	}

	for i, r := range DailyReturns(assets) {
		portfolio[i].DailyReturn = r
	}
}

func definedValues(s types.Series) []float64 {
	out := make([]float64, 0, len(s))

	for _, o := range s {
		if v, err := o.Take(); err == nil {
			out = append(out, v)
		}
	}

	return out
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
