package backtest

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/shopspring/decimal"
)

// Result is the outcome of one simulation.
type Result struct {
	Symbol    string                  `json:"symbol"`
	Config    Config                  `json:"config"`
	Report    types.PerformanceReport `json:"report"`
	Portfolio []types.PortfolioState  `json:"portfolio"`
	Trades    []types.Trade           `json:"trades"`
}

// Simulator runs the long-only signal strategy over an enriched series.
//
// Per bar, after the first:
//   - Flat with a buy signal: invest floor(cash*PositionRatio/close) shares.
//     Zero affordable shares keeps the account flat.
//   - Long: exit the whole position when the return from entry reaches the
//     take profit, falls to the stop loss, or the sell signal fires.
//
// A buy signal while Long and a sell signal while Flat do nothing.
// The first bar only records the starting account.
type Simulator struct{}

// NewSimulator creates a simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// ledger tracks cash and position in exact decimal arithmetic.
type ledger struct {
	cash       decimal.Decimal
	shares     int64
	entryPrice decimal.Decimal
	open       *types.Trade
}

func (l *ledger) state() types.PositionState {
	if l.shares > 0 {
		return types.PositionStateLong
	}

	return types.PositionStateFlat
}

// Run simulates the strategy. It fails only on an empty series, a series
// whose rows do not match its bars, or an invalid config.
func (s *Simulator) Run(series types.EnrichedSeries, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	if series.Len() == 0 {
		return Result{}, errors.New(errors.ErrCodeBacktestEmptySeries, "cannot backtest an empty series")
	}

	if len(series.Rows) != len(series.Bars) {
		return Result{}, errors.Newf(errors.ErrCodeMalformedInput,
			"series has %d bars but %d indicator rows", len(series.Bars), len(series.Rows))
	}

	ratio := decimal.NewFromFloat(cfg.PositionRatio)
	takeProfit := decimal.NewFromFloat(cfg.TakeProfitPct)
	stopLoss := decimal.NewFromFloat(cfg.StopLossPct).Neg()

	l := &ledger{cash: decimal.NewFromFloat(cfg.InitialCapital)}
	portfolio := make([]types.PortfolioState, 0, series.Len())
	trades := make([]types.Trade, 0)

	for t, bar := range series.Bars {
		row := series.Rows[t]
		price := decimal.NewFromFloat(bar.Close)

		if t > 0 {
			switch l.state() {
			case types.PositionStateFlat:
				if row.BuySignal == 1 {
					l.enter(series.Symbol, bar, price, ratio)
				}
			case types.PositionStateLong:
				if reason, ok := exitReason(l.entryPrice, price, takeProfit, stopLoss, row.SellSignal == 1); ok {
					trades = append(trades, l.exit(bar, price, reason))
				}
			}
		}

		portfolio = append(portfolio, l.snapshot(bar, price))
	}

	if l.open != nil {
		last := series.Bars[series.Len()-1]
		trades = append(trades, l.markOpen(decimal.NewFromFloat(last.Close)))
	}

	fillDailyReturns(portfolio)

	return Result{
		Symbol:    series.Symbol,
		Config:    cfg,
		Report:    Evaluate(portfolio, cfg.InitialCapital, len(trades)),
		Portfolio: portfolio,
		Trades:    trades,
	}, nil
}

// exitReason checks the exit triggers. Price triggers take precedence over
// the sell signal when several fire on the same bar.
func exitReason(entry, price, takeProfit, stopLoss decimal.Decimal, sell bool) (types.ExitReason, bool) {
	ret := price.Sub(entry).Div(entry)

	switch {
	case ret.GreaterThanOrEqual(takeProfit):
		return types.ExitReasonTakeProfit, true
	case ret.LessThanOrEqual(stopLoss):
		return types.ExitReasonStopLoss, true
	case sell:
		return types.ExitReasonSignal, true
	default:
		return "", false
	}
}

func (l *ledger) enter(symbol string, bar types.Bar, price, ratio decimal.Decimal) {
	if !price.IsPositive() {
		return
	}

	shares := l.cash.Mul(ratio).Div(price).Floor().IntPart()
	if shares <= 0 {
		return
	}

	l.cash = l.cash.Sub(price.Mul(decimal.NewFromInt(shares)))
	l.shares = shares
	l.entryPrice = price
	l.open = &types.Trade{
		Symbol:     symbol,
		EntryTime:  bar.Time,
		EntryPrice: bar.Close,
		Shares:     shares,
	}
}

func (l *ledger) exit(bar types.Bar, price decimal.Decimal, reason types.ExitReason) types.Trade {
	qty := decimal.NewFromInt(l.shares)
	l.cash = l.cash.Add(price.Mul(qty))

	trade := *l.open
	trade.ExitTime = optional.Some(bar.Time)
	trade.ExitPrice = optional.Some(bar.Close)
	trade.ExitReason = reason
	trade.PnL = price.Sub(l.entryPrice).Mul(qty).InexactFloat64()
	trade.Return = price.Sub(l.entryPrice).Div(l.entryPrice).InexactFloat64()

	l.shares = 0
	l.entryPrice = decimal.Zero
	l.open = nil

	return trade
}

// markOpen values the position still held at the last bar without closing it.
func (l *ledger) markOpen(price decimal.Decimal) types.Trade {
	trade := *l.open
	trade.PnL = price.Sub(l.entryPrice).Mul(decimal.NewFromInt(l.shares)).InexactFloat64()
	trade.Return = price.Sub(l.entryPrice).Div(l.entryPrice).InexactFloat64()

	return trade
}

func (l *ledger) snapshot(bar types.Bar, price decimal.Decimal) types.PortfolioState {
	positionValue := price.Mul(decimal.NewFromInt(l.shares))

	return types.PortfolioState{
		Time:          bar.Time,
		Close:         bar.Close,
		Cash:          l.cash.InexactFloat64(),
		SharesHeld:    l.shares,
		PositionValue: positionValue.InexactFloat64(),
		TotalAsset:    l.cash.Add(positionValue).InexactFloat64(),
		State:         l.state(),
	}
}
