package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// PositionState is the simulator's state for one instrument.
type PositionState string

const (
	PositionStateFlat PositionState = "flat"
	PositionStateLong PositionState = "long"
)

// PortfolioState is the account snapshot recorded after a bar's decision.
type PortfolioState struct {
	Time          time.Time     `json:"date" yaml:"date"`
	Close         float64       `json:"close" yaml:"close"`
	Cash          float64       `json:"cash" yaml:"cash"`
	SharesHeld    int64         `json:"shares_held" yaml:"shares_held"`
	PositionValue float64       `json:"position_value" yaml:"position_value"`
	TotalAsset    float64       `json:"total_asset" yaml:"total_asset"`
	State         PositionState `json:"state" yaml:"state"`
	// DailyReturn is undefined on the first bar.
	DailyReturn optional.Option[float64] `json:"daily_return" yaml:"-"`
}

// ExitReason explains why a long position was closed.
type ExitReason string

const (
	ExitReasonSignal     ExitReason = "signal"
	ExitReasonTakeProfit ExitReason = "take_profit"
	ExitReasonStopLoss   ExitReason = "stop_loss"
)

// Trade is one completed or still-open round trip.
type Trade struct {
	Symbol     string                     `json:"symbol" yaml:"symbol"`
	EntryTime  time.Time                  `json:"entry_time" yaml:"entry_time"`
	EntryPrice float64                    `json:"entry_price" yaml:"entry_price"`
	Shares     int64                      `json:"shares" yaml:"shares"`
	ExitTime   optional.Option[time.Time] `json:"exit_time" yaml:"-"`
	ExitPrice  optional.Option[float64]   `json:"exit_price" yaml:"-"`
	ExitReason ExitReason                 `json:"exit_reason,omitempty" yaml:"exit_reason,omitempty"`
	// PnL is realised profit for closed trades and mark-to-market for an open one.
	PnL    float64 `json:"pnl" yaml:"pnl"`
	Return float64 `json:"return" yaml:"return"`
}

// IsOpen reports whether the trade was still held at the last bar.
func (t Trade) IsOpen() bool {
	return t.ExitTime.IsNone()
}

// PerformanceReport summarises a backtest's total asset curve.
type PerformanceReport struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	TotalReturn    float64 `json:"total_return" yaml:"total_return"`
	MaxDrawdown    float64 `json:"max_drawdown" yaml:"max_drawdown"`
	SharpeRatio    float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	WinRate        float64 `json:"win_rate" yaml:"win_rate"`
	FinalAsset     float64 `json:"final_asset" yaml:"final_asset"`
	NumberOfTrades int     `json:"number_of_trades" yaml:"number_of_trades"`
}
