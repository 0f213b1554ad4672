package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// Channel tracks the highest and lowest value of the 20-period moving
// average over the trailing channel window.
type Channel struct {
	period   int
	maPeriod int
}

// ChannelResult holds the channel bounds.
type ChannelResult struct {
	Upper types.Series
	Lower types.Series
}

// NewChannel creates a channel over 15 periods of SMA(prices, 20).
func NewChannel() *Channel {
	return &Channel{
		period:   15,
		maPeriod: 20,
	}
}

// Name returns the name of the indicator.
func (c *Channel) Name() types.IndicatorType {
	return types.IndicatorTypeChannel
}

// Config configures the channel. Expected parameters: period (int), optional maPeriod (int).
func (c *Channel) Config(params ...any) error {
	if err := expectParams(c.Name(), params, 1, 2); err != nil {
		return err
	}

	period, err := periodParam("period", params[0])
	if err != nil {
		return err
	}

	maPeriod := c.maPeriod

	if len(params) == 2 {
		maPeriod, err = periodParam("maPeriod", params[1])
		if err != nil {
			return err
		}
	}

	c.period = period
	c.maPeriod = maPeriod

	return nil
}

func (c *Channel) Lookback() int {
	return c.maPeriod + c.period - 2
}

// Compute calculates the channel over the close series.
func (c *Channel) Compute(prices types.Series) ChannelResult {
	mid := SMA(prices, c.maPeriod)

	return ChannelResult{
		Upper: RollingMax(mid, c.period),
		Lower: RollingMin(mid, c.period),
	}
}

func (c *Channel) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	r := c.Compute(closes(bars))
	for i := range rows {
		rows[i].ChannelUpper = r.Upper[i]
		rows[i].ChannelLower = r.Lower[i]
	}
}
