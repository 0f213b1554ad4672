package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/indicator"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/stretchr/testify/suite"
)

type SummarizerTestSuite struct {
	suite.Suite
	summarizer *Summarizer
}

func TestSummarizerSuite(t *testing.T) {
	suite.Run(t, new(SummarizerTestSuite))
}

func (suite *SummarizerTestSuite) SetupTest() {
	suite.summarizer = NewSummarizer()
}

func singleRow(price float64, row types.IndicatorSet) types.EnrichedSeries {
	return types.EnrichedSeries{
		Symbol: "600000.SH",
		Bars: []types.Bar{{
			Time:   time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
			Symbol: "600000.SH",
			Open:   price, High: price + 1, Low: price - 1, Close: price, Volume: 1000,
		}},
		Rows: []types.IndicatorSet{row},
	}
}

func (suite *SummarizerTestSuite) input(series types.EnrichedSeries) Input {
	return Input{Symbol: series.Symbol, StartDate: "2024-01-02", EndDate: "2024-03-29", Series: series}
}

func (suite *SummarizerTestSuite) TestBullishReport() {
	row := types.IndicatorSet{
		MIDA:            optional.Some(100.0),
		ChannelUpper:    optional.Some(108.0),
		ChannelLower:    optional.Some(90.0),
		RSI:             optional.Some(75.0),
		MACD:            optional.Some(1.2),
		ATR:             optional.Some(2.0),
		BreakResistance: optional.Some(104.0),
		BreakSupport:    optional.Some(96.0),
		BuySignal:       1,
	}

	summary, err := suite.summarizer.Summarize(suite.input(singleRow(105, row)))
	suite.Require().NoError(err)

	suite.Equal(AdviceLong, summary.Advice)
	suite.Equal("600000.SH", summary.Symbol)

	text := summary.Text
	suite.Contains(text, "Analysis of 600000.SH from 2024-01-02 to 2024-03-29 (last bar 2024-03-29)")
	suite.Contains(text, "uptrend: the close of 105.00 is above the 20-day average of 100.00")
	suite.Contains(text, "Price is above support.")
	suite.Contains(text, "DIF is above the signal line")
	suite.Contains(text, "RSI: 75.00, above 70")
	suite.Contains(text, "the VID/LONG chain turned up")
	suite.Contains(text, "Price is within 5% of channel resistance at 108.00.")
	suite.NotContains(text, "within 5% of channel support")
	suite.Contains(text, "R-Breaker: long breakout, favour long positions.")
	suite.Contains(text, "Expected range 103.95 to 106.05.")
	suite.Contains(text, "price action is stable")
	suite.NotContains(text, "Backtest")
}

func (suite *SummarizerTestSuite) TestBearishReport() {
	row := types.IndicatorSet{
		MIDA:            optional.Some(100.0),
		ChannelUpper:    optional.Some(120.0),
		ChannelLower:    optional.Some(95.0),
		RSI:             optional.Some(25.0),
		MACD:            optional.Some(-0.4),
		ATR:             optional.Some(9.0),
		BreakResistance: optional.Some(99.0),
		BreakSupport:    optional.Some(93.0),
		SellSignal:      1,
	}

	summary, err := suite.summarizer.Summarize(suite.input(singleRow(92, row)))
	suite.Require().NoError(err)

	suite.Equal(AdviceShort, summary.Advice)

	text := summary.Text
	suite.Contains(text, "downtrend")
	suite.Contains(text, "Price has fallen through support.")
	suite.Contains(text, "DIF is below the signal line")
	suite.Contains(text, "below 30, the instrument looks oversold")
	suite.Contains(text, "the VID/LONG chain turned down")
	suite.Contains(text, "Price is within 5% of channel support at 95.00.")
	suite.Contains(text, "stay mostly in cash")
	suite.Contains(text, "volatility is elevated")
}

func (suite *SummarizerTestSuite) TestRSIZones() {
	testCases := []struct {
		rsi      optional.Option[float64]
		expected rsiZone
	}{
		{optional.Some(70.5), rsiOverbought},
		{optional.Some(70.0), rsiStrong},
		{optional.Some(50.0), rsiWeak},
		{optional.Some(30.0), rsiWeak},
		{optional.Some(29.9), rsiOversold},
		{optional.None[float64](), rsiUnknown},
	}

	for _, tc := range testCases {
		suite.Equal(tc.expected, classifyRSI(tc.rsi))
	}
}

func (suite *SummarizerTestSuite) TestUndefinedValuesRenderAsNA() {
	summary, err := suite.summarizer.Summarize(suite.input(singleRow(10, types.IndicatorSet{})))
	suite.Require().NoError(err)

	suite.Equal(AdviceWait, summary.Advice)
	suite.Contains(summary.Text, "There is not enough history for the 20-day average yet.")
	suite.Contains(summary.Text, "The trend channel is not available yet.")
	suite.Contains(summary.Text, "MACD: n/a, not enough history.")
	suite.Contains(summary.Text, "RSI: n/a.")
	suite.Contains(summary.Text, "ATR: n/a.")
	suite.Contains(summary.Text, "No breakout signal.")
	suite.NotContains(summary.Text, "<no value>")
}

func (suite *SummarizerTestSuite) TestReportAndMultiplier() {
	in := suite.input(singleRow(3500, types.IndicatorSet{}))
	in.Multiplier = optional.Some(300.0)
	in.Report = optional.Some(types.PerformanceReport{
		TotalReturn:    0.125,
		MaxDrawdown:    -0.08,
		SharpeRatio:    1.5,
		WinRate:        0.52,
		FinalAsset:     562500,
		NumberOfTrades: 7,
	})

	summary, err := suite.summarizer.Summarize(in)
	suite.Require().NoError(err)

	suite.Contains(summary.Text, "Contract multiplier: 300.")
	suite.Contains(summary.Text, "Total return 12.50%, max drawdown -8.00%, Sharpe 1.50, win rate 52.00%.")
	suite.Contains(summary.Text, "Final asset 562,500.00 after 7 trades.")
	suite.Contains(summary.Text, "The close is 3,500.00.")
}

func (suite *SummarizerTestSuite) TestEmptySeries() {
	summary, err := suite.summarizer.Summarize(Input{Symbol: "X", StartDate: "2024-01-01", EndDate: "2024-02-01"})
	suite.Require().NoError(err)

	suite.Equal(AdviceWait, summary.Advice)
	suite.True(strings.HasPrefix(summary.Text, "No data was found for X from 2024-01-01 to 2024-02-01."))
}

func (suite *SummarizerTestSuite) TestComputedSeries() {
	bars := make([]types.Bar, 60)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		c := 10 + float64(i)*0.1
		bars[i] = types.Bar{Time: start.AddDate(0, 0, i), Symbol: "000001.SZ", Open: c, High: c + 0.2, Low: c - 0.2, Close: c, Volume: 100}
	}

	series, err := indicator.NewEngine().Compute(bars)
	suite.Require().NoError(err)

	summary, err := suite.summarizer.Summarize(suite.input(series))
	suite.Require().NoError(err)

	suite.Contains(summary.Text, "uptrend")
	suite.NotContains(summary.Text, "n/a")
}

func (suite *SummarizerTestSuite) TestRBreakerAdvice() {
	row := types.IndicatorSet{BreakResistance: optional.Some(11.0), BreakSupport: optional.Some(9.0)}

	suite.Equal(AdviceLong, RBreakerAdvice(11.5, row))
	suite.Equal(AdviceShort, RBreakerAdvice(8.5, row))
	suite.Equal(AdviceWait, RBreakerAdvice(11, row))
	suite.Equal(AdviceWait, RBreakerAdvice(9, row))
	suite.Equal(AdviceWait, RBreakerAdvice(100, types.IndicatorSet{}))
}
