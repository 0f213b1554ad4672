package backtest

import (
	"math"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/stretchr/testify/suite"
)

type StatisticsTestSuite struct {
	suite.Suite
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) TestDailyReturns() {
	r := DailyReturns([]float64{100, 110, 99})

	suite.True(r[0].IsNone())
	suite.InDelta(0.1, r[1].Unwrap(), 1e-12)
	suite.InDelta(-0.1, r[2].Unwrap(), 1e-12)
}

func (suite *StatisticsTestSuite) TestMaxDrawdown() {
	testCases := []struct {
		name     string
		assets   []float64
		expected float64
	}{
		{"non-decreasing", []float64{1, 1, 2, 3}, 0},
		{"single dip", []float64{100, 80, 120}, -0.2},
		{"deepest after new peak", []float64{100, 90, 200, 100}, -0.5},
		{"empty", nil, 0},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, MaxDrawdown(tc.assets), 1e-12)
			suite.LessOrEqual(MaxDrawdown(tc.assets), 0.0)
		})
	}
}

func (suite *StatisticsTestSuite) TestSharpeRatio() {
	returns := types.Series{optional.None[float64](), optional.Some(0.01), optional.Some(0.03)}

	mean := 0.02
	std := math.Sqrt((0.0001 + 0.0001) / 1)
	suite.InDelta(math.Sqrt(252)*mean/std, SharpeRatio(returns), 1e-9)

	suite.Equal(0.0, SharpeRatio(types.Series{optional.Some(0.01)}), "one return has no sample deviation")
	suite.Equal(0.0, SharpeRatio(types.SeriesOf([]float64{0.01, 0.01, 0.01})), "zero deviation")
	suite.Equal(0.0, SharpeRatio(types.NewSeries(5)), "all undefined")
}

func (suite *StatisticsTestSuite) TestWinRate() {
	suite.InDelta(2.0/3.0, WinRate(types.SeriesOf([]float64{0.1, 0, -0.2, 0.05})), 1e-12)
	suite.Equal(0.0, WinRate(types.SeriesOf([]float64{0, 0})))
	suite.Equal(0.0, WinRate(nil))
}

func (suite *StatisticsTestSuite) TestEvaluateEmptyPortfolio() {
	report := Evaluate(nil, 1000, 0)

	suite.Equal(1000.0, report.FinalAsset)
	suite.Equal(0.0, report.TotalReturn)
}
