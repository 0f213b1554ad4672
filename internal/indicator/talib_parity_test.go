package indicator

import (
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/stretchr/testify/suite"
)

// TalibParityTestSuite checks the window functions against TA-Lib on the
// indices where TA-Lib reports a value.
type TalibParityTestSuite struct {
	suite.Suite
	closes []float64
}

func TestTalibParitySuite(t *testing.T) {
	suite.Run(t, new(TalibParityTestSuite))
}

func (suite *TalibParityTestSuite) SetupSuite() {
	suite.closes = wave(200)
}

func (suite *TalibParityTestSuite) assertParity(name string, ours types.Series, reference []float64, period int) {
	suite.Require().Len(ours, len(reference))

	for i := range ours {
		if i < period-1 {
			suite.True(ours[i].IsNone(), "%s index %d", name, i)

			continue
		}

		suite.Require().True(ours[i].IsSome(), "%s index %d", name, i)
		suite.InDelta(reference[i], ours[i].Unwrap(), 1e-9, "%s index %d", name, i)
	}
}

func (suite *TalibParityTestSuite) TestSMA() {
	for _, period := range []int{5, 14, 20} {
		suite.assertParity("sma", SMA(types.SeriesOf(suite.closes), period), talib.Sma(suite.closes, period), period)
	}
}

func (suite *TalibParityTestSuite) TestRollingMaxMin() {
	for _, period := range []int{2, 15} {
		suite.assertParity("max", RollingMax(types.SeriesOf(suite.closes), period), talib.Max(suite.closes, period), period)
		suite.assertParity("min", RollingMin(types.SeriesOf(suite.closes), period), talib.Min(suite.closes, period), period)
	}
}

func (suite *TalibParityTestSuite) TestRollingSum() {
	period := 10
	suite.assertParity("sum", RollingSum(types.SeriesOf(suite.closes), period), talib.Sum(suite.closes, period), period)
}
