package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.engine = NewEngine()
}

func (suite *EngineTestSuite) TestComputeAlignsRows() {
	bars := barsFromCloses(wave(100))

	series, err := suite.engine.Compute(bars)
	suite.Require().NoError(err)

	suite.Equal("600000.SH", series.Symbol)
	suite.Equal(len(bars), series.Len())
	suite.Len(series.Rows, len(bars))
	suite.Equal(bars, series.Bars)

	first := series.Rows[0]
	suite.True(first.EMA12.IsSome())
	suite.True(first.MIDA.IsNone())
	suite.True(first.RSI.IsNone())
	suite.True(first.Pivot.IsNone())
	suite.True(first.TR.IsSome())
	suite.Equal(0, first.BuySignal)
	suite.Equal(0, first.SellSignal)

	_, last, ok := series.Last()
	suite.Require().True(ok)

	for _, col := range last.Columns() {
		suite.True(col.Value.IsSome(), "column %s defined after warm-up", col.Name)
	}
}

func (suite *EngineTestSuite) TestComputeDoesNotAliasInput() {
	bars := barsFromCloses(wave(30))

	series, err := suite.engine.Compute(bars)
	suite.Require().NoError(err)

	bars[0].Close = -1
	suite.NotEqual(-1.0, series.Bars[0].Close)
}

func (suite *EngineTestSuite) TestSingleBar() {
	series, err := suite.engine.Compute(barsFromCloses([]float64{10}))
	suite.Require().NoError(err)
	suite.Equal(1, series.Len())
	suite.True(series.Rows[0].RSI.IsNone())
}

func (suite *EngineTestSuite) TestMalformedInput() {
	sorted := barsFromCloses([]float64{1, 2, 3})

	duplicate := barsFromCloses([]float64{1, 2, 3})
	duplicate[2].Time = duplicate[1].Time

	unsorted := barsFromCloses([]float64{1, 2, 3})
	unsorted[0], unsorted[2] = unsorted[2], unsorted[0]

	testCases := []struct {
		name string
		bars []types.Bar
	}{
		{name: "empty", bars: nil},
		{name: "duplicate dates", bars: duplicate},
		{name: "unsorted", bars: unsorted},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.engine.Compute(tc.bars)
			suite.Error(err)
			suite.Equal(errors.ErrCodeMalformedInput, errors.GetCode(err))
		})
	}

	_, err := suite.engine.Compute(sorted)
	suite.NoError(err)
}

func (suite *EngineTestSuite) TestConfigure() {
	suite.Require().NoError(suite.engine.Configure(types.IndicatorTypeRSI, 2))

	series, err := suite.engine.Compute(barsFromCloses([]float64{10, 12, 11, 12}))
	suite.Require().NoError(err)
	suite.True(series.Rows[2].RSI.IsSome())

	err = suite.engine.Configure(types.IndicatorType("unknown"), 1)
	suite.Error(err)

	err = suite.engine.Configure(types.IndicatorTypeATR, 0)
	suite.Equal(errors.ErrCodeInvalidPeriod, errors.GetCode(err))
}

func (suite *EngineTestSuite) TestCustomRegistry() {
	registry := NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(NewRSI()))

	series, err := NewEngineWithRegistry(registry).Compute(barsFromCloses(wave(40)))
	suite.Require().NoError(err)

	_, last, _ := series.Last()
	suite.True(last.RSI.IsSome())
	suite.True(last.EMA12.IsNone(), "MACD is not registered")
}

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestDefaultOrder() {
	r := NewDefaultRegistry()

	suite.Equal([]types.IndicatorType{
		types.IndicatorTypeMACD,
		types.IndicatorTypeBollingerBands,
		types.IndicatorTypeRSI,
		types.IndicatorTypeATR,
		types.IndicatorTypeChannel,
		types.IndicatorTypeRBreaker,
		types.IndicatorTypeMomentum,
		types.IndicatorTypeVolumeMA,
	}, r.ListIndicators())
}

func (suite *RegistryTestSuite) TestRegisterGetRemove() {
	r := NewIndicatorRegistry()

	suite.Require().NoError(r.RegisterIndicator(NewATR()))
	suite.Error(r.RegisterIndicator(NewATR()), "duplicate registration")

	ind, err := r.GetIndicator(types.IndicatorTypeATR)
	suite.Require().NoError(err)
	suite.Equal(types.IndicatorTypeATR, ind.Name())

	suite.NoError(r.RemoveIndicator(types.IndicatorTypeATR))
	suite.Empty(r.ListIndicators())

	_, err = r.GetIndicator(types.IndicatorTypeATR)
	suite.Error(err)
	suite.Error(r.RemoveIndicator(types.IndicatorTypeATR))
}
