package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) TestSeriesAccessors() {
	s := Series{optional.None[float64](), optional.Some(1.5), optional.Some(2.5)}

	suite.Equal(2, s.Defined())
	suite.Equal(1, s.FirstDefined())
	suite.Equal(2.5, s.Last().Unwrap())
	suite.True(s.At(-1).IsNone())
	suite.True(s.At(3).IsNone())
	suite.Equal(-1, NewSeries(3).FirstDefined())
	suite.True(Series{}.Last().IsNone())
}

func (suite *TypesTestSuite) TestSeriesOf() {
	s := SeriesOf([]float64{1, 2})
	suite.Equal(2, s.Defined())
	suite.Equal(1.0, s[0].Unwrap())
}

func (suite *TypesTestSuite) TestBarDate() {
	b := Bar{Time: time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC), Close: 9}

	suite.Equal("2024-03-05", b.Date())
	suite.Equal([]float64{9, 10}, Closes([]Bar{b, {Close: 10}}))
}

func (suite *TypesTestSuite) TestParseDataType() {
	testCases := []struct {
		input    string
		expected DataType
		ok       bool
	}{
		{"stock", DataTypeStock, true},
		{" Stock ", DataTypeStock, true},
		{"股票", DataTypeStock, true},
		{"期货", DataTypeFutures, true},
		{"future", DataTypeFutures, true},
		{"指数", DataTypeIndex, true},
		{"crypto", DataTypeCrypto, true},
		{"bond", "", false},
	}

	for _, tc := range testCases {
		got, ok := ParseDataType(tc.input)
		suite.Equal(tc.ok, ok, tc.input)
		suite.Equal(tc.expected, got, tc.input)
	}
}

func (suite *TypesTestSuite) TestEnrichedSeriesLast() {
	_, _, ok := EnrichedSeries{}.Last()
	suite.False(ok)

	e := EnrichedSeries{
		Bars: []Bar{{Close: 1}, {Close: 2}},
		Rows: []IndicatorSet{{BuySignal: 1}, {SellSignal: 1}},
	}

	bar, row, ok := e.Last()
	suite.True(ok)
	suite.Equal(2.0, bar.Close)
	suite.Equal(1, row.SellSignal)
	suite.Equal(2, e.Len())
}

func (suite *TypesTestSuite) TestColumnsAreUnique() {
	seen := map[string]bool{}

	for _, c := range (IndicatorSet{}).Columns() {
		suite.False(seen[c.Name], c.Name)
		seen[c.Name] = true
	}

	suite.Len(seen, 31)
}

func (suite *TypesTestSuite) TestTradeIsOpen() {
	suite.True(Trade{}.IsOpen())
	suite.False(Trade{ExitTime: optional.Some(time.Now())}.IsOpen())
}
