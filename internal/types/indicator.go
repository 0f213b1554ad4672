package types

import "github.com/moznion/go-optional"

type IndicatorType string

const (
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeChannel        IndicatorType = "channel"
	IndicatorTypeRBreaker       IndicatorType = "r_breaker"
	IndicatorTypeMomentum       IndicatorType = "momentum"
	IndicatorTypeVolumeMA       IndicatorType = "volume_ma"
)

// IndicatorSet holds every derived value for one bar. A None field means the
// bar does not have enough history for that indicator yet.
type IndicatorSet struct {
	EMA12 optional.Option[float64] `json:"ema12"`
	EMA26 optional.Option[float64] `json:"ema26"`
	DIF   optional.Option[float64] `json:"dif"`
	DEA   optional.Option[float64] `json:"dea"`
	MACD  optional.Option[float64] `json:"macd"`

	MIDA   optional.Option[float64] `json:"mida"`
	UPPERA optional.Option[float64] `json:"uppera"`
	LOWERA optional.Option[float64] `json:"lowera"`

	RSI optional.Option[float64] `json:"rsi"`

	TR  optional.Option[float64] `json:"tr"`
	ATR optional.Option[float64] `json:"atr"`

	ChannelUpper optional.Option[float64] `json:"channel_upper"`
	ChannelLower optional.Option[float64] `json:"channel_lower"`

	Pivot           optional.Option[float64] `json:"pivot"`
	BreakSupport    optional.Option[float64] `json:"break_support"`
	BreakResistance optional.Option[float64] `json:"break_resistance"`
	ScrutinyBuy     optional.Option[float64] `json:"scrutiny_buy"`
	ScrutinySell    optional.Option[float64] `json:"scrutiny_sell"`

	VID  optional.Option[float64] `json:"vid"`
	RC   optional.Option[float64] `json:"rc"`
	LONG optional.Option[float64] `json:"long"`
	DIFF optional.Option[float64] `json:"diff"`
	DEA2 optional.Option[float64] `json:"dea2"`
	LON  optional.Option[float64] `json:"lon"`
	LLL  optional.Option[float64] `json:"lll"`
	V2   optional.Option[float64] `json:"v2"`
	V3   optional.Option[float64] `json:"v3"`
	V4   optional.Option[float64] `json:"v4"`
	V5   optional.Option[float64] `json:"v5"`
	V6   optional.Option[float64] `json:"v6"`

	VolumeMA optional.Option[float64] `json:"volume_ma"`

	// BuySignal and SellSignal are always 0 or 1.
	BuySignal  int `json:"buy_signal"`
	SellSignal int `json:"sell_signal"`
}

// NamedValue pairs an indicator column name with its value.
type NamedValue struct {
	Name  string
	Value optional.Option[float64]
}

// Columns lists the numeric fields in a stable export order.
func (s IndicatorSet) Columns() []NamedValue {
	return []NamedValue{
		{"EMA12", s.EMA12}, {"EMA26", s.EMA26}, {"DIF", s.DIF}, {"DEA", s.DEA}, {"MACD", s.MACD},
		{"MIDA", s.MIDA}, {"UPPERA", s.UPPERA}, {"LOWERA", s.LOWERA},
		{"RSI", s.RSI}, {"TR", s.TR}, {"ATR", s.ATR},
		{"channel_upper", s.ChannelUpper}, {"channel_lower", s.ChannelLower},
		{"Pivot", s.Pivot}, {"Break_Support", s.BreakSupport}, {"Break_Resistance", s.BreakResistance},
		{"Scrutiny_Buy", s.ScrutinyBuy}, {"Scrutiny_Sell", s.ScrutinySell},
		{"VID", s.VID}, {"RC", s.RC}, {"LONG", s.LONG}, {"DIFF", s.DIFF}, {"DEA2", s.DEA2},
		{"LON", s.LON}, {"LLL", s.LLL},
		{"V2", s.V2}, {"V3", s.V3}, {"V4", s.V4}, {"V5", s.V5}, {"V6", s.V6},
		{"MA_volume", s.VolumeMA},
	}
}

// EnrichedSeries is the output of one indicator pass over a bar sequence.
// Rows[i] belongs to Bars[i]. It is not modified after construction.
type EnrichedSeries struct {
	Symbol string         `json:"symbol"`
	Bars   []Bar          `json:"bars"`
	Rows   []IndicatorSet `json:"rows"`
}

// Len returns the number of bars.
func (e EnrichedSeries) Len() int {
	return len(e.Bars)
}

// Last returns the final bar and its indicators. ok is false for an empty series.
func (e EnrichedSeries) Last() (bar Bar, row IndicatorSet, ok bool) {
	if len(e.Bars) == 0 {
		return Bar{}, IndicatorSet{}, false
	}

	n := len(e.Bars) - 1

	return e.Bars[n], e.Rows[n], true
}
