package narrative

import (
	"bytes"
	"math"
	"text/template"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Advice is the R-Breaker recommendation for the next session.
type Advice string

const (
	AdviceLong  Advice = "long_breakout"
	AdviceShort Advice = "short_breakout"
	AdviceWait  Advice = "wait"
)

// String returns the human readable advice used in the report.
func (a Advice) String() string {
	switch a {
	case AdviceLong:
		return "long breakout, favour long positions"
	case AdviceShort:
		return "short breakout, favour short positions"
	default:
		return "stay on the sidelines and wait for a breakout"
	}
}

const (
	// ChannelProximity is how close, relative to the bound, the close must be
	// to count as testing a channel bound.
	ChannelProximity = 0.05
	// CalmATRRatio is the ATR to close ratio under which the market is
	// described as stable.
	CalmATRRatio = 0.05
	// NextDayBand is the half width of the next-day range estimate.
	NextDayBand = 0.01
)

// Input is everything the summarizer reads. Only the last row of Series is used.
type Input struct {
	Symbol    string
	StartDate string
	EndDate   string
	Series    types.EnrichedSeries
	Report    optional.Option[types.PerformanceReport]
	// Multiplier is the futures contract multiplier, reported when set.
	Multiplier optional.Option[float64]
}

// Summary is the rendered report plus the conditions it was built from.
type Summary struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Advice    Advice `json:"advice"`
	Text      string `json:"text"`
}

// Summarizer renders the final indicator state as a structured text block.
type Summarizer struct {
	tmpl    *template.Template
	printer *message.Printer
}

// NewSummarizer returns a summarizer that formats numbers for English readers.
func NewSummarizer() *Summarizer {
	return NewSummarizerWithLanguage(language.English)
}

// NewSummarizerWithLanguage formats numbers with the conventions of tag.
func NewSummarizerWithLanguage(tag language.Tag) *Summarizer {
	return &Summarizer{
		tmpl:    template.Must(template.New("report").Parse(reportTemplate)),
		printer: message.NewPrinter(tag),
	}
}

// Summarize renders the report. An empty series yields the no-data message
// rather than an error.
func (s *Summarizer) Summarize(input Input) (Summary, error) {
	summary := Summary{
		Symbol:    input.Symbol,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Advice:    AdviceWait,
	}

	bar, row, ok := input.Series.Last()
	if !ok {
		summary.Text = s.printer.Sprintf(
			"No data was found for %s from %s to %s. Check the symbol, the date range and the data source.",
			input.Symbol, input.StartDate, input.EndDate)

		return summary, nil
	}

	summary.Advice = RBreakerAdvice(bar.Close, row)
	view := s.buildView(input, bar, row, summary.Advice)

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, view); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeRenderFailed, "failed to render summary", err)
	}

	summary.Text = buf.String()

	return summary, nil
}

// RBreakerAdvice compares the close with the breakout levels of the same bar.
// Undefined levels mean there is nothing to break.
func RBreakerAdvice(price float64, row types.IndicatorSet) Advice {
	if r, err := row.BreakResistance.Take(); err == nil && price > r {
		return AdviceLong
	}

	if s, err := row.BreakSupport.Take(); err == nil && price < s {
		return AdviceShort
	}

	return AdviceWait
}

type rsiZone string

const (
	rsiUnknown    rsiZone = ""
	rsiOversold   rsiZone = "oversold"
	rsiWeak       rsiZone = "weak"
	rsiStrong     rsiZone = "strong"
	rsiOverbought rsiZone = "overbought"
)

func classifyRSI(rsi optional.Option[float64]) rsiZone {
	v, err := rsi.Take()
	if err != nil {
		return rsiUnknown
	}

	switch {
	case v > 70:
		return rsiOverbought
	case v > 50:
		return rsiStrong
	case v < 30:
		return rsiOversold
	default:
		return rsiWeak
	}
}

// within reports whether price lies within ChannelProximity of bound.
func within(price float64, bound optional.Option[float64]) bool {
	b, err := bound.Take()
	if err != nil || b == 0 {
		return false
	}

	return math.Abs(price-b) <= ChannelProximity*math.Abs(b)
}

// compare returns 1, -1 or 0 for above, below or undefined.
func compare(price float64, level optional.Option[float64]) int {
	v, err := level.Take()
	if err != nil {
		return 0
	}

	if price > v {
		return 1
	}

	return -1
}

type reportView struct {
	Symbol    string
	StartDate string
	EndDate   string
	Date      string
	Close     string

	// 1, -1 or 0 when the reference value is undefined.
	VsMA           int
	VsSupport      int
	MACDSign       int
	NearUpper      bool
	NearLower      bool
	ChannelDefined bool

	MIDA         string
	ChannelUpper string
	ChannelLower string
	RSI          string
	RSIZone      rsiZone
	MACD         string
	ATR          string
	ATRDefined   bool
	ATRCalm      bool

	Advice      string
	Waiting     bool
	NextDayLow  string
	NextDayHigh string
	BuySignal   bool
	SellSignal  bool

	Multiplier string
	Report     *reportFigures
}

type reportFigures struct {
	TotalReturn    string
	MaxDrawdown    string
	SharpeRatio    string
	WinRate        string
	FinalAsset     string
	NumberOfTrades int
}

func (s *Summarizer) buildView(input Input, bar types.Bar, row types.IndicatorSet, advice Advice) reportView {
	view := reportView{
		Symbol:         input.Symbol,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Date:           bar.Date(),
		Close:          s.number(bar.Close),
		VsMA:           compare(bar.Close, row.MIDA),
		VsSupport:      compare(bar.Close, row.ChannelLower),
		NearUpper:      within(bar.Close, row.ChannelUpper),
		NearLower:      within(bar.Close, row.ChannelLower),
		ChannelDefined: row.ChannelUpper.IsSome() && row.ChannelLower.IsSome(),
		MIDA:           s.optionalNumber(row.MIDA),
		ChannelUpper:   s.optionalNumber(row.ChannelUpper),
		ChannelLower:   s.optionalNumber(row.ChannelLower),
		RSI:            s.optionalNumber(row.RSI),
		RSIZone:        classifyRSI(row.RSI),
		MACD:           s.optionalNumber(row.MACD),
		ATR:            s.optionalNumber(row.ATR),
		Advice:         advice.String(),
		Waiting:        advice == AdviceWait,
		NextDayLow:     s.number(bar.Close * (1 - NextDayBand)),
		NextDayHigh:    s.number(bar.Close * (1 + NextDayBand)),
		BuySignal:      row.BuySignal == 1,
		SellSignal:     row.SellSignal == 1,
	}

	if m, err := row.MACD.Take(); err == nil {
		view.MACDSign = 1
		if m <= 0 {
			view.MACDSign = -1
		}
	}

	if atr, err := row.ATR.Take(); err == nil {
		view.ATRDefined = true
		view.ATRCalm = bar.Close != 0 && atr < CalmATRRatio*bar.Close
	}

	if m, err := input.Multiplier.Take(); err == nil {
		view.Multiplier = s.printer.Sprintf("%.0f", m)
	}

	if r, err := input.Report.Take(); err == nil {
		view.Report = &reportFigures{
			TotalReturn:    s.percent(r.TotalReturn),
			MaxDrawdown:    s.percent(r.MaxDrawdown),
			SharpeRatio:    s.number(r.SharpeRatio),
			WinRate:        s.percent(r.WinRate),
			FinalAsset:     s.number(r.FinalAsset),
			NumberOfTrades: r.NumberOfTrades,
		}
	}

	return view
}

func (s *Summarizer) number(v float64) string {
	return s.printer.Sprintf("%.2f", v)
}

func (s *Summarizer) percent(v float64) string {
	return s.printer.Sprintf("%.2f%%", v*100)
}

func (s *Summarizer) optionalNumber(o optional.Option[float64]) string {
	v, err := o.Take()
	if err != nil {
		return "n/a"
	}

	return s.number(v)
}
