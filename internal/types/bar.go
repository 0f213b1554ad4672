package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Bar is one trading period of price and volume data.
type Bar struct {
	Time   time.Time `json:"date" yaml:"date"`
	Symbol string    `json:"symbol" yaml:"symbol"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
	// Amount is the traded turnover. Not every source reports it.
	Amount optional.Option[float64] `json:"amount,omitempty" yaml:"amount,omitempty"`
	// OpenInterest is only reported for futures.
	OpenInterest optional.Option[float64] `json:"open_interest,omitempty" yaml:"open_interest,omitempty"`
	// Settle is the futures settlement price.
	Settle optional.Option[float64] `json:"settle,omitempty" yaml:"settle,omitempty"`
}

// Date returns the bar's calendar date in YYYY-MM-DD form.
func (b Bar) Date() string {
	return b.Time.Format(DateLayout)
}

// DateLayout is the date format used by requests, artefacts and CSV files.
const DateLayout = "2006-01-02"

// Closes extracts the close prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}
