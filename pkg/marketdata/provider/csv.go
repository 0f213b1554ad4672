package provider

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

var csvDateLayouts = []string{types.DateLayout, tushareDateLayout, "2006-01-02 15:04:05", time.RFC3339}

// column aliases accepted in CSV headers
var csvColumns = map[string][]string{
	"date":          {"date", "trade_date", "time", "datetime"},
	"symbol":        {"symbol", "ts_code", "ticker"},
	"open":          {"open"},
	"high":          {"high"},
	"low":           {"low"},
	"close":         {"close"},
	"volume":        {"volume", "vol"},
	"amount":        {"amount"},
	"open_interest": {"open_interest", "oi"},
	"settle":        {"settle"},
}

// CSVProvider reads bars from a CSV file with a header row. Required columns
// are date, open, high, low, close and volume.
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a provider for path. The file is read on every fetch.
func NewCSVProvider(path string) (*CSVProvider, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "csv provider needs a file path")
	}

	return &CSVProvider{path: path}, nil
}

// FetchBars reads the file and keeps the rows matching the request. Rows are
// filtered by symbol only when the file has a symbol column.
func (p *CSVProvider) FetchBars(_ context.Context, req Request) ([]types.Bar, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", p.path)
	}
	defer f.Close()

	bars, err := ReadCSVBars(f, req.Symbol)
	if err != nil {
		return nil, err
	}

	bars = normalize(bars, req)
	if len(bars) == 0 {
		return nil, notFound(req)
	}

	return bars, nil
}

// ReadCSVBars parses every row of r. symbol fills in the bar symbol when the
// file has no symbol column and filters rows when it does.
func ReadCSVBars(r io.Reader, symbol string) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to read csv header", err)
	}

	index := csvIndex(header)
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := index[required]; !ok {
			return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "csv is missing the %s column", required)
		}
	}

	var bars []types.Bar

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "csv line %d", line)
		}

		bar, err := csvBar(record, index, symbol)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "csv line %d", line)
		}

		if _, hasSymbol := index["symbol"]; hasSymbol && symbol != "" && !strings.EqualFold(bar.Symbol, symbol) {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func csvIndex(header []string) map[string]int {
	index := map[string]int{}

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))

		for column, aliases := range csvColumns {
			for _, alias := range aliases {
				if name == alias {
					if _, seen := index[column]; !seen {
						index[column] = i
					}
				}
			}
		}
	}

	return index
}

func csvBar(record []string, index map[string]int, symbol string) (types.Bar, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	date, err := parseCSVDate(field("date"))
	if err != nil {
		return types.Bar{}, err
	}

	bar := types.Bar{Time: date, Symbol: symbol}
	if s := field("symbol"); s != "" {
		bar.Symbol = s
	}

	for name, dst := range map[string]*float64{
		"open": &bar.Open, "high": &bar.High, "low": &bar.Low, "close": &bar.Close, "volume": &bar.Volume,
	} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid %s", name)
		}

		*dst = v
	}

	bar.Amount = optionalFloat(field("amount"))
	bar.OpenInterest = optionalFloat(field("open_interest"))
	bar.Settle = optionalFloat(field("settle"))

	return bar, nil
}

func parseCSVDate(s string) (time.Time, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeMarketDataParseFailed, "unrecognised date %q", s)
}

func optionalFloat(s string) optional.Option[float64] {
	if s == "" {
		return optional.None[float64]()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return optional.None[float64]()
	}

	return optional.Some(v)
}
