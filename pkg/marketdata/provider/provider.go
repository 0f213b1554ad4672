package provider

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderTushare ProviderType = "tushare"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderCSV     ProviderType = "csv"
	ProviderParquet ProviderType = "parquet"
)

// Request selects the bars to fetch. Start and End are inclusive calendar
// dates. A zero Start or End leaves that side of the range open.
type Request struct {
	Symbol   string
	DataType types.DataType
	Start    time.Time
	End      time.Time
	Interval Interval
}

// Provider returns an ordered, deduplicated bar sequence for a request.
type Provider interface {
	FetchBars(ctx context.Context, req Request) ([]types.Bar, error)
}

// Options carries the credentials and paths the providers need.
type Options struct {
	TushareToken  string
	TushareURL    string
	PolygonAPIKey string
	// Path is the input file for the csv and parquet providers.
	Path string
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, opts Options) (Provider, error) {
	switch providerType {
	case ProviderTushare:
		var tushareOpts []TushareOption
		if opts.TushareURL != "" {
			tushareOpts = append(tushareOpts, WithTushareURL(opts.TushareURL))
		}

		return NewTushareClient(opts.TushareToken, tushareOpts...)
	case ProviderPolygon:
		return NewPolygonClient(opts.PolygonAPIKey)
	case ProviderBinance:
		return NewBinanceClient(), nil
	case ProviderCSV:
		return NewCSVProvider(opts.Path)
	case ProviderParquet:
		return NewParquetProvider(opts.Path)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// normalize sorts bars by time then symbol, keeps the last of any bars
// sharing a symbol and timestamp and drops bars outside the request range.
// Bars of different symbols on the same timestamp are all kept.
func normalize(bars []types.Bar, req Request) []types.Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		if !bars[i].Time.Equal(bars[j].Time) {
			return bars[i].Time.Before(bars[j].Time)
		}

		return bars[i].Symbol < bars[j].Symbol
	})

	start := ""
	if !req.Start.IsZero() {
		start = req.Start.Format(types.DateLayout)
	}

	end := ""
	if !req.End.IsZero() {
		end = req.End.Format(types.DateLayout)
	}

	out := make([]types.Bar, 0, len(bars))

	for _, bar := range bars {
		date := bar.Date()
		if start != "" && date < start {
			continue
		}

		if end != "" && date > end {
			continue
		}

		if n := len(out); n > 0 && out[n-1].Time.Equal(bar.Time) && out[n-1].Symbol == bar.Symbol {
			out[n-1] = bar

			continue
		}

		out = append(out, bar)
	}

	return out
}

func notFound(req Request) error {
	return errors.Newf(errors.ErrCodeDataNotFound, "no bars found for %s from %s to %s",
		req.Symbol, req.Start.Format(types.DateLayout), req.End.Format(types.DateLayout))
}
