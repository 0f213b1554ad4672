package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// binancePageSize is the number of klines Binance returns per request by default.
const binancePageSize = 500

// BinanceKlinesService is the kline query builder of the Binance client.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the part of the Binance client the provider uses.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceREST struct {
	client *binance.Client
}

func (b binanceREST) NewKlinesService() BinanceKlinesService {
	return &binanceKlines{svc: b.client.NewKlinesService()}
}

type binanceKlines struct {
	svc *binance.KlinesService
}

func (k *binanceKlines) Symbol(symbol string) BinanceKlinesService {
	k.svc.Symbol(symbol)

	return k
}

func (k *binanceKlines) Interval(interval string) BinanceKlinesService {
	k.svc.Interval(interval)

	return k
}

func (k *binanceKlines) StartTime(startTime int64) BinanceKlinesService {
	k.svc.StartTime(startTime)

	return k
}

func (k *binanceKlines) EndTime(endTime int64) BinanceKlinesService {
	k.svc.EndTime(endTime)

	return k
}

func (k *binanceKlines) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.svc.Do(ctx)
}

// BinanceClient fetches spot klines from Binance. The public market data API
// does not need credentials.
type BinanceClient struct {
	api BinanceAPIClient
}

// NewBinanceClient creates a client for the public Binance API.
func NewBinanceClient() *BinanceClient {
	return NewBinanceClientWithAPI(binanceREST{client: binance.NewClient("", "")})
}

// NewBinanceClientWithAPI creates a client on top of an existing API implementation.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{api: api}
}

// FetchBars pages through klines from Start to the end of End's day.
func (c *BinanceClient) FetchBars(ctx context.Context, req Request) ([]types.Bar, error) {
	interval := req.Interval.OrDefault()
	if !interval.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval %s", interval)
	}

	end := req.End
	if end.IsZero() {
		end = time.Now()
	} else {
		end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
	}

	endMillis := end.UnixMilli()
	current := req.Start.UnixMilli()

	var bars []types.Bar

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "binance download cancelled", err)
		}

		klines, err := c.api.NewKlinesService().
			Symbol(req.Symbol).
			Interval(string(interval)).
			StartTime(current).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "binance klines for %s", req.Symbol)
		}

		page, err := klinesToBars(req.Symbol, klines)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "binance klines for %s", req.Symbol)
		}

		bars = append(bars, page...)

		if len(klines) < binancePageSize {
			break
		}

		// continue one millisecond after the last close to avoid duplicates
		current = klines[len(klines)-1].CloseTime + 1
		if current >= endMillis {
			break
		}
	}

	bars = normalize(bars, req)
	if len(bars) == 0 {
		return nil, notFound(req)
	}

	return bars, nil
}

func klinesToBars(symbol string, klines []*binance.Kline) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		values := [5]float64{}

		for i, raw := range [5]string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("kline at %d: %w", k.OpenTime, err)
			}

			values[i] = v
		}

		bars = append(bars, types.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Symbol: symbol,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}
