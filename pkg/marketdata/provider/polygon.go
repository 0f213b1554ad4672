package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// AggsIterator walks a paginated aggregates response.
type AggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPI is the part of the Polygon REST client the provider uses.
type PolygonAPI interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams) AggsIterator
}

type polygonREST struct {
	client *polygon.Client
}

func (p polygonREST) ListAggs(ctx context.Context, params *models.ListAggsParams) AggsIterator {
	return p.client.ListAggs(ctx, params)
}

// PolygonClient fetches US equity aggregates from Polygon.io.
type PolygonClient struct {
	api PolygonAPI
}

// NewPolygonClient creates a client backed by the Polygon REST API.
func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return NewPolygonClientWithAPI(polygonREST{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client on top of an existing API implementation.
func NewPolygonClientWithAPI(api PolygonAPI) *PolygonClient {
	return &PolygonClient{api: api}
}

// FetchBars lists the aggregates for the request range.
func (c *PolygonClient) FetchBars(ctx context.Context, req Request) ([]types.Bar, error) {
	interval := req.Interval.OrDefault()

	end := req.End
	if end.IsZero() {
		end = time.Now()
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     req.Symbol,
		Multiplier: interval.Multiplier(),
		Timespan:   interval.Timespan(),
		From:       models.Millis(req.Start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	it := c.api.ListAggs(ctx, params)

	var bars []types.Bar

	for it.Next() {
		agg := it.Item()
		bars = append(bars, types.Bar{
			Time:   time.Time(agg.Timestamp).UTC(),
			Symbol: req.Symbol,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := it.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "polygon aggregates for %s", req.Symbol)
	}

	bars = normalize(bars, req)
	if len(bars) == 0 {
		return nil, notFound(req)
	}

	return bars, nil
}
