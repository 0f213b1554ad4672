package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// DefaultTushareURL is the tushare pro HTTP endpoint.
const DefaultTushareURL = "http://api.tushare.pro"

const tushareDateLayout = "20060102"

var (
	barFields     = "ts_code,trade_date,open,high,low,close,vol,amount"
	futuresFields = "ts_code,trade_date,open,high,low,close,settle,vol,amount,oi"
	// IF.CFFEX names a product rather than a contract.
	bareProduct = regexp.MustCompile(`^([A-Z]+)\.([A-Z]+)$`)
)

type tushareRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

type tushareResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Fields []string `json:"fields"`
		Items  [][]any  `json:"items"`
	} `json:"data"`
}

// tushareTable is the column-indexed payload of a tushare response.
type tushareTable struct {
	index map[string]int
	items [][]any
}

func (t tushareTable) str(row []any, field string) string {
	i, ok := t.index[field]
	if !ok || i >= len(row) || row[i] == nil {
		return ""
	}

	if s, ok := row[i].(string); ok {
		return s
	}

	return fmt.Sprint(row[i])
}

func (t tushareTable) num(row []any, field string) optional.Option[float64] {
	i, ok := t.index[field]
	if !ok || i >= len(row) {
		return optional.None[float64]()
	}

	if v, ok := row[i].(float64); ok {
		return optional.Some(v)
	}

	return optional.None[float64]()
}

// TushareOption customises a TushareClient.
type TushareOption func(*TushareClient)

// WithTushareURL points the client at another endpoint.
func WithTushareURL(url string) TushareOption {
	return func(c *TushareClient) {
		c.client.SetBaseURL(url)
	}
}

// WithTushareTimeout sets the per request timeout.
func WithTushareTimeout(d time.Duration) TushareOption {
	return func(c *TushareClient) {
		c.client.SetTimeout(d)
	}
}

// TushareClient fetches A-share stock, index and futures bars from tushare pro.
type TushareClient struct {
	client *resty.Client
	token  string
}

// NewTushareClient creates a client. The token is required.
func NewTushareClient(token string, opts ...TushareOption) (*TushareClient, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "tushare token is required")
	}

	c := &TushareClient{
		client: resty.New().
			SetBaseURL(DefaultTushareURL).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
		token: token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchBars fetches bars for a canonical tushare code such as 600000.SH,
// 000300.SH or IF2406.CFFEX.
func (c *TushareClient) FetchBars(ctx context.Context, req Request) ([]types.Bar, error) {
	freq, err := req.Interval.tushareFrequency()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "unsupported interval", err)
	}

	symbol := req.Symbol
	if req.DataType == types.DataTypeFutures {
		symbol, err = c.resolveContract(ctx, symbol, req.End)
		if err != nil {
			return nil, err
		}
	}

	apiName, fields, params, err := tushareQuery(req.DataType, freq)
	if err != nil {
		return nil, err
	}

	params["ts_code"] = symbol
	if !req.Start.IsZero() {
		params["start_date"] = req.Start.Format(tushareDateLayout)
	}

	if !req.End.IsZero() {
		params["end_date"] = req.End.Format(tushareDateLayout)
	}

	table, err := c.query(ctx, apiName, params, fields)
	if err != nil {
		return nil, err
	}

	bars := make([]types.Bar, 0, len(table.items))

	for i, row := range table.items {
		bar, err := tushareBar(table, row, req.DataType)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "tushare %s row %d", apiName, i)
		}

		bars = append(bars, bar)
	}

	bars = normalize(bars, req)
	if len(bars) == 0 {
		return nil, notFound(req)
	}

	return bars, nil
}

func tushareQuery(dataType types.DataType, freq string) (apiName, fields string, params map[string]string, err error) {
	params = map[string]string{}

	switch dataType {
	case types.DataTypeStock, "":
		return freq, barFields, params, nil
	case types.DataTypeIndex:
		return "index_" + freq, barFields, params, nil
	case types.DataTypeFutures:
		if freq == "daily" {
			return "fut_daily", futuresFields, params, nil
		}

		params["freq"] = strings.TrimSuffix(freq, "ly")

		return "fut_weekly_monthly", futuresFields, params, nil
	default:
		return "", "", nil, errors.Newf(errors.ErrCodeUnsupportedDataType, "tushare does not serve %s data", dataType)
	}
}

func tushareBar(table tushareTable, row []any, dataType types.DataType) (types.Bar, error) {
	date, err := time.Parse(tushareDateLayout, table.str(row, "trade_date"))
	if err != nil {
		return types.Bar{}, err
	}

	bar := types.Bar{
		Time:   date,
		Symbol: table.str(row, "ts_code"),
		Amount: table.num(row, "amount"),
	}

	for field, dst := range map[string]*float64{
		"open": &bar.Open, "high": &bar.High, "low": &bar.Low, "close": &bar.Close, "vol": &bar.Volume,
	} {
		v, err := table.num(row, field).Take()
		if err != nil {
			return types.Bar{}, fmt.Errorf("missing %s", field)
		}

		*dst = v
	}

	if dataType == types.DataTypeFutures {
		bar.Amount = optional.Some(table.num(row, "amount").TakeOr(0))
		bar.OpenInterest = optional.Some(table.num(row, "oi").TakeOr(0))
		bar.Settle = optional.Some(table.num(row, "settle").TakeOr(bar.Close))
	}

	return bar, nil
}

// resolveContract turns a bare product such as IF.CFFEX into the listed
// contract with the latest delisting date. Full contract codes pass through.
func (c *TushareClient) resolveContract(ctx context.Context, symbol string, asOf time.Time) (string, error) {
	m := bareProduct.FindStringSubmatch(symbol)
	if m == nil {
		return symbol, nil
	}

	product, exchange := m[1], m[2]

	table, err := c.query(ctx, "fut_basic", map[string]string{
		"exchange": exchange,
		"fut_type": "1",
	}, "ts_code,symbol,list_date,delist_date")
	if err != nil {
		return "", err
	}

	contract := regexp.MustCompile(`^` + product + `\d+\.`)
	cutoff := ""

	if !asOf.IsZero() {
		cutoff = asOf.Format(tushareDateLayout)
	}

	best, bestDelist := "", ""

	for _, row := range table.items {
		code := table.str(row, "ts_code")
		if !contract.MatchString(code) {
			continue
		}

		if cutoff != "" && table.str(row, "list_date") > cutoff {
			continue
		}

		if delist := table.str(row, "delist_date"); delist > bestDelist {
			best, bestDelist = code, delist
		}
	}

	if best == "" {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "no listed contract for %s", symbol)
	}

	return best, nil
}

func (c *TushareClient) query(ctx context.Context, apiName string, params map[string]string, fields string) (tushareTable, error) {
	var out tushareResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(tushareRequest{APIName: apiName, Token: c.token, Params: params, Fields: fields}).
		SetResult(&out).
		Post("")
	if err != nil {
		return tushareTable{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "tushare %s request failed", apiName)
	}

	if resp.IsError() {
		return tushareTable{}, errors.Newf(errors.ErrCodeMarketDataFetchFailed,
			"tushare %s returned %d", apiName, resp.StatusCode())
	}

	if out.Code != 0 {
		return tushareTable{}, errors.Newf(errors.ErrCodeMarketDataFetchFailed,
			"tushare %s error %d: %s", apiName, out.Code, out.Msg)
	}

	if out.Data == nil {
		return tushareTable{}, errors.Newf(errors.ErrCodeMarketDataParseFailed, "tushare %s returned no data", apiName)
	}

	index := make(map[string]int, len(out.Data.Fields))
	for i, f := range out.Data.Fields {
		index[f] = i
	}

	return tushareTable{index: index, items: out.Data.Items}, nil
}
