package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// Provider and Request are re-exported so callers only need this package.
type (
	Provider = provider.Provider
	Request  = provider.Request
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	// WriterDuckDB writes one parquet file per download.
	WriterDuckDB WriterType = "duckdb"
	// WriterArchive merges downloads into one parquet file per symbol and interval.
	WriterArchive WriterType = "archive"
)

// OnDownloadProgress reports written bars out of the total fetched.
type OnDownloadProgress = func(current float64, total float64, message string)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType provider.ProviderType `validate:"required,oneof=tushare polygon binance csv parquet"`
	WriterType   WriterType            `validate:"required,oneof=duckdb archive"`
	DataPath     string                `validate:"required"`
	Options      provider.Options
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbol    string            `validate:"required"`
	DataType  types.DataType    `validate:"required,oneof=stock futures index crypto"`
	StartDate time.Time         `validate:"required"`
	EndDate   time.Time         `validate:"required,gtefield=StartDate"`
	Interval  provider.Interval `validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d 1w 1M"`
}

// Client downloads bars from a provider and stores them with a writer.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress OnDownloadProgress
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.Options)
	if err != nil {
		return nil, err
	}

	return newClient(marketProvider, config, validate, onProgress, log), nil
}

// NewClientWithProvider creates a client around an existing provider.
func NewClientWithProvider(p provider.Provider, config ClientConfig, onProgress OnDownloadProgress, log *logger.Logger) *Client {
	return newClient(p, config, validator.New(), onProgress, log)
}

func newClient(p provider.Provider, config ClientConfig, validate *validator.Validate, onProgress OnDownloadProgress, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if onProgress == nil {
		onProgress = func(float64, float64, string) {}
	}

	return &Client{
		provider:   p,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		logger:     log,
	}
}

// Download fetches the bars and writes them to a parquet file under the
// configured data path. It returns the file path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	bars, err := c.provider.FetchBars(ctx, provider.Request{
		Symbol:   params.Symbol,
		DataType: params.DataType,
		Start:    params.StartDate,
		End:      params.EndDate,
		Interval: params.Interval,
	})
	if err != nil {
		return "", err
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.logger.Warn("Failed to close writer", zap.Error(err))
		}
	}()

	message := fmt.Sprintf("Writing %s", params.Symbol)
	total := float64(len(bars))

	for i, bar := range bars {
		if err := marketWriter.Write(bar); err != nil {
			return "", err
		}

		c.onProgress(float64(i+1), total, message)
	}

	path, err := marketWriter.Finalize()
	if err != nil {
		return "", err
	}

	c.logger.Info("Downloaded bars",
		zap.String("symbol", params.Symbol),
		zap.Int("bars", len(bars)),
		zap.String("path", path),
	)

	return path, nil
}

// OutputFileName is SYMBOL_START_END_INTERVAL.parquet.
func OutputFileName(params DownloadParams) string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Symbol,
		params.StartDate.Format(types.DateLayout),
		params.EndDate.Format(types.DateLayout),
		params.Interval.OrDefault())
}

func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data path", err)
	}

	var marketWriter writer.MarketDataWriter

	switch c.config.WriterType {
	case WriterDuckDB:
		marketWriter = writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, OutputFileName(params)), c.logger)
	case WriterArchive:
		marketWriter = writer.NewArchiveWriter(c.config.DataPath, params.Symbol, string(params.Interval.OrDefault()), c.logger)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}

	if err := marketWriter.Initialize(); err != nil {
		return nil, err
	}

	return marketWriter, nil
}
