package marketdata

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
)

// BaseDownloadConfig contains common fields for all download configurations.
type BaseDownloadConfig struct {
	Symbol    string `json:"symbol" jsonschema:"title=Symbol,description=The code to download (e.g. 600000 or IF2406 or BTCUSDT),required" validate:"required"`
	DataType  string `json:"dataType" jsonschema:"title=Data Type,description=Instrument class,required,enum=stock,enum=futures,enum=index,enum=crypto" validate:"required,oneof=stock futures index crypto"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=First date (YYYY-MM-DD),format=date,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=Last date (YYYY-MM-DD),format=date,required" validate:"required"`
	Interval  string `json:"interval,omitempty" jsonschema:"title=Interval,description=Bar size,default=1d,enum=1m,enum=5m,enum=15m,enum=30m,enum=1h,enum=4h,enum=1d,enum=1w,enum=1M" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d 1w 1M"`
}

// TushareDownloadConfig contains configuration for downloading from tushare pro.
type TushareDownloadConfig struct {
	BaseDownloadConfig

	Token string `json:"token" jsonschema:"title=Token,description=tushare pro API token,required" validate:"required" keychain:"true"`
}

// PolygonDownloadConfig contains configuration for downloading from Polygon.io.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required" keychain:"true"`
}

// BinanceDownloadConfig contains configuration for downloading from Binance.
// Binance public market data API does not require authentication.
type BinanceDownloadConfig struct {
	BaseDownloadConfig
}

// DownloadConfig is implemented by every provider specific configuration.
type DownloadConfig interface {
	Validate() error
	ToDownloadParams() (DownloadParams, error)
	ToClientConfig(dataPath string) ClientConfig
}

// Validate checks the tags and the date range. Symbols are canonicalised by
// ToDownloadParams, not here.
func (c *BaseDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := parseRange(c.StartDate, c.EndDate); err != nil {
		return err
	}

	return nil
}

// Validate validates the TushareDownloadConfig.
func (c *TushareDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// Validate validates the PolygonDownloadConfig.
func (c *PolygonDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// Validate validates the BinanceDownloadConfig.
func (c *BinanceDownloadConfig) Validate() error {
	return c.BaseDownloadConfig.Validate()
}

// ToDownloadParams canonicalises the symbol and parses the dates.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	dataType := types.DataType(c.DataType)

	symbol, err := CanonicalSymbol(c.Symbol, dataType)
	if err != nil {
		return DownloadParams{}, err
	}

	r, err := parseRange(c.StartDate, c.EndDate)
	if err != nil {
		return DownloadParams{}, err
	}

	return DownloadParams{
		Symbol:    symbol,
		DataType:  dataType,
		StartDate: r.Start,
		EndDate:   r.End,
		Interval:  provider.Interval(c.Interval).OrDefault(),
	}, nil
}

// ToClientConfig converts a TushareDownloadConfig to ClientConfig.
func (c *TushareDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderTushare,
		WriterType:   WriterDuckDB,
		DataPath:     dataPath,
		Options:      provider.Options{TushareToken: c.Token},
	}
}

// ToClientConfig converts a PolygonDownloadConfig to ClientConfig.
func (c *PolygonDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderPolygon,
		WriterType:   WriterDuckDB,
		DataPath:     dataPath,
		Options:      provider.Options{PolygonAPIKey: c.ApiKey},
	}
}

// ToClientConfig converts a BinanceDownloadConfig to ClientConfig.
func (c *BinanceDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     dataPath,
	}
}

func parseConfig[T any, P interface {
	*T
	Validate() error
}](jsonConfig string) (*T, error) {
	var config T
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := P(&config).Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseTushareConfig parses JSON into a TushareDownloadConfig.
func ParseTushareConfig(jsonConfig string) (*TushareDownloadConfig, error) {
	return parseConfig[TushareDownloadConfig](jsonConfig)
}

// ParsePolygonConfig parses JSON into a PolygonDownloadConfig.
func ParsePolygonConfig(jsonConfig string) (*PolygonDownloadConfig, error) {
	return parseConfig[PolygonDownloadConfig](jsonConfig)
}

// ParseBinanceConfig parses JSON into a BinanceDownloadConfig.
func ParseBinanceConfig(jsonConfig string) (*BinanceDownloadConfig, error) {
	return parseConfig[BinanceDownloadConfig](jsonConfig)
}
