package marketdata

import (
	"reflect"
	"sort"
	"strings"

	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-insight/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	Downloadable bool   `json:"downloadable"`
}

var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderTushare: {
		Name:         string(provider.ProviderTushare),
		DisplayName:  "tushare pro",
		Description:  "China A-share, index and futures daily, weekly and monthly bars",
		RequiresAuth: true,
		Downloadable: true,
	},
	provider.ProviderPolygon: {
		Name:         string(provider.ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market aggregates",
		RequiresAuth: true,
		Downloadable: true,
	},
	provider.ProviderBinance: {
		Name:         string(provider.ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency klines for spot trading pairs",
		RequiresAuth: false,
		Downloadable: true,
	},
	provider.ProviderCSV: {
		Name:        string(provider.ProviderCSV),
		DisplayName: "CSV file",
		Description: "Local CSV file with date and OHLCV columns",
	},
	provider.ProviderParquet: {
		Name:        string(provider.ProviderParquet),
		DisplayName: "Parquet file",
		Description: "Local parquet file produced by a download",
	},
}

// GetSupportedProviders returns the sorted names of all providers.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

func emptyDownloadConfig(providerName string) (any, error) {
	switch provider.ProviderType(providerName) {
	case provider.ProviderTushare:
		return TushareDownloadConfig{}, nil
	case provider.ProviderPolygon:
		return PolygonDownloadConfig{}, nil
	case provider.ProviderBinance:
		return BinanceDownloadConfig{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "provider %s has no download configuration", providerName)
	}
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	config, err := emptyDownloadConfig(providerName)
	if err != nil {
		return "", err
	}

	return utils.GetSchemaFromConfig(config)
}

// GetDownloadKeychainFields returns the JSON names of the secret fields of a
// provider's download configuration.
func GetDownloadKeychainFields(providerName string) ([]string, error) {
	config, err := emptyDownloadConfig(providerName)
	if err != nil {
		return nil, err
	}

	return keychainFields(reflect.TypeOf(config)), nil
}

func keychainFields(t reflect.Type) []string {
	fields := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fields = append(fields, keychainFields(field.Type)...)

			continue
		}

		if field.Tag.Get("keychain") != "true" {
			continue
		}

		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" {
			name = field.Name
		}

		fields = append(fields, name)
	}

	return fields
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
func ParseDownloadConfig(providerName string, jsonConfig string) (DownloadConfig, error) {
	switch provider.ProviderType(providerName) {
	case provider.ProviderTushare:
		config, err := ParseTushareConfig(jsonConfig)
		if err != nil {
			return nil, err
		}

		return config, nil
	case provider.ProviderPolygon:
		config, err := ParsePolygonConfig(jsonConfig)
		if err != nil {
			return nil, err
		}

		return config, nil
	case provider.ProviderBinance:
		config, err := ParseBinanceConfig(jsonConfig)
		if err != nil {
			return nil, err
		}

		return config, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "provider %s has no download configuration", providerName)
	}
}
