package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMalformedInput       ErrorCode = 102
	ErrCodeInvalidSymbol        ErrorCode = 103
	ErrCodeInvalidDateRange     ErrorCode = 104
	ErrCodeUnsupportedDataType  ErrorCode = 105
	ErrCodeInvalidPeriod        ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError ErrorCode = 600
	ErrCodeBacktestEmptySeries ErrorCode = 601
	ErrCodeBacktestWriteFailed ErrorCode = 602

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 703

	// Narrative errors (800-899)
	ErrCodeCompletionFailed ErrorCode = 800
	ErrCodeRenderFailed     ErrorCode = 801

	// Storage errors (900-999)
	ErrCodeArtifactNotFound     ErrorCode = 900
	ErrCodeArtifactWriteFailed  ErrorCode = 901
	ErrCodeArtifactIncompatible ErrorCode = 902
)

// IsValidation reports whether the code belongs to the validation category.
func (c ErrorCode) IsValidation() bool {
	return c >= 100 && c < 200
}

// IsNotFound reports whether the code describes a missing resource.
func (c ErrorCode) IsNotFound() bool {
	return c == ErrCodeDataNotFound || c == ErrCodeArtifactNotFound
}
