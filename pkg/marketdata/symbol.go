package marketdata

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// FuturesExchanges maps an exchange to the futures products it lists.
var FuturesExchanges = map[string][]string{
	"CFFEX": {"IF", "IC", "IH", "IM", "T", "TS"},
	"SHFE":  {"CU", "AL", "ZN"},
	"DCE":   {"M", "C", "I"},
	"CZCE":  {"MA"},
	"INE":   {"SC"},
	"GFEX":  {},
}

var productExchange = func() map[string]string {
	m := map[string]string{}

	for exchange, products := range FuturesExchanges {
		for _, p := range products {
			m[p] = exchange
		}
	}

	return m
}()

var indexAliases = map[string]string{
	"000300": "000300.SH",
	"000001": "000001.SH",
	"000905": "000905.SH",
	"399001": "399001.SZ",
}

var contractMultipliers = map[string]float64{
	"IF": 300,
	"IC": 200,
	"IH": 300,
	"IM": 200,
}

var (
	stockSuffix   = regexp.MustCompile(`\.(SZ|SH|BJ)$`)
	indexSuffix   = regexp.MustCompile(`\.(SZ|SH)$`)
	futuresSuffix = regexp.MustCompile(`\.(CFFEX|SHFE|DCE|CZCE|INE|GFEX)$`)
	contractCode  = regexp.MustCompile(`^([A-Z]+)(\d+)$`)
	productCode   = regexp.MustCompile(`^[A-Z]+$`)
)

// CanonicalSymbol resolves a user supplied code to the form the data
// sources expect, for example 600000 to 600000.SH or if2406 to IF2406.CFFEX.
func CanonicalSymbol(symbol string, dataType types.DataType) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", errors.New(errors.ErrCodeInvalidSymbol, "symbol is required")
	}

	switch dataType {
	case types.DataTypeStock:
		return canonicalStock(s)
	case types.DataTypeFutures:
		return canonicalFutures(s)
	case types.DataTypeIndex:
		if alias, ok := indexAliases[indexSuffix.ReplaceAllString(s, "")]; ok {
			return alias, nil
		}

		return s, nil
	case types.DataTypeCrypto:
		return strings.NewReplacer("/", "", "-", "", "_", "").Replace(s), nil
	default:
		return "", errors.Newf(errors.ErrCodeUnsupportedDataType, "unsupported data type: %s", dataType)
	}
}

func canonicalStock(s string) (string, error) {
	code := stockSuffix.ReplaceAllString(s, "")

	switch {
	case strings.HasPrefix(code, "6"):
		return code + ".SH", nil
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return code + ".SZ", nil
	case strings.HasPrefix(code, "4"), strings.HasPrefix(code, "8"), strings.HasPrefix(code, "9"):
		return code + ".BJ", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidSymbol, "invalid stock symbol: %s", s)
	}
}

func canonicalFutures(s string) (string, error) {
	code := futuresSuffix.ReplaceAllString(s, "")

	if m := contractCode.FindStringSubmatch(code); m != nil {
		product, month := m[1], m[2]

		exchange, ok := productExchange[product]
		if !ok {
			return "", errors.Newf(errors.ErrCodeInvalidSymbol, "unsupported futures product: %s", product)
		}

		if len(month) != 4 {
			return "", errors.Newf(errors.ErrCodeInvalidSymbol, "invalid contract month: %s", month)
		}

		return fmt.Sprintf("%s%s.%s", product, month, exchange), nil
	}

	if productCode.MatchString(code) {
		exchange, ok := productExchange[code]
		if !ok {
			return "", errors.Newf(errors.ErrCodeInvalidSymbol, "unsupported futures product: %s", code)
		}

		return code + "." + exchange, nil
	}

	return "", errors.Newf(errors.ErrCodeInvalidSymbol, "invalid futures symbol: %s", s)
}

// ContractMultiplier returns the contract size of a futures symbol. Products
// without a known size count as 1.
func ContractMultiplier(symbol string) float64 {
	product := strings.ToUpper(strings.SplitN(symbol, ".", 2)[0])
	if len(product) > 2 {
		product = product[:2]
	}

	if m, ok := contractMultipliers[product]; ok {
		return m
	}

	return 1
}
