package types

import "strings"

// DataType is the instrument class a symbol belongs to.
type DataType string

const (
	DataTypeStock   DataType = "stock"
	DataTypeFutures DataType = "futures"
	DataTypeIndex   DataType = "index"
	DataTypeCrypto  DataType = "crypto"
)

// AllDataTypes lists the supported instrument classes.
var AllDataTypes = []DataType{DataTypeStock, DataTypeFutures, DataTypeIndex, DataTypeCrypto}

// ParseDataType accepts the English names as well as the labels used by the
// web form (股票, 期货, 指数). Unknown values return false.
func ParseDataType(s string) (DataType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock", "股票":
		return DataTypeStock, true
	case "futures", "future", "期货":
		return DataTypeFutures, true
	case "index", "指数":
		return DataTypeIndex, true
	case "crypto":
		return DataTypeCrypto, true
	default:
		return "", false
	}
}
