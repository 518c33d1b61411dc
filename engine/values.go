package engine

import (
	"math/big"

	duckdb "github.com/duckdb/duckdb-go/v2"
	"github.com/shopspring/decimal"
)

// normalizeValue maps driver-native values onto types callers can format
// without importing the driver. Fixed-point values come back as exact
// decimals rather than the driver's internal representation.
func normalizeValue(v any) any {
	switch d := v.(type) {
	case duckdb.Decimal:
		return decimal.NewFromBigInt(d.Value, -int32(d.Scale))
	case *big.Int:
		return decimal.NewFromBigInt(d, 0)
	}
	return v
}
