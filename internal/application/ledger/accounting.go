package ledger

import (
	"strings"

	"stockfolio-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// CanonicalSymbol is the storage and comparison form of a ticker symbol.
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// WeightedAverage merges a purchase of qty shares at price into a position
// of heldQty shares bought at heldAvg. The result is not rounded.
func WeightedAverage(heldQty int64, heldAvg float64, qty int64, price float64) float64 {
	held := decimal.NewFromInt(heldQty).Mul(decimal.NewFromFloat(heldAvg))
	bought := decimal.NewFromInt(qty).Mul(decimal.NewFromFloat(price))
	return held.Add(bought).
		DivRound(decimal.NewFromInt(heldQty+qty), 16).
		InexactFloat64()
}

// MarketValue is qty shares at price.
func MarketValue(qty int64, price float64) float64 {
	return decimal.NewFromInt(qty).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// TotalValue sums the current values of holdings in order; zero when there
// are none. The float64 sum is kept as is so it equals what a reader of the
// holdings adds up.
func TotalValue(holdings []domain.Holding) float64 {
	var total float64
	for i := range holdings {
		total += holdings[i].CurrentValue
	}
	return total
}
