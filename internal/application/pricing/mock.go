package pricing

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SourceMock = "mock"

	// DefaultMockPrice is the base price of symbols missing from the table.
	DefaultMockPrice = 100.0
)

// MockOracle simulates market movement around a fixed base price table.
type MockOracle struct {
	base   map[string]float64
	jitter float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// DefaultMockPrices returns a fresh copy of the built-in base price table.
func DefaultMockPrices() map[string]float64 {
	return map[string]float64{
		"AAPL":  175.50,
		"GOOGL": 145.20,
		"MSFT":  425.30,
		"AMZN":  180.75,
		"META":  485.25,
		"TSLA":  175.80,
		"NVDA":  925.40,
		"JPM":   180.25,
		"V":     280.50,
		"WMT":   60.15,
	}
}

// NewMockOracle returns a MockOracle that moves prices by up to ±jitter
// (a fraction, 0.05 is 5%) of their base.
func NewMockOracle(jitter float64, seed int64) *MockOracle {
	return &MockOracle{
		base:   DefaultMockPrices(),
		jitter: jitter,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

func (m *MockOracle) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	symbol = strings.ToUpper(symbol)
	base, ok := m.base[symbol]
	if !ok {
		base = DefaultMockPrice
	}

	m.mu.Lock()
	variation := base * (m.rnd.Float64()*2 - 1) * m.jitter
	m.mu.Unlock()

	price := decimal.NewFromFloat(base + variation).Round(2)
	if !price.IsPositive() {
		price = decimal.NewFromFloat(base).Round(2)
	}
	return Quote{
		Symbol: symbol,
		Price:  price.InexactFloat64(),
		Source: SourceMock,
		AsOf:   time.Now().UTC(),
		Meta:   map[string]interface{}{"base": base, "jitter": m.jitter},
	}, nil
}
