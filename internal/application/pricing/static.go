package pricing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const SourceStatic = "static"

// StaticOracle serves prices from a fixed table. Set changes a price in
// place, which tests use to simulate market movement.
type StaticOracle struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func NewStaticOracle(prices map[string]float64) *StaticOracle {
	o := &StaticOracle{prices: make(map[string]float64, len(prices))}
	for symbol, price := range prices {
		o.prices[strings.ToUpper(symbol)] = price
	}
	return o
}

// Set replaces the price of symbol.
func (o *StaticOracle) Set(symbol string, price float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[strings.ToUpper(symbol)] = price
}

func (o *StaticOracle) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	symbol = strings.ToUpper(symbol)
	o.mu.RLock()
	price, ok := o.prices[symbol]
	o.mu.RUnlock()
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return Quote{Symbol: symbol, Price: price, Source: SourceStatic, AsOf: time.Now().UTC()}, nil
}
