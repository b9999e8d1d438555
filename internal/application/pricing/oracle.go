// Package pricing provides the market price oracles the ledger values
// holdings with.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownSymbol is returned when an oracle has no price for a symbol.
var ErrUnknownSymbol = errors.New("no price available for symbol")

// Quote is a unit price observation.
type Quote struct {
	Symbol string                 `json:"symbol"`
	Price  float64                `json:"price"`
	Source string                 `json:"source"`
	AsOf   time.Time              `json:"as_of"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// Oracle returns the current unit price of a symbol. Successive calls for
// the same symbol may return different prices.
type Oracle interface {
	CurrentPrice(ctx context.Context, symbol string) (Quote, error)
}

// Options selects an oracle implementation.
type Options struct {
	Source          string // mock | static | alpaca
	Jitter          float64
	Seed            int64
	StaticPrices    string
	AlpacaAPIKey    string
	AlpacaAPISecret string
	AlpacaDataURL   string
}

// NewOracle builds the oracle named by opts.Source.
func NewOracle(opts Options) (Oracle, error) {
	switch opts.Source {
	case "", "mock":
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return NewMockOracle(opts.Jitter, seed), nil
	case "static":
		prices, err := ParseStaticPrices(opts.StaticPrices)
		if err != nil {
			return nil, err
		}
		return NewStaticOracle(prices), nil
	case "alpaca":
		return NewAlpacaOracle(opts.AlpacaAPIKey, opts.AlpacaAPISecret, opts.AlpacaDataURL), nil
	default:
		return nil, fmt.Errorf("unknown price source %q", opts.Source)
	}
}

// ParseStaticPrices parses "AAPL=175.5,MSFT=425.3" into a price table.
func ParseStaticPrices(s string) (map[string]float64, error) {
	prices := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		symbol, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("static price %q: expected SYMBOL=PRICE", pair)
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("static price %q: %w", pair, err)
		}
		if symbol == "" || price <= 0 {
			return nil, fmt.Errorf("static price %q: symbol and a positive price are required", pair)
		}
		prices[symbol] = price
	}
	if len(prices) == 0 {
		return nil, errors.New("static prices: no entries")
	}
	return prices, nil
}
