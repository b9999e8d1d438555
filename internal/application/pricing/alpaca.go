package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

const SourceAlpaca = "alpaca"

// LatestTradeClient is the slice of the Alpaca market data client the
// oracle uses.
type LatestTradeClient interface {
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// AlpacaOracle prices symbols at their latest trade on Alpaca.
type AlpacaOracle struct {
	client LatestTradeClient
}

// Ensure AlpacaOracle implements the interface
var _ Oracle = (*AlpacaOracle)(nil)

// NewAlpacaOracle returns an oracle backed by the Alpaca market data API.
// An empty baseURL uses the client's default endpoint.
func NewAlpacaOracle(apiKey, apiSecret, baseURL string) *AlpacaOracle {
	return &AlpacaOracle{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

// NewAlpacaOracleWithClient wraps an existing client.
func NewAlpacaOracleWithClient(client LatestTradeClient) *AlpacaOracle {
	return &AlpacaOracle{client: client}
}

func (a *AlpacaOracle) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	symbol = strings.ToUpper(symbol)
	trade, err := a.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return Quote{}, fmt.Errorf("alpaca latest trade %s: %w", symbol, err)
	}
	if trade == nil || trade.Price <= 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return Quote{
		Symbol: symbol,
		Price:  trade.Price,
		Source: SourceAlpaca,
		AsOf:   trade.Timestamp.UTC(),
		Meta: map[string]interface{}{
			"trade_id": trade.ID,
			"exchange": trade.Exchange,
			"size":     trade.Size,
		},
	}, nil
}
