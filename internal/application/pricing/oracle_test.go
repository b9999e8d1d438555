package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockOracle_StaysWithinJitter(t *testing.T) {
	o := NewMockOracle(0.05, 42)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		q, err := o.CurrentPrice(ctx, "aapl")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
		assert.Equal(t, SourceMock, q.Source)
		assert.GreaterOrEqual(t, q.Price, 166.72)
		assert.LessOrEqual(t, q.Price, 184.28)
	}
}

func TestMockOracle_UnknownSymbolUsesDefault(t *testing.T) {
	o := NewMockOracle(0, 1)
	q, err := o.CurrentPrice(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Equal(t, DefaultMockPrice, q.Price)
}

func TestMockOracle_NoJitterIsBasePrice(t *testing.T) {
	o := NewMockOracle(0, 7)
	q, err := o.CurrentPrice(context.Background(), "WMT")
	require.NoError(t, err)
	assert.Equal(t, 60.15, q.Price)
	assert.Equal(t, 60.15, q.Meta["base"])
}

func TestMockOracle_InstancesDoNotShareTables(t *testing.T) {
	a := DefaultMockPrices()
	a["AAPL"] = 1
	assert.Equal(t, 175.50, DefaultMockPrices()["AAPL"])
}

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle(map[string]float64{"aapl": 175.5})
	ctx := context.Background()

	q, err := o.CurrentPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 175.5, q.Price)
	assert.Equal(t, SourceStatic, q.Source)

	o.Set("aapl", 180)
	q, err = o.CurrentPrice(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, 180.0, q.Price)

	_, err = o.CurrentPrice(ctx, "MSFT")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestStaticOracle_CancelledContext(t *testing.T) {
	o := NewStaticOracle(map[string]float64{"AAPL": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.CurrentPrice(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseStaticPrices(t *testing.T) {
	prices, err := ParseStaticPrices(" aapl=175.5, MSFT = 425.30 ,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 175.5, "MSFT": 425.30}, prices)

	for _, bad := range []string{"", "AAPL", "AAPL=abc", "AAPL=0", "=10", "AAPL=-1"} {
		_, err := ParseStaticPrices(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewOracle(t *testing.T) {
	o, err := NewOracle(Options{Source: "mock", Jitter: 0.05})
	require.NoError(t, err)
	assert.IsType(t, &MockOracle{}, o)

	o, err = NewOracle(Options{Source: "static", StaticPrices: "AAPL=1"})
	require.NoError(t, err)
	assert.IsType(t, &StaticOracle{}, o)

	o, err = NewOracle(Options{Source: "alpaca", AlpacaAPIKey: "k", AlpacaAPISecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &AlpacaOracle{}, o)

	_, err = NewOracle(Options{Source: "static"})
	assert.Error(t, err)

	_, err = NewOracle(Options{Source: "yahoo"})
	assert.Error(t, err)
}

type fakeTrades struct {
	trade *marketdata.Trade
	err   error
	asked string
}

func (f *fakeTrades) GetLatestTrade(symbol string, _ marketdata.GetLatestTradeRequest) (*marketdata.Trade, error) {
	f.asked = symbol
	return f.trade, f.err
}

func TestAlpacaOracle(t *testing.T) {
	ts := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	client := &fakeTrades{trade: &marketdata.Trade{ID: 99, Price: 187.12, Size: 100, Exchange: "V", Timestamp: ts}}
	o := NewAlpacaOracleWithClient(client)

	q, err := o.CurrentPrice(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", client.asked)
	assert.Equal(t, 187.12, q.Price)
	assert.Equal(t, SourceAlpaca, q.Source)
	assert.Equal(t, ts, q.AsOf)
	assert.Equal(t, int64(99), q.Meta["trade_id"])
}

func TestAlpacaOracle_Errors(t *testing.T) {
	_, err := NewAlpacaOracleWithClient(&fakeTrades{}).CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	boom := errors.New("boom")
	_, err = NewAlpacaOracleWithClient(&fakeTrades{err: boom}).CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, boom)
}
