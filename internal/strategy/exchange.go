package strategy

import (
	"context"
	"time"
)

// Candle is one OHLC bar of price history.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Balance is the free/locked split of one currency.
type Balance struct {
	Free   float64
	Locked float64
}

// Balances holds the base and quote currency balances of the traded pair.
type Balances struct {
	Base  Balance
	Quote Balance
}

// BuyResult reports a filled market buy.
type BuyResult struct {
	OrderID string
	Price   float64 // executed price
	Amount  float64 // executed size, base currency
	Cost    float64 // quote currency actually spent
}

// Exchange is the host-provided trading surface the strategies run
// against. Calls are synchronous; cancellation and timeouts of the
// underlying transport are the implementation's concern.
type Exchange interface {
	ReadCandles(ctx context.Context, n int) ([]Candle, error)
	EstimatedLastClose(ctx context.Context) (float64, error)
	Balances(ctx context.Context) (Balances, error)

	LimitMinAmount(ctx context.Context) (float64, error)
	LimitMinCost(ctx context.Context) (float64, error)
	AmountToPrecision(amount float64) float64

	CreateMarketBuy(ctx context.Context, amount float64) (BuyResult, error)
	// CreateStopOrder places a protective sell that triggers at
	// triggerPrice and rests at limitPrice.
	CreateStopOrder(ctx context.Context, amount, limitPrice, triggerPrice float64) (Order, error)
	CancelOrder(ctx context.Context, id string) error
}

// Gauges receives named numeric observations from the strategies.
type Gauges interface {
	Gauge(name string, value float64, tags ...string)
}

// Notifier pushes trade events to wherever the operator watches.
type Notifier interface {
	NotifyBuy(price, amount, cost float64)
	NotifyStopMoved(amount, trigger, limit float64, grouped int)
	NotifyError(context string, err error)
}
