package strategy

import (
	"context"
	"fmt"

	"github.com/arnaubm/noise-trader/internal/logger"
)

type stopCall struct {
	amount  float64
	limit   float64
	trigger float64
}

type fakeExchange struct {
	candles    []Candle
	candlesErr error

	estClose    float64
	estCloseErr error

	balances    Balances
	balancesErr error

	minAmount    float64
	minAmountErr error
	minCost      float64
	minCostErr   error

	buyResult BuyResult
	buyErr    error
	buyCalls  []float64

	stopErr     error
	stopCalls   []stopCall
	nextOrderID int

	cancelErrs map[string]error
	canceled   []string
}

func (f *fakeExchange) ReadCandles(_ context.Context, n int) ([]Candle, error) {
	if f.candlesErr != nil {
		return nil, f.candlesErr
	}
	if n > len(f.candles) {
		n = len(f.candles)
	}
	return f.candles[len(f.candles)-n:], nil
}

func (f *fakeExchange) EstimatedLastClose(context.Context) (float64, error) {
	return f.estClose, f.estCloseErr
}

func (f *fakeExchange) Balances(context.Context) (Balances, error) {
	return f.balances, f.balancesErr
}

func (f *fakeExchange) LimitMinAmount(context.Context) (float64, error) {
	return f.minAmount, f.minAmountErr
}

func (f *fakeExchange) LimitMinCost(context.Context) (float64, error) {
	return f.minCost, f.minCostErr
}

func (f *fakeExchange) AmountToPrecision(amount float64) float64 {
	return amount
}

func (f *fakeExchange) CreateMarketBuy(_ context.Context, amount float64) (BuyResult, error) {
	f.buyCalls = append(f.buyCalls, amount)
	if f.buyErr != nil {
		return BuyResult{}, f.buyErr
	}
	return f.buyResult, nil
}

func (f *fakeExchange) CreateStopOrder(_ context.Context, amount, limitPrice, triggerPrice float64) (Order, error) {
	f.stopCalls = append(f.stopCalls, stopCall{amount: amount, limit: limitPrice, trigger: triggerPrice})
	if f.stopErr != nil {
		return Order{}, f.stopErr
	}
	f.nextOrderID++
	return Order{
		ID:         fmt.Sprintf("stop-%d", f.nextOrderID),
		Amount:     amount,
		StopPrice:  triggerPrice,
		LimitPrice: limitPrice,
	}, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, id string) error {
	if err, ok := f.cancelErrs[id]; ok {
		return err
	}
	f.canceled = append(f.canceled, id)
	return nil
}

type fakeGauges struct {
	values map[string]float64
}

func newFakeGauges() *fakeGauges {
	return &fakeGauges{values: make(map[string]float64)}
}

func (g *fakeGauges) Gauge(name string, value float64, _ ...string) {
	g.values[name] = value
}

type fakeNotifier struct {
	buys      int
	stopMoves int
	errors    int
}

func (n *fakeNotifier) NotifyBuy(price, amount, cost float64)                  { n.buys++ }
func (n *fakeNotifier) NotifyStopMoved(amount, trigger, limit float64, g int)  { n.stopMoves++ }
func (n *fakeNotifier) NotifyError(context string, err error)                  { n.errors++ }

func testLogger() *logger.Logger {
	return logger.New("error")
}

func constantCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
