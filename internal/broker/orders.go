package broker

import (
	"context"
	"fmt"
	"math"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"github.com/arnaubm/noise-trader/internal/strategy"
)

// LimitMinAmount is the smallest tradable size: one lot, in units.
func (bc *BrokerClient) LimitMinAmount(context.Context) (float64, error) {
	return bc.lot, nil
}

// LimitMinCost approximates the cost of the smallest tradable size at
// the current price.
func (bc *BrokerClient) LimitMinCost(ctx context.Context) (float64, error) {
	price, err := bc.EstimatedLastClose(ctx)
	if err != nil {
		return 0, fmt.Errorf("estimate min cost: %w", err)
	}
	return bc.lot * price, nil
}

// AmountToPrecision rounds an amount down to a whole number of lots.
func (bc *BrokerClient) AmountToPrecision(amount float64) float64 {
	if bc.lot <= 0 {
		return 0
	}
	return math.Floor(amount/bc.lot) * bc.lot
}

func (bc *BrokerClient) amountToLots(amount float64) int64 {
	if bc.lot <= 0 {
		return 0
	}
	return int64(math.Floor(amount / bc.lot))
}

// CreateMarketBuy places a market buy for the given amount of units.
func (bc *BrokerClient) CreateMarketBuy(_ context.Context, amount float64) (strategy.BuyResult, error) {
	lots := bc.amountToLots(amount)
	if lots < 1 {
		return strategy.BuyResult{}, fmt.Errorf("amount %f is below one lot (%f units)", amount, bc.lot)
	}

	req := &investgo.PostOrderRequestShort{
		InstrumentId: bc.instrumentUID,
		Quantity:     lots,
		AccountId:    bc.AccountID(),
		OrderType:    pb.OrderType_ORDER_TYPE_MARKET,
		OrderId:      investgo.CreateUid(),
	}

	var resp *investgo.PostOrderResponse
	var err error

	if bc.Config.IsSandbox() {
		sandbox := bc.Client.NewSandboxServiceClient()
		resp, err = sandbox.PostSandboxOrder(&investgo.PostOrderRequest{
			InstrumentId: req.InstrumentId,
			Quantity:     req.Quantity,
			Direction:    pb.OrderDirection_ORDER_DIRECTION_BUY,
			AccountId:    req.AccountId,
			OrderType:    req.OrderType,
			OrderId:      req.OrderId,
		})
	} else {
		orders := bc.Client.NewOrdersServiceClient()
		resp, err = orders.Buy(req)
	}

	if err != nil {
		return strategy.BuyResult{}, fmt.Errorf("buy order: %w", err)
	}

	executedUnits := float64(resp.GetLotsExecuted()) * bc.lot
	result := strategy.BuyResult{
		OrderID: resp.GetOrderId(),
		Amount:  executedUnits,
	}
	if ep := resp.GetExecutedOrderPrice(); ep != nil {
		result.Price = ep.ToFloat()
		result.Cost = result.Price * executedUnits
	}

	return result, nil
}

// Sell places a market sell, used by the closeall tool.
func (bc *BrokerClient) Sell(amount float64) (string, error) {
	lots := bc.amountToLots(amount)
	if lots < 1 {
		return "", fmt.Errorf("amount %f is below one lot (%f units)", amount, bc.lot)
	}

	req := &investgo.PostOrderRequestShort{
		InstrumentId: bc.instrumentUID,
		Quantity:     lots,
		AccountId:    bc.AccountID(),
		OrderType:    pb.OrderType_ORDER_TYPE_MARKET,
		OrderId:      investgo.CreateUid(),
	}

	var resp *investgo.PostOrderResponse
	var err error

	if bc.Config.IsSandbox() {
		sandbox := bc.Client.NewSandboxServiceClient()
		resp, err = sandbox.PostSandboxOrder(&investgo.PostOrderRequest{
			InstrumentId: req.InstrumentId,
			Quantity:     req.Quantity,
			Direction:    pb.OrderDirection_ORDER_DIRECTION_SELL,
			AccountId:    req.AccountId,
			OrderType:    req.OrderType,
			OrderId:      req.OrderId,
		})
	} else {
		orders := bc.Client.NewOrdersServiceClient()
		resp, err = orders.Sell(req)
	}

	if err != nil {
		return "", fmt.Errorf("sell order: %w", err)
	}
	return resp.GetOrderId(), nil
}
