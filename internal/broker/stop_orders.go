package broker

import (
	"context"
	"fmt"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"github.com/arnaubm/noise-trader/internal/strategy"
)

// CreateStopOrder places a protective stop-limit sell: it triggers at
// triggerPrice and rests at limitPrice. Stop orders are not supported in
// sandbox, so sandbox mode records a synthetic order and moves on.
func (bc *BrokerClient) CreateStopOrder(_ context.Context, amount, limitPrice, triggerPrice float64) (strategy.Order, error) {
	lots := bc.amountToLots(amount)
	if lots < 1 {
		return strategy.Order{}, fmt.Errorf("amount %f is below one lot (%f units)", amount, bc.lot)
	}

	if bc.Config.IsSandbox() {
		id := "sandbox-" + investgo.CreateUid()
		bc.Logger.Info("stop order simulated in sandbox mode",
			"order_id", id, "amount", amount, "trigger", triggerPrice, "price", limitPrice)
		return strategy.Order{ID: id, Amount: amount, StopPrice: triggerPrice, LimitPrice: limitPrice}, nil
	}

	stopOrders := bc.Client.NewStopOrdersServiceClient()
	resp, err := stopOrders.PostStopOrder(&investgo.PostStopOrderRequest{
		InstrumentId:   bc.instrumentUID,
		Quantity:       lots,
		Price:          floatToQuotation(limitPrice),
		StopPrice:      floatToQuotation(triggerPrice),
		Direction:      pb.StopOrderDirection_STOP_ORDER_DIRECTION_SELL,
		AccountId:      bc.AccountID(),
		ExpirationType: pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL,
		StopOrderType:  pb.StopOrderType_STOP_ORDER_TYPE_STOP_LIMIT,
		OrderID:        investgo.CreateUid(),
	})
	if err != nil {
		return strategy.Order{}, fmt.Errorf("place stop order: %w", err)
	}

	return strategy.Order{
		ID:         resp.GetStopOrderId(),
		Amount:     amount,
		StopPrice:  triggerPrice,
		LimitPrice: limitPrice,
	}, nil
}

// CancelOrder cancels a protective stop order by id.
func (bc *BrokerClient) CancelOrder(_ context.Context, id string) error {
	if bc.Config.IsSandbox() {
		bc.Logger.Info("stop order cancel simulated in sandbox mode", "order_id", id)
		return nil
	}

	stopOrders := bc.Client.NewStopOrdersServiceClient()
	if _, err := stopOrders.CancelStopOrder(bc.AccountID(), id); err != nil {
		return fmt.Errorf("cancel stop order %s: %w", id, err)
	}
	return nil
}

// ActiveStopOrders lists the live stop orders for the traded instrument,
// used by the closeall tool.
func (bc *BrokerClient) ActiveStopOrders() ([]strategy.Order, error) {
	if bc.Config.IsSandbox() {
		return nil, nil
	}

	stopOrders := bc.Client.NewStopOrdersServiceClient()
	resp, err := stopOrders.GetStopOrders(bc.AccountID())
	if err != nil {
		return nil, fmt.Errorf("get stop orders: %w", err)
	}

	var out []strategy.Order
	for _, so := range resp.GetStopOrders() {
		if so.GetInstrumentUid() != bc.instrumentUID {
			continue
		}
		out = append(out, strategy.Order{
			ID:         so.GetStopOrderId(),
			Amount:     float64(so.GetLotsRequested()) * bc.lot,
			StopPrice:  so.GetStopPrice().ToFloat(),
			LimitPrice: so.GetPrice().ToFloat(),
		})
	}
	return out, nil
}

func floatToQuotation(value float64) *pb.Quotation {
	units := int64(value)
	nano := int32((value - float64(units)) * 1e9)
	return &pb.Quotation{Units: units, Nano: nano}
}
