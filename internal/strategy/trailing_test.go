package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constant closes at 100 give DEMA=100 and stdev=0, so the engine's new
// stop loss is exactly 100 regardless of the band multiplier.
func flatCloses() []float64 {
	return constantCloses(30, 100.0)
}

func newEngine(ex *fakeExchange, lowPct, benefitPct, minPrice float64) (*TrailingStopEngine, *fakeGauges) {
	gauges := newFakeGauges()
	return NewTrailingStopEngine(ex, gauges, testLogger(), lowPct, benefitPct, minPrice), gauges
}

func TestRecomputeGuardStopPriceTooFar(t *testing.T) {
	ex := &fakeExchange{minAmount: 1}
	// 25% gap puts the stop price at 75, below 0.8*100
	engine, gauges := newEngine(ex, 25, 1, 0)

	status := &Status{ActiveOrders: []Order{{ID: "o1", Amount: 5, StopPrice: 90}}}
	result := engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)

	assert.Equal(t, 0.0, result.NewStopLoss)
	assert.Equal(t, 0.0, result.StopPrice)
	assert.Empty(t, ex.canceled)
	assert.Empty(t, ex.stopCalls)
	assert.Len(t, status.ActiveOrders, 1)
	assert.InDelta(t, 100.0, gauges.values["new_stop_loss"], 1e-9)
	assert.InDelta(t, 75.0, gauges.values["stop_price"], 1e-9)
}

func TestRecomputeGuardStopAboveClose(t *testing.T) {
	ex := &fakeExchange{minAmount: 1}
	engine, _ := newEngine(ex, 1, 1, 0)

	status := &Status{ActiveOrders: []Order{{ID: "o1", Amount: 5, StopPrice: 90}}}
	result := engine.Recompute(context.Background(), flatCloses(), 95, 5, 2, status)

	assert.Equal(t, 0.0, result.NewStopLoss)
	assert.Equal(t, 0.0, result.StopPrice)
	assert.Empty(t, ex.canceled)
	assert.Empty(t, ex.stopCalls)
}

func TestRecomputeCancelsOnlySupersededOrders(t *testing.T) {
	ex := &fakeExchange{minAmount: 100} // high min: no replacement this cycle
	engine, _ := newEngine(ex, 1, 1, 0)

	status := &Status{ActiveOrders: []Order{
		{ID: "o90", Amount: 5, StopPrice: 90},
		{ID: "o105", Amount: 7, StopPrice: 105},
	}}
	result := engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)

	assert.Equal(t, []string{"o90"}, ex.canceled)
	assert.InDelta(t, 5.0, result.CanceledAmount, 1e-9)
	assert.Equal(t, 1, result.CanceledOrders)
	// the canceled order is gone even though nothing replaced it
	require.Len(t, status.ActiveOrders, 1)
	assert.Equal(t, "o105", status.ActiveOrders[0].ID)
	assert.Empty(t, ex.stopCalls)
}

func TestRecomputeBelowMinAmountLeavesTradesPending(t *testing.T) {
	ex := &fakeExchange{minAmount: 10}
	engine, _ := newEngine(ex, 1, 1, 0)

	trade := &Trade{EntryPrice: 50, Size: 3, ExitState: ExitNone}
	status := &Status{
		ActiveTrades: []*Trade{trade},
		ActiveOrders: []Order{{ID: "o90", Amount: 5, StopPrice: 90}},
	}
	result := engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)

	// 5 canceled + 3 newly eligible = 8 < 10: nothing placed
	assert.InDelta(t, 5.0, result.CanceledAmount, 1e-9)
	assert.InDelta(t, 3.0, result.NewTradesAmount, 1e-9)
	assert.Empty(t, ex.stopCalls)
	assert.Nil(t, result.PlacedOrder)
	assert.Equal(t, ExitPendingGroup, trade.ExitState)
	assert.Empty(t, status.ActiveOrders)
}

func TestRecomputePlacesGroupedOrderAndRetags(t *testing.T) {
	ex := &fakeExchange{minAmount: 10}
	engine, _ := newEngine(ex, 1, 1, 0)

	covered := &Trade{EntryPrice: 50, Size: 5, ExitState: ExitActive, ExitOrderID: "o90", ExitPrice: 90}
	fresh := &Trade{EntryPrice: 50, Size: 10, ExitState: ExitNone}
	status := &Status{
		ActiveTrades: []*Trade{covered, fresh},
		ActiveOrders: []Order{{ID: "o90", Amount: 5, StopPrice: 90}},
	}
	result := engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)

	require.Len(t, ex.stopCalls, 1)
	call := ex.stopCalls[0]
	assert.InDelta(t, 15.0, call.amount, 1e-9)
	assert.InDelta(t, 99.0, call.limit, 1e-9)
	assert.InDelta(t, 100.0, call.trigger, 1e-9)

	require.NotNil(t, result.PlacedOrder)
	newID := result.PlacedOrder.ID

	for _, trade := range []*Trade{covered, fresh} {
		assert.Equal(t, ExitActive, trade.ExitState)
		assert.Equal(t, newID, trade.ExitOrderID)
		assert.InDelta(t, 100.0, trade.ExitPrice, 1e-9)
	}

	require.Len(t, status.ActiveOrders, 1)
	assert.Equal(t, newID, status.ActiveOrders[0].ID)
	assert.InDelta(t, 15.0, status.ActiveOrders[0].Amount, 1e-9)
}

func TestRecomputeCancelFailureKeepsOrderOut(t *testing.T) {
	ex := &fakeExchange{
		minAmount:  10,
		cancelErrs: map[string]error{"o90": errors.New("exchange is down")},
	}
	engine, _ := newEngine(ex, 1, 1, 0)

	fresh := &Trade{EntryPrice: 50, Size: 10, ExitState: ExitNone}
	status := &Status{
		ActiveTrades: []*Trade{fresh},
		ActiveOrders: []Order{{ID: "o90", Amount: 5, StopPrice: 90}},
	}
	result := engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)

	// the stuck order stays live and its amount stays out of the group
	assert.Equal(t, 0.0, result.CanceledAmount)
	require.Len(t, ex.stopCalls, 1)
	assert.InDelta(t, 10.0, ex.stopCalls[0].amount, 1e-9)

	require.Len(t, status.ActiveOrders, 2)
	assert.Equal(t, "o90", status.ActiveOrders[0].ID)
}

func TestRecomputePlacementFailureKeepsPendingForNextCycle(t *testing.T) {
	ex := &fakeExchange{minAmount: 5, stopErr: errors.New("rejected")}
	engine, _ := newEngine(ex, 1, 1, 0)

	trade := &Trade{EntryPrice: 50, Size: 10, ExitState: ExitNone}
	status := &Status{ActiveTrades: []*Trade{trade}}

	result := engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)
	assert.Nil(t, result.PlacedOrder)
	assert.Equal(t, ExitPendingGroup, trade.ExitState)
	assert.Empty(t, status.ActiveOrders)

	// next cycle the same trade is re-evaluated and finally covered
	ex.stopErr = nil
	result = engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)
	require.NotNil(t, result.PlacedOrder)
	assert.Equal(t, ExitActive, trade.ExitState)
	assert.Equal(t, result.PlacedOrder.ID, trade.ExitOrderID)
}

func TestRecomputePendingTradeRevertsWhenNoLongerEligible(t *testing.T) {
	ex := &fakeExchange{minAmount: 5}
	engine, _ := newEngine(ex, 1, 1, 0)

	// entry price so high the stop price no longer clears the benefit gate
	trade := &Trade{EntryPrice: 200, Size: 10, ExitState: ExitPendingGroup}
	status := &Status{ActiveTrades: []*Trade{trade}}

	engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)
	assert.Equal(t, ExitNone, trade.ExitState)
	assert.Empty(t, ex.stopCalls)
}

func TestRecomputeAbsoluteFloorBlocksTrailing(t *testing.T) {
	ex := &fakeExchange{minAmount: 1}
	// floor above the computed stop price of 99
	engine, _ := newEngine(ex, 1, 1, 150)

	trade := &Trade{EntryPrice: 50, Size: 10, ExitState: ExitNone}
	status := &Status{ActiveTrades: []*Trade{trade}}

	engine.Recompute(context.Background(), flatCloses(), 110, 5, 2, status)
	assert.Equal(t, ExitNone, trade.ExitState)
	assert.Empty(t, ex.stopCalls)
}

func TestRecomputeShortSeriesDoesNothing(t *testing.T) {
	ex := &fakeExchange{minAmount: 1}
	engine, _ := newEngine(ex, 1, 1, 0)

	status := &Status{ActiveOrders: []Order{{ID: "o90", Amount: 5, StopPrice: 90}}}
	engine.Recompute(context.Background(), constantCloses(3, 100), 110, 5, 2, status)

	assert.Empty(t, ex.canceled)
	assert.Empty(t, ex.stopCalls)
	assert.Len(t, status.ActiveOrders, 1)
}
