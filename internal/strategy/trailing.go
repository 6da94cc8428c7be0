package strategy

import (
	"context"
	"math"

	"github.com/arnaubm/noise-trader/internal/indicator"
	"github.com/arnaubm/noise-trader/internal/logger"
)

// TrailingStopEngine re-prices the protective side of all open trades
// once per cycle: it derives a fresh stop level from a DEMA volatility
// band, cancels protective orders the new level superseded, pulls in
// trades that just became worth protecting, and replaces everything with
// one grouped stop order.
type TrailingStopEngine struct {
	exchange Exchange
	gauges   Gauges
	log      *logger.Logger

	// LowPct is the percentage gap between the stop trigger and the
	// resting limit price, kept below the trigger so the order executes.
	LowPct float64
	// MinimalBenefitPct is the gain over entry price a trade must show
	// before trailing starts.
	MinimalBenefitPct float64
	// MinPriceToStartTrailing is an absolute floor for the stop price.
	MinPriceToStartTrailing float64
}

func NewTrailingStopEngine(ex Exchange, gauges Gauges, log *logger.Logger, lowPct, minimalBenefitPct, minPrice float64) *TrailingStopEngine {
	return &TrailingStopEngine{
		exchange:                ex,
		gauges:                  gauges,
		log:                     log,
		LowPct:                  lowPct,
		MinimalBenefitPct:       minimalBenefitPct,
		MinPriceToStartTrailing: minPrice,
	}
}

// RegroupResult summarizes one engine cycle for logging and notification.
type RegroupResult struct {
	NewStopLoss     float64
	StopPrice       float64
	CanceledAmount  float64
	CanceledOrders  int
	NewTradesAmount float64
	PlacedOrder     *Order
}

// Recompute runs one trailing cycle against the given status. Broker
// failures are logged and degrade the cycle instead of aborting it: an
// order that fails to cancel stays live and out of the regrouped amount,
// and a failed placement leaves the selected trades tagged for the next
// cycle.
func (e *TrailingStopEngine) Recompute(ctx context.Context, closes []float64, estimatedClosePrice float64, bandLength int, bandMult float64, status *Status) RegroupResult {
	dema := indicator.Last(indicator.DEMA(closes, bandLength))
	stdev := indicator.Last(indicator.Stdev(closes, bandLength))

	newStopLoss := dema - bandMult*stdev
	if math.IsNaN(newStopLoss) {
		e.log.Error("trailing stop band is undefined, not enough candle data",
			"candles", len(closes), "band_length", bandLength)
		newStopLoss = 0
	}
	e.gauges.Gauge("new_stop_loss", newStopLoss, "indicator")

	stopPrice := newStopLoss * (1 - e.LowPct/100)
	e.gauges.Gauge("stop_price", stopPrice, "indicator")

	if stopPrice < newStopLoss*0.8 {
		e.log.Error("stop price too far below the new stop loss, it may happen on test data",
			"stop_price", stopPrice, "new_stop_loss", newStopLoss)
		newStopLoss = 0
		stopPrice = 0
	}
	if newStopLoss > estimatedClosePrice {
		e.log.Warn("new stop loss above the estimated close, skipping this cycle",
			"new_stop_loss", newStopLoss, "last_close", estimatedClosePrice)
		newStopLoss = 0
		stopPrice = 0
	}

	result := RegroupResult{NewStopLoss: newStopLoss, StopPrice: stopPrice}

	// Cancel every active order the new stop level supersedes. An order
	// that fails to cancel is kept and its amount stays out of the new
	// grouped order.
	canceled := make(map[string]bool)
	remaining := make([]Order, 0, len(status.ActiveOrders))
	for _, order := range status.ActiveOrders {
		if newStopLoss > order.StopPrice {
			if err := e.exchange.CancelOrder(ctx, order.ID); err != nil {
				e.log.Error("cancel stop order", "order_id", order.ID, "error", err)
				remaining = append(remaining, order)
				continue
			}
			result.CanceledAmount += order.Amount
			result.CanceledOrders++
			canceled[order.ID] = true
			continue
		}
		remaining = append(remaining, order)
	}

	// Select trades whose price has cleared both the relative benefit
	// gate and the absolute floor. A trade left pending by a failed
	// placement goes through the same check again; if it no longer
	// qualifies it returns to the untagged state.
	for _, trade := range status.ActiveTrades {
		if trade.ExitState != ExitNone && trade.ExitState != ExitPendingGroup {
			continue
		}
		qualifies := stopPrice > trade.EntryPrice*(1+e.MinimalBenefitPct/100) &&
			stopPrice > e.MinPriceToStartTrailing
		if qualifies {
			trade.ExitState = ExitPendingGroup
			result.NewTradesAmount += trade.Size
		} else if trade.ExitState == ExitPendingGroup {
			trade.ExitState = ExitNone
		}
	}

	total := result.CanceledAmount + result.NewTradesAmount

	minAmount, err := e.exchange.LimitMinAmount(ctx)
	if err != nil {
		e.log.Error("cannot get min order amount", "error", err)
		status.ActiveOrders = remaining
		return result
	}

	if total > 0 && total >= minAmount {
		newOrder, err := e.exchange.CreateStopOrder(ctx, total, stopPrice, newStopLoss)
		if err != nil {
			// Pending trades stay tagged and are re-evaluated next cycle.
			e.log.Error("cannot create grouped stop order",
				"amount", total, "stop_price", stopPrice, "trigger", newStopLoss, "error", err)
		} else {
			for _, trade := range status.ActiveTrades {
				if trade.ExitState == ExitPendingGroup ||
					(trade.ExitState == ExitActive && canceled[trade.ExitOrderID]) {
					trade.ExitState = ExitActive
					trade.ExitOrderID = newOrder.ID
					trade.ExitPrice = newStopLoss // not real until the stop actually fills
				}
			}
			remaining = append(remaining, newOrder)
			result.PlacedOrder = &newOrder
		}
	}

	status.ActiveOrders = remaining
	return result
}
