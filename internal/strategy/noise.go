package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/indicator"
	"github.com/arnaubm/noise-trader/internal/logger"
)

// Noise buys dips inside a Bollinger band when momentum agrees, sized
// against the rolling spend budget, and protects open trades with the
// trailing stop engine. The strategy holds its collaborators explicitly
// instead of inheriting shared behavior.
type Noise struct {
	exchange Exchange
	gauges   Gauges
	notifier Notifier
	log      *logger.Logger

	budget   *BudgetTracker
	trailing *TrailingStopEngine

	spendOnOrder float64

	bbBandLength int
	bbBandMult   float64

	buyMACDFast   int
	buyMACDSlow   int
	buyMACDSignal int

	sellMACDFast   int
	sellMACDSlow   int
	sellMACDSignal int

	sellBandLength int
	sellBandMult   float64

	minimalBenefitPct float64

	now func() time.Time
}

// NewNoise validates the strategy configuration and wires the budget
// tracker and trailing stop engine. A config error leaves the strategy
// unusable; the caller decides what to do with that.
func NewNoise(cfg config.StrategyConfig, ex Exchange, gauges Gauges, notifier Notifier, log *logger.Logger) (*Noise, error) {
	if cfg.SpendOnOrder <= 0 {
		return nil, fmt.Errorf("spend_on_order must be > 0")
	}
	if cfg.BBBandLength <= 0 || cfg.SellBandLength <= 0 {
		return nil, fmt.Errorf("band lengths must be > 0")
	}
	if cfg.BuyMACDFast <= 0 || cfg.BuyMACDSlow <= 0 || cfg.BuyMACDSignal <= 0 ||
		cfg.SellMACDFast <= 0 || cfg.SellMACDSlow <= 0 || cfg.SellMACDSignal <= 0 {
		return nil, fmt.Errorf("MACD periods must be > 0")
	}
	if cfg.SellBandLowPct <= 0 {
		return nil, fmt.Errorf("sell_band_low_pct must be > 0.0")
	}
	if cfg.DailyBudget != nil && *cfg.DailyBudget < 0 {
		return nil, fmt.Errorf("daily_budget must not be negative")
	}
	if cfg.WeeklyBudget != nil && *cfg.WeeklyBudget < 0 {
		return nil, fmt.Errorf("weekly_budget must not be negative")
	}

	var shift time.Duration
	if cfg.SpentTimesShift != "" {
		var err error
		shift, err = time.ParseDuration(cfg.SpentTimesShift)
		if err != nil {
			return nil, fmt.Errorf("parse spent_times_shift: %w", err)
		}
	}

	return &Noise{
		exchange: ex,
		gauges:   gauges,
		notifier: notifier,
		log:      log,

		budget: NewBudgetTracker(cfg.DailyBudget, cfg.WeeklyBudget, shift),
		trailing: NewTrailingStopEngine(ex, gauges, log,
			cfg.SellBandLowPct, cfg.MinimalBenefitToStartTrailing, cfg.MinPriceToStartTrailing),

		spendOnOrder: cfg.SpendOnOrder,

		bbBandLength: cfg.BBBandLength,
		bbBandMult:   cfg.BBBandMult,

		buyMACDFast:   cfg.BuyMACDFast,
		buyMACDSlow:   cfg.BuyMACDSlow,
		buyMACDSignal: cfg.BuyMACDSignal,

		sellMACDFast:   cfg.SellMACDFast,
		sellMACDSlow:   cfg.SellMACDSlow,
		sellMACDSignal: cfg.SellMACDSignal,

		sellBandLength: cfg.SellBandLength,
		sellBandMult:   cfg.SellBandMult,

		minimalBenefitPct: cfg.MinimalBenefitToStartTrailing,

		now: time.Now,
	}, nil
}

func (s *Noise) Name() string { return "noise" }

// BudgetLeft exposes the current budget headroom for status reporting.
func (s *Noise) BudgetLeft(status *Status) float64 {
	return s.budget.BudgetLeft(status)
}

// SpentToday reports the spend booked in the current day window.
func (s *Noise) SpentToday(status *Status) float64 {
	return s.budget.SpentInWindow(status.ActiveTrades, FreqDay)
}

// SpentThisWeek reports the spend booked in the current week window.
func (s *Noise) SpentThisWeek(status *Status) float64 {
	return s.budget.SpentInWindow(status.ActiveTrades, FreqWeek)
}

// dataPoints is how many candles the indicators need, with headroom.
func (s *Noise) dataPoints() int {
	n := s.bbBandLength
	for _, v := range []int{
		s.buyMACDFast, s.buyMACDSlow, s.buyMACDSignal,
		s.sellMACDFast, s.sellMACDSlow, s.sellMACDSignal,
		s.sellBandLength,
	} {
		if v > n {
			n = v
		}
	}
	return n + 10
}

// Next runs one strategy cycle against the given status. Missing market
// data aborts the cycle with the status untouched; order failures inside
// the cycle are logged and the cycle completes without the action.
func (s *Noise) Next(ctx context.Context, status *Status) error {
	s.log.Info("noise strategy: processing next cycle")

	minAmount, err := s.exchange.LimitMinAmount(ctx)
	if err != nil {
		s.log.Error("cannot get min amount", "error", err)
		return fmt.Errorf("get min amount: %w", err)
	}
	minCost, err := s.exchange.LimitMinCost(ctx)
	if err != nil {
		s.log.Error("cannot get min cost", "error", err)
		return fmt.Errorf("get min cost: %w", err)
	}
	estimatedClosePrice, err := s.exchange.EstimatedLastClose(ctx)
	if err != nil || estimatedClosePrice <= 0 {
		s.log.Error("cannot get estimated last close", "error", err)
		return fmt.Errorf("get estimated last close: %w", err)
	}
	balances, err := s.exchange.Balances(ctx)
	if err != nil {
		s.log.Error("cannot get balance", "error", err)
		return fmt.Errorf("get balance: %w", err)
	}

	candles, err := s.exchange.ReadCandles(ctx, s.dataPoints())
	if err != nil {
		s.log.Error("cannot read candles", "error", err)
		return fmt.Errorf("read candles: %w", err)
	}
	closes := Closes(candles)

	lower, central, upper := indicator.BBands(closes, s.bbBandLength, s.bbBandMult)
	bbLower := indicator.Last(lower)
	bbCentral := indicator.Last(central)
	bbUpper := indicator.Last(upper)

	_, buyHist, _ := indicator.MACD(closes, s.buyMACDFast, s.buyMACDSlow, s.buyMACDSignal)
	_, sellHist, _ := indicator.MACD(closes, s.sellMACDFast, s.sellMACDSlow, s.sellMACDSignal)
	buyMACDh := indicator.Last(buyHist)
	sellMACDh := indicator.Last(sellHist)

	if math.IsNaN(bbCentral) || math.IsNaN(buyMACDh) || math.IsNaN(sellMACDh) {
		s.log.Error("indicators undefined, not enough candle data", "candles", len(closes))
		return fmt.Errorf("not enough candle data: %d candles", len(closes))
	}

	s.gauges.Gauge("bb_lower_band", bbLower, "indicator")
	s.gauges.Gauge("bb_central_band", bbCentral, "indicator")
	s.gauges.Gauge("bb_upper_band", bbUpper, "indicator")
	s.gauges.Gauge("buy_macd_h", buyMACDh, "indicator")
	s.gauges.Gauge("sell_macd_h", sellMACDh, "indicator")

	// Sell side: only report candidates for now, execution is not wired.
	if estimatedClosePrice > bbUpper && sellMACDh < 0 {
		var candidates int
		for _, trade := range status.ActiveTrades {
			if estimatedClosePrice > trade.EntryPrice*(1+s.minimalBenefitPct/100) {
				candidates++
			}
		}
		s.log.Info("sell signal", "close", estimatedClosePrice,
			"bb_upper_band", bbUpper, "candidates", candidates)
	}

	// Buy side.
	if estimatedClosePrice < bbCentral && buyMACDh > 0 {
		s.tryBuy(ctx, status, estimatedClosePrice, balances, minAmount, minCost)
	}

	// Trailing stop side.
	result := s.trailing.Recompute(ctx, closes, estimatedClosePrice,
		s.sellBandLength, s.sellBandMult, status)
	if result.PlacedOrder != nil {
		s.log.Info("grouped stop order placed",
			"order_id", result.PlacedOrder.ID,
			"amount", result.PlacedOrder.Amount,
			"trigger", result.NewStopLoss, "stop_price", result.StopPrice,
			"canceled_orders", result.CanceledOrders)
		s.notifier.NotifyStopMoved(result.PlacedOrder.Amount,
			result.NewStopLoss, result.StopPrice, result.CanceledOrders)
	}

	return nil
}

func (s *Noise) tryBuy(ctx context.Context, status *Status, price float64, balances Balances, minAmount, minCost float64) {
	amountToSpend := min(s.budget.BudgetLeft(status), s.spendOnOrder, balances.Quote.Free)
	amountToBuy := s.exchange.AmountToPrecision(amountToSpend / price)

	if amountToBuy < minAmount || amountToSpend < minCost {
		s.log.Warn("not enough balance to buy min amount/min cost",
			"quote_free", balances.Quote.Free, "min_amount", minAmount, "min_cost", minCost,
			"amount_to_spend", amountToSpend, "free_budget", status.Budget.Free,
			"estimated_close_price", price)
		return
	}

	result, err := s.exchange.CreateMarketBuy(ctx, amountToBuy)
	if err != nil {
		s.log.Error("buy order failed", "amount", amountToBuy, "error", err)
		s.notifier.NotifyError("market buy", err)
		return
	}

	status.ActiveTrades = append(status.ActiveTrades, &Trade{
		EntryTime:  s.now().UTC(),
		EntryCost:  result.Cost,
		EntryPrice: result.Price,
		Size:       result.Amount,
		ExitState:  ExitNone,
	})

	s.log.Info("buy executed", "order_id", result.OrderID,
		"price", result.Price, "amount", result.Amount, "cost", result.Cost)
	s.notifier.NotifyBuy(result.Price, result.Amount, result.Cost)
}
