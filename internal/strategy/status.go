package strategy

import "time"

// ExitState tracks the exit side of a trade. A trade starts with no exit
// order, may be tagged for inclusion in the next grouped stop order, and
// becomes active once a live order references it. Closing a trade is the
// host's business, not the strategy's.
type ExitState string

const (
	// ExitNone means the trade has no exit order yet.
	ExitNone ExitState = "none"
	// ExitPendingGroup means the trade was selected for the next grouped
	// stop order but no live order references it yet. The tag survives a
	// failed placement and is re-evaluated on the next cycle.
	ExitPendingGroup ExitState = "pending_group"
	// ExitActive means ExitOrderID points at a live protective order.
	ExitActive ExitState = "active"
)

// Trade is one open position. Created on a filled buy, mutated by the
// trailing stop engine when its protective order is grouped or re-priced.
type Trade struct {
	ID uint // storage key, zero until persisted

	EntryTime  time.Time
	EntryCost  float64 // quote currency spent
	EntryPrice float64
	Size       float64

	ExitState   ExitState
	ExitOrderID string  // valid only when ExitState == ExitActive
	ExitPrice   float64 // provisional until the stop order actually fills
}

// Order is a live protective stop order: it triggers at StopPrice and
// rests as a sell at LimitPrice, kept slightly below the trigger so the
// order reliably executes.
type Order struct {
	ID         string
	Amount     float64
	StopPrice  float64
	LimitPrice float64
}

// Budget is the host-reported free spend amount. The budget tracker
// narrows it further by window caps but never mutates it.
type Budget struct {
	Free float64
}

// Status is the per-cycle view of bot state. The scheduler owns it for
// the duration of one cycle; no other goroutine touches it.
type Status struct {
	ActiveTrades []*Trade
	ActiveOrders []Order
	Budget       Budget
}
