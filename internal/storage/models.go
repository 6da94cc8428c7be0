package storage

import "time"

// Trade mirrors one strategy trade across restarts. Open trades are
// loaded back into the cycle status at startup.
type Trade struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EntryTime  time.Time `gorm:"index;not null" json:"entry_time"`
	EntryCost  float64   `gorm:"not null" json:"entry_cost"`
	EntryPrice float64   `gorm:"not null" json:"entry_price"`
	Size       float64   `gorm:"not null" json:"size"`

	ExitState   string  `gorm:"not null;default:'none'" json:"exit_state"`
	ExitOrderID string  `json:"exit_order_id"`
	ExitPrice   float64 `json:"exit_price"`

	Status string `gorm:"not null;default:'open'" json:"status"` // open, closed
}

// StopOrder is one live protective order; rows are replaced wholesale
// after each cycle.
type StopOrder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID    string  `gorm:"uniqueIndex;not null" json:"order_id"`
	Amount     float64 `gorm:"not null" json:"amount"`
	StopPrice  float64 `gorm:"not null" json:"stop_price"`
	LimitPrice float64 `gorm:"not null" json:"limit_price"`
}

type CycleLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TradesCount int     `json:"trades_count"`
	OrdersCount int     `json:"orders_count"`
	BudgetLeft  float64 `json:"budget_left"`
	Error       string  `json:"error"`
}

type BudgetSnapshot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FreeBudget float64 `json:"free_budget"`
	BudgetLeft float64 `json:"budget_left"`
	SpentDay   float64 `json:"spent_day"`
	SpentWeek  float64 `json:"spent_week"`
	OpenTrades int     `json:"open_trades"`
}
