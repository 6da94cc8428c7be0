package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/arnaubm/noise-trader/internal/strategy"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Status round-trip

// LoadStatus rebuilds the cycle status from open trades and live stop
// orders. The free budget comes from the broker, not the database.
func (r *Repository) LoadStatus(freeBudget float64) (*strategy.Status, error) {
	var trades []Trade
	if err := r.db.Where("status = ?", "open").Order("entry_time").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("load open trades: %w", err)
	}

	var orders []StopOrder
	if err := r.db.Order("created_at").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load stop orders: %w", err)
	}

	status := &strategy.Status{Budget: strategy.Budget{Free: freeBudget}}
	for _, t := range trades {
		status.ActiveTrades = append(status.ActiveTrades, &strategy.Trade{
			ID:          t.ID,
			EntryTime:   t.EntryTime,
			EntryCost:   t.EntryCost,
			EntryPrice:  t.EntryPrice,
			Size:        t.Size,
			ExitState:   strategy.ExitState(t.ExitState),
			ExitOrderID: t.ExitOrderID,
			ExitPrice:   t.ExitPrice,
		})
	}
	for _, o := range orders {
		status.ActiveOrders = append(status.ActiveOrders, strategy.Order{
			ID:         o.OrderID,
			Amount:     o.Amount,
			StopPrice:  o.StopPrice,
			LimitPrice: o.LimitPrice,
		})
	}
	return status, nil
}

// SaveStatus writes the post-cycle status back: trades are created or
// updated in place, stop order rows are replaced wholesale.
func (r *Repository) SaveStatus(status *strategy.Status) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range status.ActiveTrades {
			row := Trade{
				ID:          t.ID,
				EntryTime:   t.EntryTime,
				EntryCost:   t.EntryCost,
				EntryPrice:  t.EntryPrice,
				Size:        t.Size,
				ExitState:   string(t.ExitState),
				ExitOrderID: t.ExitOrderID,
				ExitPrice:   t.ExitPrice,
				Status:      "open",
			}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("save trade: %w", err)
			}
			t.ID = row.ID
		}

		if err := tx.Where("1 = 1").Delete(&StopOrder{}).Error; err != nil {
			return fmt.Errorf("clear stop orders: %w", err)
		}
		for _, o := range status.ActiveOrders {
			row := StopOrder{
				OrderID:    o.ID,
				Amount:     o.Amount,
				StopPrice:  o.StopPrice,
				LimitPrice: o.LimitPrice,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("save stop order: %w", err)
			}
		}
		return nil
	})
}

// Trades

func (r *Repository) GetOpenTrades() ([]Trade, error) {
	var trades []Trade
	err := r.db.Where("status = ?", "open").Order("entry_time").Find(&trades).Error
	return trades, err
}

func (r *Repository) GetRecentTrades(limit int) ([]Trade, error) {
	var trades []Trade
	err := r.db.Order("created_at DESC").Limit(limit).Find(&trades).Error
	return trades, err
}

// Cycle logs

func (r *Repository) SaveCycleLog(log *CycleLog) error {
	return r.db.Create(log).Error
}

// Budget snapshots

func (r *Repository) SaveBudgetSnapshot(snapshot *BudgetSnapshot) error {
	return r.db.Create(snapshot).Error
}

func (r *Repository) GetLatestSnapshot() (*BudgetSnapshot, error) {
	var snapshot BudgetSnapshot
	err := r.db.Order("created_at DESC").First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
