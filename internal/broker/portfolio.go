package broker

import (
	"context"
	"fmt"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"github.com/arnaubm/noise-trader/internal/strategy"
)

type PortfolioInfo struct {
	TotalRub     float64
	AvailableRub float64
	Position     PositionInfo
}

type PositionInfo struct {
	Quantity     float64
	AvgPrice     float64
	CurrentPrice float64
	PnL          float64
}

func (bc *BrokerClient) GetPortfolio() (*PortfolioInfo, error) {
	accountID := bc.AccountID()
	currency := pb.PortfolioRequest_RUB

	var resp interface {
		GetTotalAmountPortfolio() *pb.MoneyValue
		GetTotalAmountCurrencies() *pb.MoneyValue
		GetPositions() []*pb.PortfolioPosition
	}

	if bc.Config.IsSandbox() {
		sandbox := bc.Client.NewSandboxServiceClient()
		r, err := sandbox.GetSandboxPortfolio(accountID, currency)
		if err != nil {
			return nil, fmt.Errorf("get sandbox portfolio: %w", err)
		}
		resp = r.PortfolioResponse
	} else {
		ops := bc.Client.NewOperationsServiceClient()
		r, err := ops.GetPortfolio(accountID, currency)
		if err != nil {
			return nil, fmt.Errorf("get portfolio: %w", err)
		}
		resp = r.PortfolioResponse
	}

	info := &PortfolioInfo{}
	if total := resp.GetTotalAmountPortfolio(); total != nil {
		info.TotalRub = total.ToFloat()
	}
	if currencies := resp.GetTotalAmountCurrencies(); currencies != nil {
		info.AvailableRub = currencies.ToFloat()
	}

	for _, pos := range resp.GetPositions() {
		if pos.GetInstrumentUid() != bc.instrumentUID {
			continue
		}
		if q := pos.GetQuantity(); q != nil {
			info.Position.Quantity = q.ToFloat()
		}
		if ap := pos.GetAveragePositionPrice(); ap != nil {
			info.Position.AvgPrice = ap.ToFloat()
		}
		if cp := pos.GetCurrentPrice(); cp != nil {
			info.Position.CurrentPrice = cp.ToFloat()
		}
		if ey := pos.GetExpectedYield(); ey != nil {
			info.Position.PnL = ey.ToFloat()
		}
	}

	return info, nil
}

// Balances reports the traded instrument's position as the base currency
// and free cash as the quote currency.
func (bc *BrokerClient) Balances(context.Context) (strategy.Balances, error) {
	portfolio, err := bc.GetPortfolio()
	if err != nil {
		return strategy.Balances{}, err
	}
	return strategy.Balances{
		Base:  strategy.Balance{Free: portfolio.Position.Quantity},
		Quote: strategy.Balance{Free: portfolio.AvailableRub},
	}, nil
}
