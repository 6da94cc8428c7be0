package broker

import (
	"context"
	"fmt"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/logger"
)

const (
	sandboxEndpoint = "sandbox-invest-public-api.tinkoff.ru:443"
	liveEndpoint    = "invest-public-api.tinkoff.ru:443"
)

// BrokerClient wraps the T-Invest API for a single traded instrument and
// implements the strategy's Exchange port.
type BrokerClient struct {
	Client *investgo.Client
	Config *config.Config
	Logger *logger.Logger

	instrumentUID string
	lot           float64
}

func NewBrokerClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*BrokerClient, error) {
	endpoint := liveEndpoint
	if cfg.IsSandbox() {
		endpoint = sandboxEndpoint
	}

	investCfg := investgo.Config{
		EndPoint:  endpoint,
		Token:     cfg.Tinkoff.Token,
		AccountId: cfg.Tinkoff.AccountID,
		AppName:   "noise-trader",
	}

	client, err := investgo.NewClient(ctx, investCfg, log)
	if err != nil {
		return nil, fmt.Errorf("create investgo client: %w", err)
	}

	bc := &BrokerClient{
		Client: client,
		Config: cfg,
		Logger: log,
	}

	if cfg.IsSandbox() && cfg.Tinkoff.AccountID == "" {
		if err := bc.setupSandbox(); err != nil {
			return nil, fmt.Errorf("setup sandbox: %w", err)
		}
	}

	if err := bc.resolveInstrument(cfg.Trading.Ticker); err != nil {
		return nil, fmt.Errorf("resolve instrument: %w", err)
	}

	return bc, nil
}

func (bc *BrokerClient) setupSandbox() error {
	sandbox := bc.Client.NewSandboxServiceClient()

	// Top up sandbox account with 1,000,000 RUB
	_, err := sandbox.SandboxPayIn(&investgo.SandboxPayInRequest{
		AccountId: bc.Client.Config.AccountId,
		Currency:  "RUB",
		Unit:      1000000,
		Nano:      0,
	})
	if err != nil {
		return fmt.Errorf("sandbox pay in: %w", err)
	}

	bc.Logger.Info("sandbox account funded", "account_id", bc.Client.Config.AccountId)
	return nil
}

// resolveInstrument finds the traded instrument once at startup and
// caches its UID and lot size.
func (bc *BrokerClient) resolveInstrument(ticker string) error {
	instruments := bc.Client.NewInstrumentsServiceClient()
	resp, err := instruments.FindInstrument(ticker)
	if err != nil {
		return fmt.Errorf("find instrument %s: %w", ticker, err)
	}

	for _, inst := range resp.GetInstruments() {
		if inst.GetTicker() == ticker {
			bc.instrumentUID = inst.GetUid()
			break
		}
	}
	if bc.instrumentUID == "" && len(resp.GetInstruments()) > 0 {
		bc.instrumentUID = resp.GetInstruments()[0].GetUid()
	}
	if bc.instrumentUID == "" {
		return fmt.Errorf("instrument not found: %s", ticker)
	}

	detail, err := instruments.InstrumentByUid(bc.instrumentUID)
	if err != nil {
		return fmt.Errorf("instrument by uid %s: %w", bc.instrumentUID, err)
	}
	bc.lot = float64(detail.GetInstrument().GetLot())
	if bc.lot <= 0 {
		bc.lot = 1
	}

	bc.Logger.Info("instrument resolved",
		"ticker", ticker, "uid", bc.instrumentUID, "lot", bc.lot)
	return nil
}

func (bc *BrokerClient) AccountID() string {
	return bc.Client.Config.AccountId
}

func (bc *BrokerClient) InstrumentUID() string {
	return bc.instrumentUID
}

func (bc *BrokerClient) Stop() error {
	return bc.Client.Stop()
}
