package broker

import (
	"context"
	"fmt"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"github.com/arnaubm/noise-trader/internal/strategy"
)

func (bc *BrokerClient) candleInterval() (pb.CandleInterval, time.Duration) {
	switch bc.Config.Trading.CandleInterval {
	case "1m":
		return pb.CandleInterval_CANDLE_INTERVAL_1_MIN, time.Minute
	case "5m":
		return pb.CandleInterval_CANDLE_INTERVAL_5_MIN, 5 * time.Minute
	case "15m":
		return pb.CandleInterval_CANDLE_INTERVAL_15_MIN, 15 * time.Minute
	case "1d":
		return pb.CandleInterval_CANDLE_INTERVAL_DAY, 24 * time.Hour
	default:
		return pb.CandleInterval_CANDLE_INTERVAL_HOUR, time.Hour
	}
}

// ReadCandles returns the most recent n candles of the traded instrument.
// The request window is padded so weekends and trading breaks still
// leave enough candles to fill the indicator windows.
func (bc *BrokerClient) ReadCandles(_ context.Context, n int) ([]strategy.Candle, error) {
	interval, dur := bc.candleInterval()

	now := time.Now()
	from := now.Add(-time.Duration(n) * dur * 4)

	md := bc.Client.NewMarketDataServiceClient()
	resp, err := md.GetCandles(
		bc.instrumentUID,
		interval,
		from, now,
		pb.GetCandlesRequest_CANDLE_SOURCE_EXCHANGE,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}

	raw := resp.GetCandles()
	if len(raw) == 0 {
		return nil, fmt.Errorf("no candles returned for %s", bc.Config.Trading.Ticker)
	}
	if len(raw) > n {
		raw = raw[len(raw)-n:]
	}

	candles := make([]strategy.Candle, 0, len(raw))
	for _, c := range raw {
		candles = append(candles, strategy.Candle{
			Time:   c.GetTime().AsTime(),
			Open:   c.GetOpen().ToFloat(),
			High:   c.GetHigh().ToFloat(),
			Low:    c.GetLow().ToFloat(),
			Close:  c.GetClose().ToFloat(),
			Volume: float64(c.GetVolume()),
		})
	}
	return candles, nil
}

// EstimatedLastClose reports the close of the latest candle.
func (bc *BrokerClient) EstimatedLastClose(ctx context.Context) (float64, error) {
	candles, err := bc.ReadCandles(ctx, 1)
	if err != nil {
		return 0, err
	}
	return candles[len(candles)-1].Close, nil
}
