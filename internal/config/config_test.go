package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
tinkoff:
  token: "t.token"
  sandbox: true
trading:
  ticker: "SBER"
strategy:
  spend_on_order: 300
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "15m", cfg.Trading.Interval)
	assert.Equal(t, "1h", cfg.Trading.CandleInterval)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.IsSandbox())
	assert.Equal(t, 15*time.Minute, cfg.TradingInterval())
}

func TestLoadStrategySection(t *testing.T) {
	path := writeConfig(t, `
tinkoff:
  token: "t.token"
trading:
  ticker: "SBER"
strategy:
  spend_on_order: 300
  daily_budget: 1000
  weekly_budget: 4000
  spent_times_shift: "2h"
  bb_band_length: 20
  bb_band_mult: 2
  sell_band_length: 20
  sell_band_mult: 3
  sell_band_low_pct: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Strategy.DailyBudget)
	assert.Equal(t, 1000.0, *cfg.Strategy.DailyBudget)
	require.NotNil(t, cfg.Strategy.WeeklyBudget)
	assert.Equal(t, 4000.0, *cfg.Strategy.WeeklyBudget)
	assert.Equal(t, 2*time.Hour, cfg.SpentShift())
	assert.Equal(t, 20, cfg.Strategy.BBBandLength)
}

func TestLoadOptionalBudgetsStayNil(t *testing.T) {
	path := writeConfig(t, `
tinkoff:
  token: "t.token"
trading:
  ticker: "SBER"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Nil(t, cfg.Strategy.DailyBudget)
	assert.Nil(t, cfg.Strategy.WeeklyBudget)
	assert.Zero(t, cfg.SpentShift())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing token",
			content: "trading:\n  ticker: SBER\n",
			wantErr: "tinkoff.token",
		},
		{
			name:    "missing ticker",
			content: "tinkoff:\n  token: t\n",
			wantErr: "trading.ticker",
		},
		{
			name:    "bad interval",
			content: "tinkoff:\n  token: t\ntrading:\n  ticker: SBER\n  interval: soon\n",
			wantErr: "trading.interval",
		},
		{
			name:    "bad shift",
			content: "tinkoff:\n  token: t\ntrading:\n  ticker: SBER\nstrategy:\n  spent_times_shift: later\n",
			wantErr: "spent_times_shift",
		},
		{
			name:    "telegram enabled without token",
			content: "tinkoff:\n  token: t\ntrading:\n  ticker: SBER\ntelegram:\n  enabled: true\n  chat_id: 1\n",
			wantErr: "telegram.bot_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
