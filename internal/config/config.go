package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tinkoff  TinkoffConfig  `yaml:"tinkoff"`
	Trading  TradingConfig  `yaml:"trading"`
	Strategy StrategyConfig `yaml:"strategy"`
	Telegram TelegramConfig `yaml:"telegram"`
	Web      WebConfig      `yaml:"web"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type TinkoffConfig struct {
	Token     string `yaml:"token"`
	Sandbox   bool   `yaml:"sandbox"`
	AccountID string `yaml:"account_id"`
}

type TradingConfig struct {
	Ticker         string `yaml:"ticker"`
	Interval       string `yaml:"interval"`        // cycle period, e.g. "15m"
	CandleInterval string `yaml:"candle_interval"` // candle size fed to the indicators
}

// StrategyConfig carries the Noise strategy parameters. DailyBudget,
// WeeklyBudget and SpentTimesShift are optional: a nil/empty value means
// the corresponding cap or shift is not applied.
type StrategyConfig struct {
	SpendOnOrder float64 `yaml:"spend_on_order"`

	DailyBudget     *float64 `yaml:"daily_budget"`
	WeeklyBudget    *float64 `yaml:"weekly_budget"`
	SpentTimesShift string   `yaml:"spent_times_shift"`

	BBBandLength int     `yaml:"bb_band_length"`
	BBBandMult   float64 `yaml:"bb_band_mult"`

	BuyMACDFast   int `yaml:"buy_macd_fast"`
	BuyMACDSlow   int `yaml:"buy_macd_slow"`
	BuyMACDSignal int `yaml:"buy_macd_signal"`

	SellMACDFast   int `yaml:"sell_macd_fast"`
	SellMACDSlow   int `yaml:"sell_macd_slow"`
	SellMACDSignal int `yaml:"sell_macd_signal"`

	SellBandLength int     `yaml:"sell_band_length"`
	SellBandMult   float64 `yaml:"sell_band_mult"`
	SellBandLowPct float64 `yaml:"sell_band_low_pct"`

	MinimalBenefitToStartTrailing float64 `yaml:"minimal_benefit_to_start_trailing"`
	MinPriceToStartTrailing       float64 `yaml:"min_price_to_start_trailing"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Trading.Interval == "" {
		cfg.Trading.Interval = "15m"
	}
	if cfg.Trading.CandleInterval == "" {
		cfg.Trading.CandleInterval = "1h"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Tinkoff.Token == "" {
		return fmt.Errorf("tinkoff.token is required")
	}
	if c.Trading.Ticker == "" {
		return fmt.Errorf("trading.ticker is required")
	}
	if _, err := time.ParseDuration(c.Trading.Interval); err != nil {
		return fmt.Errorf("invalid trading.interval %q: %w", c.Trading.Interval, err)
	}
	if c.Strategy.SpentTimesShift != "" {
		if _, err := time.ParseDuration(c.Strategy.SpentTimesShift); err != nil {
			return fmt.Errorf("invalid strategy.spent_times_shift %q: %w", c.Strategy.SpentTimesShift, err)
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (c *Config) IsSandbox() bool {
	return c.Tinkoff.Sandbox
}

func (c *Config) MOEXLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

func (c *Config) TradingInterval() time.Duration {
	d, _ := time.ParseDuration(c.Trading.Interval)
	return d
}

// SpentShift returns the configured budget window shift, zero when unset.
func (c *Config) SpentShift() time.Duration {
	if c.Strategy.SpentTimesShift == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Strategy.SpentTimesShift)
	return d
}
