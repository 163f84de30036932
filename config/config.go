// Package config loads and validates the engine configuration from a YAML
// file with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters for the advisor.
type Config struct {
	Instrument struct {
		Symbol         string  `yaml:"symbol"`
		InstrumentID   string  `yaml:"instrument_id"`
		Quantity       float64 `yaml:"quantity"`
		HigherInterval string  `yaml:"higher_interval"` // e.g. 60minute
		LowerInterval  string  `yaml:"lower_interval"`  // e.g. 15minute
	} `yaml:"instrument"`

	Consensus struct {
		HigherShortMA   int     `yaml:"higher_short_ma"`
		HigherLongMA    int     `yaml:"higher_long_ma"`
		LowerShortMA    int     `yaml:"lower_short_ma"`
		LowerLongMA     int     `yaml:"lower_long_ma"`
		RSIPeriod       int     `yaml:"rsi_period"`
		BollingerPeriod int     `yaml:"bollinger_period"`
		BollingerK      float64 `yaml:"bollinger_k"`
		ATRPeriod       int     `yaml:"atr_period"`
		MinConfidence   float64 `yaml:"min_confidence"`
	} `yaml:"consensus"`

	Lifecycle struct {
		MaxOpenTrades int     `yaml:"max_open_trades"`
		MinConfidence float64 `yaml:"min_confidence"`
	} `yaml:"lifecycle"`

	Risk struct {
		Equity            float64 `yaml:"equity"`             // account equity; 0 disables risk-based sizing
		MaxRiskPerTrade   float64 `yaml:"max_risk_per_trade"` // fraction of equity, e.g. 0.01
		QuantityPrecision int     `yaml:"quantity_precision"`
		MinQty            float64 `yaml:"min_qty"`
		StepSize          float64 `yaml:"step_size"`
	} `yaml:"risk"`

	Schedule struct {
		AnalyzeCron string `yaml:"analyze_cron"`
		MonitorCron string `yaml:"monitor_cron"`
	} `yaml:"schedule"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables the closed-trade log
	} `yaml:"database"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

// Load reads the YAML file (missing file is fine, defaults apply), applies
// environment overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("ADVISOR_SYMBOL"); v != "" {
		cfg.Instrument.Symbol = v
	}
	if v := os.Getenv("ADVISOR_INSTRUMENT_ID"); v != "" {
		cfg.Instrument.InstrumentID = v
	}
	if v := os.Getenv("ADVISOR_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ADVISOR_METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("ADVISOR_ANALYZE_CRON"); v != "" {
		cfg.Schedule.AnalyzeCron = v
	}
	if v := os.Getenv("ADVISOR_MONITOR_CRON"); v != "" {
		cfg.Schedule.MonitorCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Instrument.Symbol == "" {
		c.Instrument.Symbol = "NIFTY"
	}
	if c.Instrument.InstrumentID == "" {
		c.Instrument.InstrumentID = "256265"
	}
	if c.Instrument.Quantity == 0 {
		c.Instrument.Quantity = 50
	}
	if c.Instrument.HigherInterval == "" {
		c.Instrument.HigherInterval = "60minute"
	}
	if c.Instrument.LowerInterval == "" {
		c.Instrument.LowerInterval = "15minute"
	}
	if c.Lifecycle.MaxOpenTrades == 0 {
		c.Lifecycle.MaxOpenTrades = 3
	}
	if c.Lifecycle.MinConfidence == 0 {
		c.Lifecycle.MinConfidence = 80
	}
	if c.Consensus.MinConfidence == 0 {
		c.Consensus.MinConfidence = 80
	}
	if c.Risk.MaxRiskPerTrade == 0 {
		c.Risk.MaxRiskPerTrade = 0.01
	}
	if c.Risk.StepSize == 0 {
		c.Risk.StepSize = 1
	}
	if c.Schedule.AnalyzeCron == "" {
		c.Schedule.AnalyzeCron = "0 */15 9-15 * * 1-5"
	}
	if c.Schedule.MonitorCron == "" {
		c.Schedule.MonitorCron = "0 * 9-15 * * 1-5"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9180"
	}
}

// Validate checks that all numeric fields are within sensible bounds and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Instrument.Symbol == "" {
		return errors.New("instrument.symbol is required")
	}
	if c.Instrument.Quantity <= 0 {
		return fmt.Errorf("instrument.quantity (%v) must be positive", c.Instrument.Quantity)
	}
	if c.Lifecycle.MaxOpenTrades <= 0 {
		return fmt.Errorf("lifecycle.max_open_trades (%d) must be positive", c.Lifecycle.MaxOpenTrades)
	}
	if c.Lifecycle.MinConfidence < 0 || c.Lifecycle.MinConfidence > 100 {
		return fmt.Errorf("lifecycle.min_confidence (%v) must be within 0..100", c.Lifecycle.MinConfidence)
	}
	if c.Consensus.MinConfidence < 0 || c.Consensus.MinConfidence > 100 {
		return fmt.Errorf("consensus.min_confidence (%v) must be within 0..100", c.Consensus.MinConfidence)
	}
	if c.Risk.Equity < 0 {
		return errors.New("risk.equity cannot be negative")
	}
	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade > 0.5 {
		return fmt.Errorf("risk.max_risk_per_trade (%v) must be >0 and <=0.5", c.Risk.MaxRiskPerTrade)
	}
	if c.Risk.QuantityPrecision < 0 {
		return errors.New("risk.quantity_precision cannot be negative")
	}
	if c.Risk.MinQty < 0 {
		return errors.New("risk.min_qty cannot be negative")
	}
	return nil
}
