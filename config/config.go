package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/tradesim/account"
	"github.com/rustyeddy/tradesim/internal/logger"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/pricing"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/sim"
	"github.com/rustyeddy/tradesim/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete simulation configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Log        logger.Config    `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Capital       float64 `json:"capital" yaml:"capital"`
	Discipline    int     `json:"discipline" yaml:"discipline"`
	MaxDiscipline int     `json:"max_discipline" yaml:"max_discipline"`
}

// SimulationConfig contains price generator and clock parameters
type SimulationConfig struct {
	Asset           string  `json:"asset" yaml:"asset"`
	Timeframe       string  `json:"timeframe" yaml:"timeframe"`         // e.g. "M1", "H1"
	TickInterval    string  `json:"tick_interval" yaml:"tick_interval"` // e.g. "1s", "250ms"
	Seed            uint64  `json:"seed" yaml:"seed"`                   // 0 picks a random seed
	WarmupBars      int     `json:"warmup_bars" yaml:"warmup_bars"`
	ATRPeriod       int     `json:"atr_period" yaml:"atr_period"`
	SMAPeriod       int     `json:"sma_period" yaml:"sma_period"`
	WindowMargin    int     `json:"window_margin" yaml:"window_margin"`
	DriftRatio      float64 `json:"drift_ratio" yaml:"drift_ratio"`
	MarketBias      float64 `json:"market_bias" yaml:"market_bias"`
	MaxEquityPoints int     `json:"max_equity_points" yaml:"max_equity_points"`
}

// ParseInterval converts the tick interval string to time.Duration
func (s SimulationConfig) ParseInterval() (time.Duration, error) {
	if s.TickInterval == "" {
		return sim.DefaultTickInterval, nil
	}
	return time.ParseDuration(s.TickInterval)
}

// TimeframeSeconds converts the timeframe string to a bar duration.
func (s SimulationConfig) TimeframeSeconds() (int64, error) {
	return market.TFStringToSeconds(strings.ToUpper(s.Timeframe))
}

// RiskConfig contains the order validation policy
type RiskConfig struct {
	MaxRiskPct       float64 `json:"max_risk_pct" yaml:"max_risk_pct"`
	MinATRMultiplier float64 `json:"min_atr_multiplier" yaml:"min_atr_multiplier"`
	MinRewardMargin  float64 `json:"min_reward_margin" yaml:"min_reward_margin"`
}

// StrategyConfig contains auto-trading strategy parameters
type StrategyConfig struct {
	Name    string  `json:"name" yaml:"name"`
	Method  string  `json:"method" yaml:"method"` // "pips" or "atr"
	Stop    float64 `json:"stop" yaml:"stop"`
	Target  float64 `json:"target" yaml:"target"`
	RiskPct float64 `json:"risk_pct" yaml:"risk_pct"`
	Units   float64 `json:"units,omitempty" yaml:"units,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StoreConfig selects where history and preferences are persisted
type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "sqlite" or "memory"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Account.Discipline <= 0 {
		return fmt.Errorf("account.discipline must be positive")
	}
	if c.Account.MaxDiscipline < c.Account.Discipline {
		return fmt.Errorf("account.max_discipline must be at least account.discipline")
	}

	if c.Simulation.Asset == "" {
		return fmt.Errorf("simulation.asset is required")
	}
	if _, err := market.Lookup(c.Simulation.Asset); err != nil {
		return fmt.Errorf("unknown asset: %s", c.Simulation.Asset)
	}
	if _, err := c.Simulation.TimeframeSeconds(); err != nil {
		return fmt.Errorf("simulation.timeframe: %w", err)
	}
	if d, err := c.Simulation.ParseInterval(); err != nil || d <= 0 {
		return fmt.Errorf("simulation.tick_interval must be a positive duration")
	}
	if c.Simulation.WarmupBars < 0 || c.Simulation.ATRPeriod < 0 || c.Simulation.SMAPeriod < 0 {
		return fmt.Errorf("simulation periods must not be negative")
	}
	if c.Simulation.DriftRatio < 0 || c.Simulation.DriftRatio > 1 {
		return fmt.Errorf("simulation.drift_ratio must be between 0 and 1")
	}
	if c.Simulation.MarketBias < -0.5 || c.Simulation.MarketBias > 0.5 {
		return fmt.Errorf("simulation.market_bias must be between -0.5 and 0.5")
	}

	if c.Risk.MaxRiskPct <= 0 || c.Risk.MaxRiskPct > 100 {
		return fmt.Errorf("risk.max_risk_pct must be between 0 and 100")
	}
	if c.Risk.MinATRMultiplier <= 0 {
		return fmt.Errorf("risk.min_atr_multiplier must be positive")
	}
	if c.Risk.MinRewardMargin < 0 {
		return fmt.Errorf("risk.min_reward_margin must not be negative")
	}

	if _, err := strategies.StrategyByName(c.Strategy.Name, strategies.Config{}); err != nil {
		return fmt.Errorf("strategy.name: %w", err)
	}
	if _, err := sim.ParseMethod(c.Strategy.Method); err != nil {
		return fmt.Errorf("strategy.method: %w", err)
	}
	if c.Strategy.Stop <= 0 {
		return fmt.Errorf("strategy.stop must be positive")
	}
	if c.Strategy.Target <= c.Strategy.Stop {
		return fmt.Errorf("strategy.target must be greater than strategy.stop")
	}
	if c.Strategy.RiskPct < 0 || c.Strategy.RiskPct > c.Risk.MaxRiskPct {
		return fmt.Errorf("strategy.risk_pct must be between 0 and risk.max_risk_pct")
	}
	if c.Strategy.RiskPct == 0 && c.Strategy.Units <= 0 {
		return fmt.Errorf("strategy.units required when strategy.risk_pct is 0")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	switch c.Store.Type {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for SQLite type")
		}
	case "memory", "":
	default:
		return fmt.Errorf("store.type must be 'sqlite' or 'memory'")
	}

	return nil
}

// AccountTracker builds the tracker config.
func (c *Config) AccountTracker() account.Config {
	return account.Config{
		Capital:         c.Account.Capital,
		Discipline:      c.Account.Discipline,
		MaxDiscipline:   c.Account.MaxDiscipline,
		MaxEquityPoints: c.Simulation.MaxEquityPoints,
	}
}

// Generator builds the price generator config. Callers should Validate first.
func (c *Config) Generator() pricing.Config {
	g := pricing.DefaultConfig()
	if tf, err := c.Simulation.TimeframeSeconds(); err == nil {
		g.Timeframe = tf
	}
	g.DriftRatio = c.Simulation.DriftRatio
	g.MarketBias = c.Simulation.MarketBias
	return g
}

func (c *Config) Policy() risk.Policy {
	return risk.Policy{
		MaxRiskPct:       c.Risk.MaxRiskPct,
		MinATRMultiplier: c.Risk.MinATRMultiplier,
		MinRewardMargin:  c.Risk.MinRewardMargin,
	}
}

// StrategyConfig builds the strategy order template.
func (c *Config) StrategyConfig() strategies.Config {
	m, _ := sim.ParseMethod(c.Strategy.Method)
	return strategies.Config{
		Method:  m,
		Stop:    c.Strategy.Stop,
		Target:  c.Strategy.Target,
		RiskPct: c.Strategy.RiskPct,
		Units:   c.Strategy.Units,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	acct := account.DefaultConfig()
	pol := risk.DefaultPolicy()
	return &Config{
		Account: AccountConfig{
			Capital:       acct.Capital,
			Discipline:    acct.Discipline,
			MaxDiscipline: acct.MaxDiscipline,
		},
		Simulation: SimulationConfig{
			Asset:           "EUR_USD",
			Timeframe:       "M1",
			TickInterval:    sim.DefaultTickInterval.String(),
			WarmupBars:      sim.DefaultWarmupBars,
			ATRPeriod:       sim.DefaultATRPeriod,
			SMAPeriod:       sim.DefaultSMAPeriod,
			WindowMargin:    sim.DefaultWindowMargin,
			DriftRatio:      pricing.DefaultDriftRatio,
			MarketBias:      pricing.DefaultMarketBias,
			MaxEquityPoints: account.DefaultMaxEquityPoints,
		},
		Risk: RiskConfig{
			MaxRiskPct:       pol.MaxRiskPct,
			MinATRMultiplier: pol.MinATRMultiplier,
			MinRewardMargin:  pol.MinRewardMargin,
		},
		Strategy: StrategyConfig{
			Name:    "sma-cross",
			Method:  "atr",
			Stop:    1.5,
			Target:  3,
			RiskPct: 1,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Store: StoreConfig{
			Type: "sqlite",
			Path: "./tradesim.db",
		},
		Log: logger.DefaultConfig(),
	}
}
