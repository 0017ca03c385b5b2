package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/tradesim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 10000.0, cfg.Account.Capital)
	assert.Equal(t, 10, cfg.Account.Discipline)
	assert.Equal(t, "EUR_USD", cfg.Simulation.Asset)
	assert.Equal(t, 2.0, cfg.Risk.MaxRiskPct)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "negative capital",
			mutate:  func(c *Config) { c.Account.Capital = -1000 },
			wantErr: true,
			errMsg:  "account.capital must be positive",
		},
		{
			name:    "discipline above max",
			mutate:  func(c *Config) { c.Account.Discipline = 12 },
			wantErr: true,
			errMsg:  "account.max_discipline",
		},
		{
			name:    "unknown asset",
			mutate:  func(c *Config) { c.Simulation.Asset = "INVALID" },
			wantErr: true,
			errMsg:  "unknown asset",
		},
		{
			name:    "bad timeframe",
			mutate:  func(c *Config) { c.Simulation.Timeframe = "M7" },
			wantErr: true,
			errMsg:  "simulation.timeframe",
		},
		{
			name:    "bad interval",
			mutate:  func(c *Config) { c.Simulation.TickInterval = "soon" },
			wantErr: true,
			errMsg:  "simulation.tick_interval",
		},
		{
			name:    "drift ratio out of range",
			mutate:  func(c *Config) { c.Simulation.DriftRatio = 1.5 },
			wantErr: true,
			errMsg:  "simulation.drift_ratio",
		},
		{
			name:    "market bias out of range",
			mutate:  func(c *Config) { c.Simulation.MarketBias = -0.8 },
			wantErr: true,
			errMsg:  "simulation.market_bias",
		},
		{
			name:    "max risk zero",
			mutate:  func(c *Config) { c.Risk.MaxRiskPct = 0 },
			wantErr: true,
			errMsg:  "risk.max_risk_pct",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Strategy.Name = "martingale" },
			wantErr: true,
			errMsg:  "strategy.name",
		},
		{
			name:    "unknown method",
			mutate:  func(c *Config) { c.Strategy.Method = "fib" },
			wantErr: true,
			errMsg:  "strategy.method",
		},
		{
			name:    "negative stop",
			mutate:  func(c *Config) { c.Strategy.Stop = -10 },
			wantErr: true,
			errMsg:  "strategy.stop must be positive",
		},
		{
			name:    "target not beyond stop",
			mutate:  func(c *Config) { c.Strategy.Target = c.Strategy.Stop },
			wantErr: true,
			errMsg:  "strategy.target must be greater",
		},
		{
			name:    "strategy risk above policy",
			mutate:  func(c *Config) { c.Strategy.RiskPct = 5 },
			wantErr: true,
			errMsg:  "strategy.risk_pct",
		},
		{
			name:    "fixed size needs units",
			mutate:  func(c *Config) { c.Strategy.RiskPct = 0 },
			wantErr: true,
			errMsg:  "strategy.units",
		},
		{
			name: "fixed size",
			mutate: func(c *Config) {
				c.Strategy.RiskPct = 0
				c.Strategy.Units = 10000
			},
		},
		{
			name:    "csv missing files",
			mutate:  func(c *Config) { c.Journal.EquityFile = "" },
			wantErr: true,
			errMsg:  "journal trades_file and equity_file required",
		},
		{
			name:    "sqlite journal missing path",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} },
			wantErr: true,
			errMsg:  "journal db_path required",
		},
		{
			name:    "no journal",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "none"} },
			wantErr: false,
		},
		{
			name:    "unknown journal",
			mutate:  func(c *Config) { c.Journal.Type = "kafka" },
			wantErr: true,
			errMsg:  "journal.type",
		},
		{
			name:    "sqlite store missing path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: true,
			errMsg:  "store.path required",
		},
		{
			name:    "memory store",
			mutate:  func(c *Config) { c.Store = StoreConfig{Type: "memory"} },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Simulation.Seed = 42
			cfg.Strategy.Name = "open-once"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			// Save
			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			// Verify file exists
			_, err = os.Stat(path)
			require.NoError(t, err)

			// Load
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			// Compare
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  capital: 2500\nsimulation:\n  asset: USD_JPY\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, cfg.Account.Capital)
	assert.Equal(t, "USD_JPY", cfg.Simulation.Asset)
	assert.Equal(t, "M1", cfg.Simulation.Timeframe)
	assert.Equal(t, 10, cfg.Account.Discipline)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account: [1, 2"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		interval string
		expected string
		wantErr  bool
	}{
		{"1h", "1h0m0s", false},
		{"250ms", "250ms", false},
		{"1s", "1s", false},
		{"", sim.DefaultTickInterval.String(), false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			s := SimulationConfig{TickInterval: tt.interval}
			d, err := s.ParseInterval()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.String())
			}
		})
	}
}

func TestBuilders(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Timeframe = "m5"
	cfg.Simulation.MarketBias = 0

	g := cfg.Generator()
	assert.Equal(t, int64(300), g.Timeframe)
	assert.Zero(t, g.MarketBias)

	a := cfg.AccountTracker()
	assert.Equal(t, cfg.Account.Capital, a.Capital)
	assert.Equal(t, cfg.Simulation.MaxEquityPoints, a.MaxEquityPoints)

	assert.Equal(t, cfg.Risk.MaxRiskPct, cfg.Policy().MaxRiskPct)

	s := cfg.StrategyConfig()
	assert.Equal(t, sim.MethodATR, s.Method)
	assert.Equal(t, 1.5, s.Stop)

	d, err := cfg.Simulation.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}
