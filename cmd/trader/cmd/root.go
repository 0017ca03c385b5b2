package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "A trading simulator for practicing risk discipline",
	Long: `Trader runs a synthetic market and a simulated trading account.

It provides tools for:
  - Generating a random-walk price series with ATR and SMA indicators
  - Opening, modifying and closing positions under a risk policy
  - Tracking equity, drawdown and a discipline score
  - Running strategies in real time or as fast as possible
  - Querying the trade journal

Settings come from a config file and can be overridden with TRADESIM_*
environment variables (a .env file is read when present).`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

var (
	cfgFile  string
	envFile  string
	logLevel string

	v      = viper.New()
	appCfg *config.Config
	appLog *logger.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if appLog != nil {
			_ = appLog.Close()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with TRADESIM_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	v.SetEnvPrefix("TRADESIM")
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// envKeys are the settings that may be overridden from the environment,
// e.g. TRADESIM_ASSET or TRADESIM_LOG_LEVEL.
var envKeys = []string{
	"asset",
	"timeframe",
	"tick_interval",
	"seed",
	"capital",
	"strategy",
	"journal",
	"journal_db",
	"store",
	"store_path",
	"log_level",
	"log_format",
	"log_output",
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	applyOverrides(cfg, v)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	appCfg = cfg
	appLog = logger.New(cfg.Log)
	appLog.WithComponent("cli").WithField("command", cmd.Name()).Debug("settings loaded")
	return nil
}

// applyOverrides copies every environment or flag value viper knows about
// onto cfg.
func applyOverrides(cfg *config.Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*dst = v.GetString(key)
		}
	}

	str("asset", &cfg.Simulation.Asset)
	str("timeframe", &cfg.Simulation.Timeframe)
	str("tick_interval", &cfg.Simulation.TickInterval)
	str("strategy", &cfg.Strategy.Name)
	str("journal", &cfg.Journal.Type)
	str("journal_db", &cfg.Journal.DBPath)
	str("store", &cfg.Store.Type)
	str("store_path", &cfg.Store.Path)
	str("log_level", &cfg.Log.Level)
	str("log_format", &cfg.Log.Format)
	str("log_output", &cfg.Log.Output)

	if v.IsSet("seed") {
		cfg.Simulation.Seed = v.GetUint64("seed")
	}
	if v.IsSet("capital") {
		cfg.Account.Capital = v.GetFloat64("capital")
	}
}
