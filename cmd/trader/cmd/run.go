package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rustyeddy/tradesim/backtest"
	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/internal/logger"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/sim"
	"github.com/rustyeddy/tradesim/store"
	"github.com/rustyeddy/tradesim/strategies"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation with a strategy",
	Long: `Run a trading simulation with an auto-trading strategy.

With --ticks the simulation runs as fast as possible for that many bars.
With --duration the clock ticks in real time at the configured tick
interval until the duration elapses, the session is over or Ctrl-C.

Examples:
  trader run --ticks 2000 --strategy sma-cross
  trader run --duration 1m --config simulation.yaml
  trader run --ticks 500 --seed 42 --org run.org`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runTicks    int
	runDuration time.Duration
	runSeed     uint64
	runStrategy string
	runCloseEnd bool
	runUsePrefs bool
	runOrgPath  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runTicks, "ticks", "n", 0, "number of bars to simulate as fast as possible")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 0, "run in real time for this long")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "price generator seed (0 picks one)")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", fmt.Sprintf("strategy name %v", strategies.Names()))
	runCmd.Flags().BoolVar(&runCloseEnd, "close-end", true, "close open positions when the run ends")
	runCmd.Flags().BoolVar(&runUsePrefs, "prefs", false, "apply stored preferences to the order ticket")
	runCmd.Flags().StringVar(&runOrgPath, "org", "", "write the run summary as an Org-mode file")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if (runTicks > 0) == (runDuration > 0) {
		return errors.New("exactly one of --ticks or --duration is required")
	}

	cfg := *appCfg
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = runSeed
	}
	if runStrategy != "" {
		cfg.Strategy.Name = runStrategy
	}
	if runUsePrefs {
		loadPreferencesInto(&cfg, appLog)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	strat, err := strategies.StrategyByName(cfg.Strategy.Name, cfg.StrategyConfig())
	if err != nil {
		return err
	}

	var drv sim.Driver = &sim.ManualDriver{}
	if runDuration > 0 {
		drv = sim.NewScheduleDriver(appLog.WithComponent("driver"))
	}

	out := cmd.OutOrStdout()
	s, err := openSession(&cfg, appLog, drv, out)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			appLog.WithError(err).Warn("close session")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := &backtest.Runner{
		Engine:   s.engine,
		Strategy: strat,
		Options: backtest.RunnerOptions{
			Ticks:    runTicks,
			Duration: runDuration,
			CloseEnd: runCloseEnd,
		},
		Journal: s.sqlite,
	}
	res, runErr := r.Run(ctx)
	if res.RunID == "" && runErr != nil {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		appLog.WithComponent("cli").Info("run interrupted")
		runErr = nil
	}

	summary := res.Summary(journal.RunSummary{
		Timeframe: cfg.Simulation.Timeframe,
		Seed:      s.seed,
	})
	fmt.Fprintln(out)
	backtest.PrintResult(out, summary)
	s.console.PrintAccount("Account", s.engine.Account())

	if runOrgPath != "" {
		if err := summary.WriteOrg(runOrgPath); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		fmt.Fprintf(out, "✓ Summary written: %s\n", runOrgPath)
	}
	return runErr
}

// loadPreferencesInto applies the stored preferences to cfg. An unreachable
// store or unreadable preferences leave the defaults in place.
func loadPreferencesInto(cfg *config.Config, log *logger.Logger) {
	bs := openStoreOrMemory(cfg.Store, log)
	if c, ok := bs.(io.Closer); ok {
		defer c.Close()
	}
	p, err := store.LoadPreferences(bs)
	if err != nil {
		log.WithError(err).Warn("preferences unreadable, using defaults")
	}
	applyPreferences(cfg, p)
}
